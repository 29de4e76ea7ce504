package magic

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Query outcomes recorded by Metrics
const (
	outcomeMatch   = "match"
	outcomeNoMatch = "no_match"
	outcomeError   = "error"
)

// Metrics holds Prometheus collectors for a Pool and its CachingDetector.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	queries     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	reloads     *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	waiting     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	buckets := []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

	m := &Metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "magic_queries_total",
			Help: "Content classification queries by operation and outcome",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "magic_query_duration_seconds",
			Help:    "Time spent inside the detection engine per query",
			Buckets: buckets,
		}, []string{"op"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "magic_database_reloads_total",
			Help: "Database reloads by result",
		}, []string{"result"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "magic_cache_hits_total",
			Help: "Buffer queries answered from the result cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "magic_cache_misses_total",
			Help: "Buffer queries that reached the engine",
		}),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "magic_pool_waiting",
			Help: "Callers blocked waiting for a free cookie",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.queries, m.duration, m.reloads, m.cacheHits, m.cacheMisses, m.waiting,
		} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

func (m *Metrics) observeQuery(op string, start time.Time, ok bool, err error) {
	if m == nil {
		return
	}
	outcome := outcomeMatch
	switch {
	case err != nil:
		outcome = outcomeError
	case !ok:
		outcome = outcomeNoMatch
	}
	m.queries.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeReload(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reloads.WithLabelValues("error").Inc()
		return
	}
	m.reloads.WithLabelValues("ok").Inc()
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) waitStart() {
	if m != nil {
		m.waiting.Inc()
	}
}

func (m *Metrics) waitDone() {
	if m != nil {
		m.waiting.Dec()
	}
}
