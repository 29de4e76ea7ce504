package magic

import (
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/gobeaver/magic"

// PoolOption configures a Pool
type PoolOption func(*poolOptions)

type poolOptions struct {
	// size is the number of cookies, i.e. the maximum parallelism
	size int

	// flags are handed to Open for every cookie
	flags Flags

	// database is the colon-separated database list; empty means default
	database string

	// logger receives reload and watcher events
	logger *slog.Logger

	// metrics records queries and reloads; nil disables
	metrics *Metrics

	// tracerProvider creates the tracer for query spans
	tracerProvider trace.TracerProvider
}

func defaultPoolOptions() *poolOptions {
	return &poolOptions{
		size:           runtime.GOMAXPROCS(0),
		flags:          FlagNone,
		logger:         slog.New(slog.DiscardHandler),
		tracerProvider: otel.GetTracerProvider(),
	}
}

// WithSize sets the number of cookies in the pool. Values below 1 are ignored.
func WithSize(size int) PoolOption {
	return func(o *poolOptions) {
		if size > 0 {
			o.size = size
		}
	}
}

// WithFlags sets the flags every cookie is opened with
func WithFlags(flags Flags) PoolOption {
	return func(o *poolOptions) {
		o.flags = flags
	}
}

// WithDatabase sets the database files loaded into every cookie
func WithDatabase(database string) PoolOption {
	return func(o *poolOptions) {
		o.database = database
	}
}

// WithLogger sets the logger used for reloads and watcher events
func WithLogger(logger *slog.Logger) PoolOption {
	return func(o *poolOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics enables Prometheus instrumentation
func WithMetrics(m *Metrics) PoolOption {
	return func(o *poolOptions) {
		o.metrics = m
	}
}

// WithTracerProvider sets the provider used for query spans. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) PoolOption {
	return func(o *poolOptions) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}
