package magic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Pool hands out Cookies to one goroutine at a time. Every Cookie in the
// pool shares the same flags and database; Reload and SetFlags apply to all
// of them.
//
// Pool is safe for concurrent use. The Cookies it lends out are not: a
// Cookie obtained from Get belongs to the caller until it is returned with
// Put.
type Pool struct {
	cookies chan *Cookie
	size    int

	// all is replaced as a whole by a successful reload
	all []*Cookie

	// exclusive serializes operations that need every cookie at once
	exclusive sync.Mutex
	database  string
	flags     Flags

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer

	// generation changes whenever results for the same input may change
	generation atomic.Uint64

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewPool opens the cookies and loads the database into each of them
func NewPool(opts ...PoolOption) (*Pool, error) {
	o := defaultPoolOptions()
	for _, opt := range opts {
		opt(o)
	}

	all, err := openCookies(o.size, o.flags, o.database)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		cookies:  make(chan *Cookie, o.size),
		all:      all,
		size:     o.size,
		database: o.database,
		flags:    all[0].Flags(),
		logger:   o.logger,
		metrics:  o.metrics,
		tracer:   o.tracerProvider.Tracer(tracerName),
		done:     make(chan struct{}),
	}
	for _, c := range all {
		p.cookies <- c
	}

	return p, nil
}

// Size returns the number of cookies in the pool
func (p *Pool) Size() int {
	return p.size
}

// Flags returns the flags currently applied to every cookie
func (p *Pool) Flags() Flags {
	p.exclusive.Lock()
	defer p.exclusive.Unlock()
	return p.flags
}

// Database returns the database specification currently loaded
func (p *Pool) Database() string {
	p.exclusive.Lock()
	defer p.exclusive.Unlock()
	return p.database
}

// Get borrows a Cookie, blocking until one is free or ctx is done.
// Return it with Put. Do not Close it.
func (p *Pool) Get(ctx context.Context) (*Cookie, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	p.metrics.waitStart()
	defer p.metrics.waitDone()

	select {
	case c := <-p.cookies:
		if p.closed.Load() {
			p.cookies <- c
			return nil, ErrPoolClosed
		}
		return c, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put returns a Cookie obtained from Get
func (p *Pool) Put(c *Cookie) {
	if c == nil {
		return
	}
	p.cookies <- c
}

// Do runs fn with a borrowed Cookie and returns it afterwards
func (p *Pool) Do(ctx context.Context, fn func(*Cookie) error) error {
	c, err := p.Get(ctx)
	if err != nil {
		return err
	}
	defer p.Put(c)
	return fn(c)
}

// File classifies the file at name using a pooled Cookie
func (p *Pool) File(ctx context.Context, name string) (string, bool, error) {
	return p.query(ctx, "file", attribute.String("magic.path", name), func(c *Cookie) (string, bool, error) {
		return c.File(name)
	})
}

// Buffer classifies data using a pooled Cookie
func (p *Pool) Buffer(ctx context.Context, data []byte) (string, bool, error) {
	return p.query(ctx, "buffer", attribute.Int("magic.size", len(data)), func(c *Cookie) (string, bool, error) {
		return c.Buffer(data)
	})
}

// FileHandle classifies an open file using a pooled Cookie. f is not closed.
func (p *Pool) FileHandle(ctx context.Context, f *os.File) (string, bool, error) {
	return p.query(ctx, "descriptor", attribute.String("magic.path", f.Name()), func(c *Cookie) (string, bool, error) {
		return c.FileHandle(f)
	})
}

// query runs q on a borrowed Cookie inside a span and records the outcome.
func (p *Pool) query(ctx context.Context, op string, attr attribute.KeyValue, q func(*Cookie) (string, bool, error)) (desc string, ok bool, err error) {
	ctx, span := p.tracer.Start(ctx, "magic."+op, trace.WithAttributes(attr))
	defer span.End()

	err = p.Do(ctx, func(c *Cookie) error {
		start := time.Now()
		desc, ok, err = q(c)
		p.metrics.observeQuery(op, start, ok, err)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", false, err
	}

	span.SetAttributes(attribute.Bool("magic.match", ok))
	return desc, ok, nil
}

// Reload loads the current database again into every cookie. It waits
// until all cookies are back in the pool.
func (p *Pool) Reload(ctx context.Context) error {
	p.exclusive.Lock()
	defer p.exclusive.Unlock()

	return p.reload(ctx, p.database)
}

// ReloadFrom switches every cookie to the database in path. When loading
// fails the pool keeps answering from the previous database.
func (p *Pool) ReloadFrom(ctx context.Context, path string) error {
	p.exclusive.Lock()
	defer p.exclusive.Unlock()

	return p.reload(ctx, path)
}

// reload requires p.exclusive
func (p *Pool) reload(ctx context.Context, path string) error {
	err := p.swap(ctx, path)
	p.metrics.observeReload(err)
	if err != nil {
		p.logger.Warn("magic database reload failed", "database", path, "error", err)
		return err
	}

	p.database = path
	p.generation.Add(1)
	p.logger.Info("magic database reloaded", "database", path, "cookies", p.size)
	return nil
}

// swap loads path into a new set of cookies and puts them in service only
// once every load succeeded. A failed magic_load discards the database the
// cookie had, so the pooled cookies are never loaded in place.
func (p *Pool) swap(ctx context.Context, path string) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	fresh, err := openCookies(p.size, p.flags, path)
	if err != nil {
		return err
	}
	for _, c := range fresh {
		c.SetFlags(p.flags)
	}

	held, err := p.acquire(ctx)
	if err != nil {
		closeCookies(fresh)
		return err
	}

	p.all = fresh
	p.release(fresh)
	return closeCookies(held)
}

// SetFlags applies flags to every cookie. Like Cookie.SetFlags it does not
// add FlagError.
func (p *Pool) SetFlags(ctx context.Context, flags Flags) error {
	p.exclusive.Lock()
	defer p.exclusive.Unlock()

	held, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer p.release(held)

	for _, c := range held {
		c.SetFlags(flags)
	}
	p.flags = flags
	p.generation.Add(1)
	return nil
}

// acquire borrows every cookie. Callers hold p.exclusive.
func (p *Pool) acquire(ctx context.Context) ([]*Cookie, error) {
	held := make([]*Cookie, 0, p.size)
	for i := 0; i < p.size; i++ {
		c, err := p.Get(ctx)
		if err != nil {
			p.release(held)
			return nil, err
		}
		held = append(held, c)
	}
	return held, nil
}

func (p *Pool) release(cookies []*Cookie) {
	for _, c := range cookies {
		p.cookies <- c
	}
}

// Close waits for every borrowed cookie to be returned and releases all of
// them. Later calls return the first result.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.done)

		p.exclusive.Lock()
		defer p.exclusive.Unlock()

		for i := 0; i < p.size; i++ {
			<-p.cookies
		}
		p.closeErr = closeCookies(p.all)
	})
	return p.closeErr
}

// openCookies opens n cookies with flags and loads database into each
func openCookies(n int, flags Flags, database string) ([]*Cookie, error) {
	cookies := make([]*Cookie, 0, n)
	for i := 0; i < n; i++ {
		c, err := Open(flags)
		if err != nil {
			closeCookies(cookies)
			return nil, err
		}
		cookies = append(cookies, c)

		if err := c.Load(database); err != nil {
			closeCookies(cookies)
			return nil, fmt.Errorf("failed to load database: %w", err)
		}
	}
	return cookies, nil
}

func closeCookies(cookies []*Cookie) error {
	var errs []error
	for _, c := range cookies {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
