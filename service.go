package magic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gobeaver/beaver-kit/config"
)

// Global instance
var (
	defaultDetector *Detector
	defaultOnce     sync.Once
	defaultErr      error
)

// Detector bundles a Pool with the optional result cache and database
// watcher described by a Config. It is safe for concurrent use.
type Detector struct {
	pool    *Pool
	cache   *CachingDetector
	watcher *Watcher
}

// Builder provides a way to create Detector instances with custom prefixes
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Init initializes the global Detector using the builder's prefix
func (b *Builder) Init() error {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return err
	}
	return Init(cfg)
}

// New creates a new Detector using the builder's prefix
func (b *Builder) New(opts ...PoolOption) (*Detector, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// Init initializes the global Detector
func Init(configs ...*Config) error {
	defaultOnce.Do(func() {
		var cfg *Config
		if len(configs) > 0 {
			cfg = configs[0]
		} else {
			cfg, defaultErr = GetConfig()
			if defaultErr != nil {
				return
			}
		}

		defaultDetector, defaultErr = New(cfg)
	})

	return defaultErr
}

// New creates a Detector from cfg. opts are applied after the settings
// derived from cfg, so they can add a logger or metrics.
func New(cfg *Config, opts ...PoolOption) (*Detector, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	flags, err := ParseFlags(cfg.Flags)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	poolOpts := []PoolOption{
		WithSize(cfg.PoolSize),
		WithFlags(flags),
		WithDatabase(cfg.Database),
	}
	pool, err := NewPool(append(poolOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	d := &Detector{pool: pool}

	if cfg.CacheEnabled {
		ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
		d.cache = NewCachingDetector(pool, NewMemoryCache(cfg.CacheSize), WithCacheTTL(ttl))
	}

	if cfg.WatchDatabase {
		w, err := WatchDatabase(context.Background(), pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to watch database: %w", err)
		}
		d.watcher = w
	}

	return d, nil
}

// validateConfig checks configuration validity
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cfg.PoolSize < 1 {
		return errors.New("pool size must be at least 1")
	}
	if cfg.CacheTTLSeconds < 0 {
		return errors.New("cache TTL must not be negative")
	}
	if cfg.CacheSize < 0 {
		return errors.New("cache size must not be negative")
	}
	if cfg.WatchDatabase && cfg.Database == "" {
		return errors.New("watching requires an explicit database")
	}
	return nil
}

// Pool returns the pool behind d
func (d *Detector) Pool() *Pool {
	return d.pool
}

// File classifies the file at name
func (d *Detector) File(ctx context.Context, name string) (string, bool, error) {
	return d.pool.File(ctx, name)
}

// Buffer classifies data, through the cache when one is configured
func (d *Detector) Buffer(ctx context.Context, data []byte) (string, bool, error) {
	if d.cache != nil {
		return d.cache.Buffer(ctx, data)
	}
	return d.pool.Buffer(ctx, data)
}

// FileHandle classifies an open file. f is not closed.
func (d *Detector) FileHandle(ctx context.Context, f *os.File) (string, bool, error) {
	return d.pool.FileHandle(ctx, f)
}

// Close stops the watcher and closes the pool
func (d *Detector) Close() error {
	var errs []error
	if d.watcher != nil {
		errs = append(errs, d.watcher.Close())
	}
	errs = append(errs, d.pool.Close())
	return errors.Join(errs...)
}

// Default returns the global instance, initializing if needed with error handling
func Default() (*Detector, error) {
	if defaultDetector == nil {
		if err := Init(); err != nil {
			return nil, err
		}
	}
	return defaultDetector, nil
}

// NewFromEnv creates instance from environment variables (convenience constructor)
func NewFromEnv(opts ...PoolOption) (*Detector, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// Reset closes and clears the global instance (for testing)
func Reset() {
	if defaultDetector != nil {
		_ = defaultDetector.Close()
	}
	defaultDetector = nil
	defaultOnce = sync.Once{}
	defaultErr = nil
}
