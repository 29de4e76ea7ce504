package magic

import (
	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Colon-separated database files; empty uses the engine default
	Database string `env:"MAGIC_DATABASE"`

	// Flag names separated by "|" or ",", e.g. "symlink,mime_type"
	Flags string `env:"MAGIC_FLAGS"`

	// Number of cookies in the pool
	PoolSize int `env:"MAGIC_POOL_SIZE,default:4"`

	// Result cache for buffer queries
	CacheEnabled    bool `env:"MAGIC_CACHE_ENABLED,default:false"`
	CacheTTLSeconds int  `env:"MAGIC_CACHE_TTL_SECONDS,default:300"`
	CacheSize       int  `env:"MAGIC_CACHE_SIZE,default:10000"`

	// Reload the pool when the database files change
	WatchDatabase bool `env:"MAGIC_WATCH_DATABASE,default:false"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
