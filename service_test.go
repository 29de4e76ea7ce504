package magic

import (
	"context"
	"strings"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
			errMsg:  "config is required",
		},
		{
			name:    "zero pool size",
			config:  &Config{},
			wantErr: true,
			errMsg:  "pool size must be at least 1",
		},
		{
			name:    "negative TTL",
			config:  &Config{PoolSize: 1, CacheTTLSeconds: -1},
			wantErr: true,
			errMsg:  "cache TTL must not be negative",
		},
		{
			name:    "negative cache size",
			config:  &Config{PoolSize: 1, CacheSize: -1},
			wantErr: true,
			errMsg:  "cache size must not be negative",
		},
		{
			name:    "watch without database",
			config:  &Config{PoolSize: 1, WatchDatabase: true},
			wantErr: true,
			errMsg:  "watching requires an explicit database",
		},
		{
			name:    "minimal",
			config:  &Config{PoolSize: 1},
			wantErr: false,
		},
		{
			name:    "watch with database",
			config:  &Config{PoolSize: 1, Database: "/tmp/x.mgc", WatchDatabase: true},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateConfig() error = %v, want error containing %v", err, tt.errMsg)
			}
		})
	}
}

func TestNew(t *testing.T) {
	src := writeMagicSource(t, t.TempDir(), "gobeaver.magic", "gobeaver test data")

	tests := []struct {
		name      string
		config    Config
		wantErr   bool
		errMsg    string
		wantCache bool
		wantWatch bool
	}{
		{
			name:   "plain pool",
			config: Config{Database: src, PoolSize: 2},
		},
		{
			name:      "with cache",
			config:    Config{Database: src, PoolSize: 1, CacheEnabled: true, CacheTTLSeconds: 60},
			wantCache: true,
		},
		{
			name:      "with watcher",
			config:    Config{Database: src, PoolSize: 1, WatchDatabase: true},
			wantWatch: true,
		},
		{
			name:    "unknown flag",
			config:  Config{Database: src, PoolSize: 1, Flags: "mime,bogus"},
			wantErr: true,
			errMsg:  "invalid flag",
		},
		{
			name:    "missing database",
			config:  Config{Database: src + ".missing", PoolSize: 1},
			wantErr: true,
			errMsg:  "failed to create pool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(&tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("New() error = %v, want error containing %v", err, tt.errMsg)
				}
				return
			}
			defer d.Close()

			if (d.cache != nil) != tt.wantCache {
				t.Errorf("cache configured = %v, want %v", d.cache != nil, tt.wantCache)
			}
			if (d.watcher != nil) != tt.wantWatch {
				t.Errorf("watcher configured = %v, want %v", d.watcher != nil, tt.wantWatch)
			}
			if d.Pool().Size() != tt.config.PoolSize {
				t.Errorf("pool size = %d, want %d", d.Pool().Size(), tt.config.PoolSize)
			}

			desc, ok, err := d.Buffer(context.Background(), []byte("GOBEAVER payload"))
			if err != nil || !ok || desc != "gobeaver test data" {
				t.Errorf("Buffer() = %q, %v, %v", desc, ok, err)
			}
		})
	}
}

func TestNewAppliesFlags(t *testing.T) {
	src := writeMagicSource(t, t.TempDir(), "gobeaver.magic", "gobeaver test data")

	d, err := New(&Config{Database: src, PoolSize: 1, Flags: "symlink|raw"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer d.Close()

	want := FlagSymlink | FlagRaw | FlagError
	if got := d.Pool().Flags(); got != want {
		t.Errorf("Flags() = %s, want %s", got, want)
	}
}

func TestInitAndDefault(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	src := writeMagicSource(t, t.TempDir(), "gobeaver.magic", "global gobeaver data")
	if err := Init(&Config{Database: src, PoolSize: 1}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	d, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	// Later Init calls keep the first instance
	if err := Init(&Config{PoolSize: 0}); err != nil {
		t.Errorf("second Init() error = %v", err)
	}
	again, _ := Default()
	if again != d {
		t.Error("Default() returned a different instance")
	}

	desc, _, err := d.Buffer(context.Background(), []byte("GOBEAVER"))
	if err != nil || desc != "global gobeaver data" {
		t.Errorf("Buffer() = %q, %v", desc, err)
	}
}
