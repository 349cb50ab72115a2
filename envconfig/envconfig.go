// Package envconfig reads softcache tuning from environment variables.
//
// A .env file in the working directory is loaded once, if present. Variables
// already set in the process environment win over the file.
//
//	SOFTCACHE_CLEANUP_INTERVAL=5s
//	SOFTCACHE_EVICTION_THRESHOLD=5000
//	SOFTCACHE_MAX_ENTRIES=20000
//
//	cfg, err := envconfig.Load("")
//	opts := softcache.Options[string, *Page]{Logger: logger}
//	envconfig.Apply(cfg, &opts)
package envconfig

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/unkn0wn-root/softcache"
)

const DefaultPrefix = "SOFTCACHE_"

var (
	ErrParse   = errors.New("envconfig: parse environment")
	ErrInvalid = errors.New("envconfig: invalid value")

	dotenvLoaded sync.Once
)

type Config struct {
	CleanupInterval   time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10s"`
	EvictionThreshold int           `env:"EVICTION_THRESHOLD" envDefault:"1000"`
	MaxEntries        int           `env:"MAX_ENTRIES" envDefault:"0"`
	ManualCleanup     bool          `env:"MANUAL_CLEANUP" envDefault:"false"`
	Namespace         string        `env:"NAMESPACE" envDefault:"softcache"`
}

// Load parses Config from variables named prefix+NAME. An empty prefix means DefaultPrefix.
func Load(prefix string) (Config, error) {
	dotenvLoaded.Do(func() {
		// a missing .env file is fine
		_ = godotenv.Load()
	})
	if prefix == "" {
		prefix = DefaultPrefix
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix}); err != nil {
		return Config{}, errors.Join(ErrParse, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.CleanupInterval < 0:
		return fmt.Errorf("%w: cleanup interval %s", ErrInvalid, c.CleanupInterval)
	case c.EvictionThreshold < 0:
		return fmt.Errorf("%w: eviction threshold %d", ErrInvalid, c.EvictionThreshold)
	case c.MaxEntries < 0:
		return fmt.Errorf("%w: max entries %d", ErrInvalid, c.MaxEntries)
	}
	return nil
}

// Apply copies cfg into opts, leaving logger, hooks, spill and codec untouched.
func Apply[K comparable, V any](cfg Config, opts *softcache.Options[K, V]) {
	opts.CleanupInterval = cfg.CleanupInterval
	opts.EvictionThreshold = cfg.EvictionThreshold
	opts.MaxEntries = cfg.MaxEntries
	opts.ManualCleanup = cfg.ManualCleanup
	opts.Namespace = cfg.Namespace
}
