package ristretto

import (
	"context"
	"errors"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/softcache/spill"
)

// Store keeps spilled frames in a Ristretto cache. Ristretto admits writes
// through a TinyLFU policy, so a Set may be dropped; softcache treats that as
// a future miss.
type Store struct {
	c    *rc.Cache
	sync bool
}

var _ spill.Store = (*Store)(nil)

type Config struct {
	NumCounters int64 // ~10x the number of frames expected to be resident
	MaxCost     int64 // total bytes; cost per frame is its length
	BufferItems int64 // 64 is Ristretto's recommended value
	Metrics     bool
	// Synchronous waits for each Set to be applied before returning.
	// Useful in tests; costs a buffer flush per write.
	Synchronous bool
}

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Store{c: c, sync: cfg.Synchronous}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// foreign value under our key; drop it
		s.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, cost int64) (bool, error) {
	ok := s.c.Set(key, value, cost)
	if ok && s.sync {
		s.c.Wait()
	}
	return ok, nil
}

func (s *Store) Del(_ context.Context, key string) error {
	s.c.Del(key)
	return nil
}

func (s *Store) Close(_ context.Context) error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes Ristretto's counters (nil unless Config.Metrics is set).
func (s *Store) Metrics() *rc.Metrics { return s.c.Metrics }
