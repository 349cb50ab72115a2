package softcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	c "github.com/unkn0wn-root/softcache/codec"
	sp "github.com/unkn0wn-root/softcache/spill"
)

type cache[K comparable, V any] struct {
	// mu guards table, candidate, spilled and every entry's spilled flag.
	// Lock order: mu before entry.mu.
	mu        sync.RWMutex
	table     map[K]*entry[K, V]
	candidate *entry[K, V] // at most one weakened entry awaiting collection
	spilled   map[K]uint64 // reclaimed keys with a spilled copy -> entry stamp; never overlaps table

	threshold  int
	maxEntries int
	interval   time.Duration

	log       Logger
	hooks     Hooks
	clock     Clock
	keyString func(K) string
	ns        string
	store     sp.Store
	codec     c.Codec[V]

	stamps atomic.Uint64
	stats  counters
	closed atomic.Bool

	// background housekeeping
	stopCh    chan struct{}
	closeWg   sync.WaitGroup
	closeOnce sync.Once
}

func newCache[K comparable, V any](opts Options[K, V]) (*cache[K, V], error) {
	if opts.CleanupInterval < 0 {
		return nil, fmt.Errorf("softcache: negative cleanup interval %s", opts.CleanupInterval)
	}
	if opts.EvictionThreshold < 0 {
		return nil, fmt.Errorf("softcache: negative eviction threshold %d", opts.EvictionThreshold)
	}
	if opts.MaxEntries < 0 {
		return nil, fmt.Errorf("softcache: negative max entries %d", opts.MaxEntries)
	}
	if (opts.Spill == nil) != (opts.Codec == nil) {
		return nil, fmt.Errorf("softcache: spill store and codec must be set together")
	}

	c := &cache[K, V]{
		table:   make(map[K]*entry[K, V]),
		spilled: make(map[K]uint64),
		store:   opts.Spill,
		codec:   opts.Codec,
	}

	// defaults
	c.threshold = coalesce(opts.EvictionThreshold, defaultEvictionThreshold)
	c.interval = coalesce(opts.CleanupInterval, defaultCleanupInterval)
	c.maxEntries = opts.MaxEntries
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.clock = coalesce[Clock](opts.Clock, wallClock{})
	c.ns = coalesce(opts.Namespace, defaultNamespace)
	if opts.KeyString != nil {
		c.keyString = opts.KeyString
	} else {
		c.keyString = defaultKeyString[K]
	}

	// a full table can only drain through reclaimed candidates, which are
	// never offered at or below the threshold
	if c.maxEntries > 0 && c.maxEntries <= c.threshold {
		return nil, fmt.Errorf("softcache: max entries %d must exceed eviction threshold %d", c.maxEntries, c.threshold)
	}

	if !opts.ManualCleanup {
		c.startHousekeeping()
	}
	return c, nil
}

func (c *cache[K, V]) ContainsKey(key K) bool {
	c.mu.RLock()
	e, ok := c.table[key]
	c.mu.RUnlock()

	if ok {
		e.mu.Lock()
		_, alive := e.slot.content()
		if alive {
			// checking signals interest; defer eviction
			e.touch(c.clock.Now())
		}
		e.mu.Unlock()
		if alive {
			c.stats.hits.Add(1)
			return true
		}
		c.dropReclaimed(e, "reclaimed_on_contains")
	}

	if _, ok := c.restore(key); ok {
		c.stats.hits.Add(1)
		return true
	}
	c.stats.misses.Add(1)
	return false
}

func (c *cache[K, V]) Get(key K) (V, error) {
	c.mu.RLock()
	e, ok := c.table[key]
	c.mu.RUnlock()

	if ok {
		e.mu.Lock()
		e.touch(c.clock.Now())
		v, alive := e.slot.content()
		e.mu.Unlock()
		if alive {
			c.stats.hits.Add(1)
			return v, nil
		}
		c.dropReclaimed(e, "reclaimed_on_get")
	}

	if v, ok := c.restore(key); ok {
		c.stats.hits.Add(1)
		return v, nil
	}
	c.stats.misses.Add(1)
	var zero V
	return zero, fmt.Errorf("%w: %s", ErrNotFound, c.keyString(key))
}

func (c *cache[K, V]) Put(key K, value V) error {
	var err error
	for attempt := 1; attempt <= maxPutAttempts; attempt++ {
		if err = c.insert(key, value); err == nil {
			return nil
		}
		if errors.Is(err, ErrClosed) {
			return err
		}
		if attempt < maxPutAttempts {
			ks := c.keyString(key)
			c.log.Debug("put attempt failed; forcing cleanup", Fields{"key": ks, "attempt": attempt, "err": err})
			c.hooks.PutRetried(ks, attempt, err)
			c.Cleanup()
		}
	}

	ks := c.keyString(key)
	c.stats.insertFailures.Add(1)
	c.log.Warn("put failed after retries", Fields{"key": ks, "attempts": maxPutAttempts, "err": err})
	c.hooks.InsertFailed(ks, maxPutAttempts, err)
	return &InsertError{Key: ks, Attempts: maxPutAttempts, Err: err}
}

// insert is a single Put attempt.
func (c *cache[K, V]) insert(key K, value V) error {
	if c.closed.Load() {
		return ErrClosed
	}
	e := newEntry(key, value, c.stamps.Add(1), c.clock.Now())

	c.mu.Lock()
	defer c.mu.Unlock()

	old, exists := c.table[key]
	if !exists && c.maxEntries > 0 && len(c.table) >= c.maxEntries {
		return ErrCapacity
	}
	c.table[key] = e
	if exists && c.candidate == old {
		c.candidate = nil
	}
	c.forgetSpilledLocked(key, exists && old.spilled)
	return nil
}

func (c *cache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.table[key]
	if ok {
		delete(c.table, key)
		if c.candidate == e {
			c.candidate = nil
		}
	}
	c.forgetSpilledLocked(key, ok && e.spilled)
}

// dropReclaimed removes e after an access found its value collected.
// No-op if e was already replaced or removed.
func (c *cache[K, V]) dropReclaimed(e *entry[K, V], reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.removeLocked(e) {
		return
	}
	c.stats.reclaimed.Add(1)
	c.hooks.SelfHeal(c.keyString(e.key), reason)
	c.rememberSpilledLocked(e)
}

// removeLocked deletes e if the table still maps its key to e.
func (c *cache[K, V]) removeLocked(e *entry[K, V]) bool {
	if cur, ok := c.table[e.key]; !ok || cur != e {
		return false
	}
	delete(c.table, e.key)
	if c.candidate == e {
		c.candidate = nil
	}
	return true
}

func (c *cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}

func (c *cache[K, V]) Stats() Stats { return c.stats.snapshot() }

func (c *cache[K, V]) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.stopHousekeeping(ctx)
		if c.store == nil {
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		clear(c.spilled)
		if cerr := c.store.Close(ctx); cerr != nil {
			c.hooks.SpillError("close", "", cerr)
			err = errors.Join(err, cerr)
		}
	})
	return err
}
