// Package asynchook moves hook delivery off the cache's locked paths.
// Events are queued to a fixed worker pool and dropped when the queue is full.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	c, _ := softcache.New[string, User](softcache.Options[string, User]{
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/softcache"
)

type Hooks struct {
	inner   softcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against sends on a closed queue
	closed  bool
	dropped atomic.Uint64
}

var _ softcache.Hooks = (*Hooks)(nil)

func New(inner softcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events fired afterwards are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded on a full or closed queue.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) Weakened(k string)                { h.try(func() { h.inner.Weakened(k) }) }
func (h *Hooks) Reclaimed(k string, s bool)       { h.try(func() { h.inner.Reclaimed(k, s) }) }
func (h *Hooks) Restrengthened(k string)          { h.try(func() { h.inner.Restrengthened(k) }) }
func (h *Hooks) SelfHeal(k, r string)             { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) Recovered(k string)               { h.try(func() { h.inner.Recovered(k) }) }
func (h *Hooks) SpillError(op, k string, e error) { h.try(func() { h.inner.SpillError(op, k, e) }) }
func (h *Hooks) PutRetried(k string, n int, err error) {
	h.try(func() { h.inner.PutRetried(k, n, err) })
}
func (h *Hooks) InsertFailed(k string, n int, err error) {
	h.try(func() { h.inner.InsertFailed(k, n, err) })
}
