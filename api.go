package softcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/softcache/codec"
	sp "github.com/unkn0wn-root/softcache/spill"
)

// Cache is an in-process key/value cache that keeps every value resident until
// housekeeping offers the least recently used one to the garbage collector.
// All methods are safe for concurrent use.
type Cache[K comparable, V any] interface {
	// ContainsKey reports whether key is cached and its value is still alive.
	// A true result counts as an access. A key whose value was collected is dropped.
	ContainsKey(key K) bool

	// Get returns the cached value. It fails with ErrNotFound when the key is
	// absent or its value was collected; the two cases are not distinguished.
	Get(key K) (V, error)

	// Put inserts or overwrites key with a resident value.
	// A failed insert is retried after a forced Cleanup, 3 attempts in total.
	Put(key K, value V) error

	// Remove drops key. Removing a missing key is a no-op.
	Remove(key K)

	// Cleanup runs one housekeeping pass: confirm or cancel the current
	// candidate, then weaken the coldest entry if population > EvictionThreshold.
	Cleanup()

	// Len returns the number of entries in the table, including entries whose
	// value was collected but not yet noticed.
	Len() int

	Stats() Stats

	// Close stops housekeeping and closes the spill store. Put fails with
	// ErrClosed afterwards; reads keep working on what is left in memory.
	Close(ctx context.Context) error
}

// Options tune the cache. The zero value is usable.
type Options[K comparable, V any] struct {
	CleanupInterval   time.Duration // housekeeping tick; 0 => 10s
	EvictionThreshold int           // population above which candidates are sought; 0 => 1000
	MaxEntries        int           // hard cap on distinct keys; 0 => unbounded
	ManualCleanup     bool          // do not start the housekeeping goroutine

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
	Clock  Clock  // if nil, time.Now is used

	// Spill tier. Enabled only when both Spill and Codec are set.
	Spill     sp.Store
	Codec     c.Codec[V]
	KeyString func(K) string // renders keys for spill storage, hooks and errors; nil => fmt.Sprint
	Namespace string         // spill key prefix; "" => "softcache"
}

func New[K comparable, V any](opts Options[K, V]) (Cache[K, V], error) {
	return newCache[K, V](opts)
}
