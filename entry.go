package softcache

import (
	"sync"
	"time"
)

// entry pairs a key with its slot and recency metadata.
// mu guards slot and lastAccess. spilled is guarded by the cache lock.
// stamp is immutable and unique per inserted entry.
type entry[K comparable, V any] struct {
	key   K
	stamp uint64

	mu         sync.Mutex
	slot       slot[V]
	lastAccess time.Time
	spilled    bool // slot bytes were written to the spill store on weaken
}

func newEntry[K comparable, V any](key K, value V, stamp uint64, now time.Time) *entry[K, V] {
	return &entry[K, V]{
		key:        key,
		stamp:      stamp,
		slot:       newSlot(value),
		lastAccess: now,
	}
}

// touch refreshes lastAccess. Older readings are ignored so the timestamp never
// moves backwards. Caller holds e.mu.
func (e *entry[K, V]) touch(now time.Time) {
	if now.After(e.lastAccess) {
		e.lastAccess = now
	}
}

// accessedAt returns lastAccess under the entry lock.
func (e *entry[K, V]) accessedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAccess
}

// colderThan reports whether e is a better eviction candidate than other:
// strictly earlier last access. Equal timestamps are not colder either way.
// The two entry locks are taken one at a time.
func (e *entry[K, V]) colderThan(other *entry[K, V]) bool {
	return e.accessedAt().Before(other.accessedAt())
}
