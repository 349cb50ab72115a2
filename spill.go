package softcache

import (
	"context"

	"github.com/unkn0wn-root/softcache/internal/wire"
)

func (c *cache[K, V]) spillEnabled() bool {
	return c.store != nil && !c.closed.Load()
}

func (c *cache[K, V]) spillKey(ks string) string {
	// isolate by namespace
	return "spill:" + c.ns + ":" + ks
}

// spillSetLocked writes v to the spill store. Failures are reported and
// otherwise ignored: the value is still weakly held in memory.
func (c *cache[K, V]) spillSetLocked(ks string, stamp uint64, v V) bool {
	payload, err := c.codec.Encode(v)
	if err != nil {
		c.spillFailed("encode", ks, err)
		return false
	}
	frame, err := wire.Encode(wire.Frame{Key: ks, Stamp: stamp, Payload: payload})
	if err != nil {
		c.spillFailed("encode", ks, err)
		return false
	}
	ok, err := c.store.Set(context.Background(), c.spillKey(ks), frame, int64(len(frame)))
	if err != nil {
		c.spillFailed("set", ks, err)
		return false
	}
	if !ok {
		c.log.Debug("spill write rejected by store (pressure)", Fields{"key": ks})
	}
	return ok
}

func (c *cache[K, V]) spillDelLocked(ks string) {
	if !c.spillEnabled() {
		return
	}
	if err := c.store.Del(context.Background(), c.spillKey(ks)); err != nil {
		c.spillFailed("del", ks, err)
	}
}

func (c *cache[K, V]) spillFailed(op, ks string, err error) {
	c.log.Warn("spill "+op+" failed", Fields{"key": ks, "err": err})
	c.hooks.SpillError(op, ks, err)
}

// rememberSpilledLocked indexes a removed, reclaimed entry whose value was
// spilled so the next access can restore it.
func (c *cache[K, V]) rememberSpilledLocked(e *entry[K, V]) {
	if e.spilled && c.spillEnabled() {
		c.spilled[e.key] = e.stamp
	}
}

// forgetSpilledLocked drops any spilled copy for key ahead of a Put or Remove.
// hadBytes reports whether the entry being replaced had spilled bytes.
func (c *cache[K, V]) forgetSpilledLocked(key K, hadBytes bool) {
	_, indexed := c.spilled[key]
	delete(c.spilled, key)
	if indexed || hadBytes {
		c.spillDelLocked(c.keyString(key))
	}
}

// restore brings back a reclaimed value from the spill store and reinserts it as a
// resident entry. Every failure drops the index entry and the stored bytes.
func (c *cache[K, V]) restore(key K) (V, bool) {
	var zero V
	if !c.spillEnabled() {
		return zero, false
	}

	c.mu.RLock()
	_, indexed := c.spilled[key]
	c.mu.RUnlock()
	if !indexed {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stamp, indexed := c.spilled[key]
	if !indexed {
		// lost the race to another restore or a Put
		return c.residentLocked(key)
	}
	delete(c.spilled, key)

	ks := c.keyString(key)
	sk := c.spillKey(ks)
	ctx := context.Background()

	raw, ok, err := c.store.Get(ctx, sk)
	if err != nil {
		c.spillFailed("get", ks, err)
		c.spillDelLocked(ks)
		return zero, false
	}
	if !ok {
		c.hooks.SelfHeal(ks, "spill_miss")
		return zero, false
	}

	f, err := wire.Decode(raw)
	if err != nil || f.Key != ks {
		c.spillDelLocked(ks)
		c.hooks.SelfHeal(ks, "spill_corrupt")
		return zero, false
	}
	if f.Stamp != stamp {
		c.spillDelLocked(ks)
		c.hooks.SelfHeal(ks, "spill_stale")
		return zero, false
	}
	v, err := c.codec.Decode(f.Payload)
	if err != nil {
		c.spillDelLocked(ks)
		c.hooks.SelfHeal(ks, "spill_decode")
		return zero, false
	}
	c.spillDelLocked(ks)

	c.stats.recovered.Add(1)
	c.log.Debug("value recovered from spill", Fields{"key": ks})
	c.hooks.Recovered(ks)

	if c.maxEntries > 0 && len(c.table) >= c.maxEntries {
		// hand the value back without caching it
		return v, true
	}
	c.table[key] = newEntry(key, v, c.stamps.Add(1), c.clock.Now())
	return v, true
}

// residentLocked reads key from the table as an access would.
func (c *cache[K, V]) residentLocked(key K) (V, bool) {
	var zero V
	e, ok := c.table[key]
	if !ok {
		return zero, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch(c.clock.Now())
	return e.slot.content()
}
