package softcache

// Cleanup never evicts on its own: it only offers the coldest value to the GC
// and removes an entry once the GC has actually taken its value.
func (c *cache[K, V]) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settleCandidateLocked()

	if len(c.table) <= c.threshold {
		return
	}
	if c.candidate == nil {
		c.candidate = c.coldestLocked()
	}
	if c.candidate != nil {
		c.weakenLocked(c.candidate)
	}
}

// settleCandidateLocked resolves the candidate offered by a previous pass:
// collected → entry removed; accessed in the meantime → un-marked, entry kept;
// still weak and alive → left in place.
// The liveness probe here does not promote the value.
func (c *cache[K, V]) settleCandidateLocked() {
	cand := c.candidate
	if cand == nil {
		return
	}

	cand.mu.Lock()
	alive := cand.slot.alive()
	isWeak := cand.slot.isWeak
	cand.mu.Unlock()

	ks := c.keyString(cand.key)
	if !alive {
		c.candidate = nil
		if !c.removeLocked(cand) {
			return
		}
		c.stats.reclaimed.Add(1)
		c.log.Debug("candidate reclaimed", Fields{"key": ks, "spilled": cand.spilled})
		c.hooks.Reclaimed(ks, cand.spilled)
		c.rememberSpilledLocked(cand)
		return
	}

	if !isWeak {
		c.candidate = nil
		c.log.Debug("candidate accessed before collection", Fields{"key": ks})
		c.hooks.Restrengthened(ks)
		if cand.spilled {
			cand.spilled = false
			c.spillDelLocked(ks)
		}
	}
}

// coldestLocked scans every entry for the earliest last access. Ties go to
// whichever entry the map iteration yields first. O(n) per call.
func (c *cache[K, V]) coldestLocked() *entry[K, V] {
	var best *entry[K, V]
	for _, e := range c.table {
		if best == nil || e.colderThan(best) {
			best = e
		}
	}
	return best
}

// weakenLocked makes e's value collectable, spilling a copy first when a spill
// tier is configured. Already-weak entries are left alone.
func (c *cache[K, V]) weakenLocked(e *entry[K, V]) {
	e.mu.Lock()
	if e.slot.isWeak {
		e.mu.Unlock()
		return
	}
	v := e.slot.strong.v
	e.slot.weaken()
	e.mu.Unlock()

	ks := c.keyString(e.key)
	if c.spillEnabled() {
		e.spilled = c.spillSetLocked(ks, e.stamp, v)
	}
	c.stats.weakened.Add(1)
	c.log.Debug("candidate weakened", Fields{"key": ks, "spilled": e.spilled})
	c.hooks.Weakened(ks)
}
