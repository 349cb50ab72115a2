package softcache

import "sync/atomic"

// counters are updated lock-free on hot paths.
type counters struct {
	hits           atomic.Int64
	misses         atomic.Int64
	weakened       atomic.Int64
	reclaimed      atomic.Int64
	recovered      atomic.Int64
	insertFailures atomic.Int64
}

// Stats is a point-in-time copy of cache counters.
type Stats struct {
	Hits           int64 // Get / ContainsKey found a live value
	Misses         int64 // Get / ContainsKey found nothing
	Weakened       int64 // candidates offered to the GC
	Reclaimed      int64 // entries dropped because the GC collected their value
	Recovered      int64 // values restored from the spill store
	InsertFailures int64 // Put calls that exhausted their retries
}

// HitRate returns hits / (hits + misses), or 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:           c.hits.Load(),
		Misses:         c.misses.Load(),
		Weakened:       c.weakened.Load(),
		Reclaimed:      c.reclaimed.Load(),
		Recovered:      c.recovered.Load(),
		InsertFailures: c.insertFailures.Load(),
	}
}
