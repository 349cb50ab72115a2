package softcache

// Hooks lightweight callbacks for eviction-engine events.
// Implementations MUST be cheap and non-blocking: the engine calls them while
// holding its table lock. Keys are rendered with Options.KeyString.
type Hooks interface {
	// The cleanup candidate was weakened and offered to the GC.
	Weakened(key string)

	// The candidate's value was collected and its entry removed.
	// spilled reports whether a copy was kept in the spill store.
	Reclaimed(key string, spilled bool)

	// The candidate was accessed before collection and is resident again.
	Restrengthened(key string)

	// An entry was dropped on access.
	// reason ∈ {"reclaimed_on_get", "reclaimed_on_contains", "spill_miss", "spill_corrupt", "spill_stale", "spill_decode"}
	SelfHeal(key, reason string)

	// A collected value was restored from the spill store.
	Recovered(key string)

	// A Put attempt failed and a forced cleanup runs before the next attempt.
	PutRetried(key string, attempt int, err error)

	// Put gave up.
	InsertFailed(key string, attempts int, err error)

	// A spill store or codec call failed.
	// op ∈ {"encode", "set", "get", "del", "close"}
	SpillError(op, key string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Weakened(string)                  {}
func (NopHooks) Reclaimed(string, bool)           {}
func (NopHooks) Restrengthened(string)            {}
func (NopHooks) SelfHeal(string, string)          {}
func (NopHooks) Recovered(string)                 {}
func (NopHooks) PutRetried(string, int, error)    {}
func (NopHooks) InsertFailed(string, int, error)  {}
func (NopHooks) SpillError(string, string, error) {}

