// Package spill defines the byte store that receives copies of weakened values.
//
// When a cleanup candidate is weakened, softcache encodes its value and writes
// the frame here. If the GC later collects the in-heap value, the next access
// can restore it from these bytes instead of reporting a miss.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the []byte previously passed to Set (no added metadata, no re-encoding).
// softcache validates every frame it reads back and deletes anything it
// cannot decode.
//
// The keyspace "spill:<ns>:" is owned by softcache.
package spill

import "context"

// Store is a minimal in-process byte store. Must be safe for concurrent use.
// Stores may drop entries at any time (bounded capacity, admission policy);
// softcache treats a missing frame as a miss.
type Store interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. cost is the frame length; stores may ignore it.
	// Returns ok=false when the store refused the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64) (ok bool, err error)

	// Del removes a key (best-effort). Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
