// Package softcache implements an in-process key/value cache that never evicts
// a value the program still uses. Housekeeping offers the least recently used
// entry to the garbage collector by holding it weakly; the entry is removed
// only after the GC has actually reclaimed it.
//
// Components:
//   - slot: holds a value strongly (resident) or weakly (reclaimable).
//   - entry: key, slot and last-access time.
//   - cache: the table plus the eviction engine (Get, Put, ContainsKey, Remove, Cleanup).
//   - housekeeping: one goroutine running Cleanup every CleanupInterval.
//
// Eviction is lazy. While the population is above EvictionThreshold, each pass
// weakens the coldest entry. At most one entry is weak at any time. Any access
// to that entry before the collector runs makes it resident again.
//
// Spill tier (optional):
//
//	Options.Spill  - byte store receiving a copy of each weakened value
//	                 (see spill/ristretto, spill/bigcache)
//	Options.Codec  - (de)serializes V <-> []byte (see codec)
//
// A reclaimed value with a spilled copy is restored on the next Get or
// ContainsKey. Copies are stamped per entry, so a copy left behind by an
// overwritten or removed key is never served.
//
// Usage:
//
//	c, err := softcache.New(softcache.Options[string, *Page]{
//	    EvictionThreshold: 5000,
//	})
//	if err != nil { ... }
//	defer c.Close(ctx)
//
//	_ = c.Put("/index", page)
//	p, err := c.Get("/index")
//	if errors.Is(err, softcache.ErrNotFound) { ... } // absent or reclaimed
package softcache
