package softcache

import (
	"context"
	"errors"
	"sync"
	"testing"

	c "github.com/unkn0wn-root/softcache/codec"
	"github.com/unkn0wn-root/softcache/internal/wire"
	sp "github.com/unkn0wn-root/softcache/spill"
)

type memStore struct {
	mu      sync.Mutex
	m       map[string][]byte
	failSet error
	closed  bool
}

var _ sp.Store = (*memStore)(nil)

func newMemStore() *memStore { return &memStore{m: make(map[string][]byte)} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return false, s.failSet
	}
	s.m[key] = append([]byte(nil), value...)
	return true, nil
}

func (s *memStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *memStore) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[key]
	return ok
}

func (s *memStore) put(key string, b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = b
}

func newSpillCache(t *testing.T, store *memStore, hooks *recHooks) (Cache[string, page], *cache[string, page]) {
	t.Helper()
	cc := newTestCache(t, func(o *Options[string, page]) {
		o.Spill = store
		o.Codec = c.JSON[page]{}
		o.Hooks = hooks
	})
	return cc, mustImpl(t, cc)
}

// reclaimA weakens a, lets the GC take it and settles it, leaving a spilled copy.
func reclaimA(t *testing.T, cc Cache[string, page], impl *cache[string, page]) {
	t.Helper()
	mustPut(t, cc, "a", "b", "c")
	cc.Cleanup()
	collect(t, impl, "a")
	cc.Cleanup()

	impl.mu.RLock()
	_, indexed := impl.spilled["a"]
	_, resident := impl.table["a"]
	impl.mu.RUnlock()
	if !indexed || resident {
		t.Fatalf("a: indexed=%v resident=%v, want spilled only", indexed, resident)
	}
}

// ==============================
// Spill tier
// ==============================

func TestSpillWritesFramedCopyOnWeaken(t *testing.T) {
	store := newMemStore()
	cc, impl := newSpillCache(t, store, &recHooks{})
	mustPut(t, cc, "a", "b", "c")
	cc.Cleanup()

	raw, ok, _ := store.Get(context.Background(), "spill:softcache:a")
	if !ok {
		t.Fatalf("weakened value was not spilled")
	}
	f, err := wire.Decode(raw)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if f.Key != "a" || f.Stamp != impl.table["a"].stamp {
		t.Fatalf("frame header: key=%q stamp=%d", f.Key, f.Stamp)
	}
	if !impl.table["a"].spilled {
		t.Fatalf("entry not marked spilled")
	}
}

func TestSpillRecovery(t *testing.T) {
	for _, op := range []string{"get", "contains"} {
		t.Run(op, func(t *testing.T) {
			store := newMemStore()
			hooks := &recHooks{}
			cc, impl := newSpillCache(t, store, hooks)
			reclaimA(t, cc, impl)

			switch op {
			case "get":
				got, err := cc.Get("a")
				if err != nil || got.Title != "a" || string(got.Body) != "body of a" {
					t.Fatalf("Get recovered: got=%v err=%v", got, err)
				}
			case "contains":
				if !cc.ContainsKey("a") {
					t.Fatalf("ContainsKey recovered: false")
				}
			}

			if cc.Len() != 3 {
				t.Fatalf("recovered value must be resident again, Len=%d", cc.Len())
			}
			if store.has("spill:softcache:a") {
				t.Fatalf("spilled bytes must be dropped after recovery")
			}
			if st := cc.Stats(); st.Recovered != 1 {
				t.Fatalf("Recovered stat: %d", st.Recovered)
			}
			if len(hooks.recovered) != 1 {
				t.Fatalf("Recovered hook: %v", hooks.recovered)
			}
			if w := weakKeys(impl); len(w) != 0 {
				t.Fatalf("recovered entry must be strong, weak=%v", w)
			}
		})
	}
}

func TestSpillSelfHeal(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(t *testing.T, store *memStore, impl *cache[string, page])
		reason string
	}{
		{
			name: "missing bytes",
			mutate: func(_ *testing.T, store *memStore, _ *cache[string, page]) {
				_ = store.Del(context.Background(), "spill:softcache:a")
			},
			reason: "spill_miss",
		},
		{
			name: "corrupt frame",
			mutate: func(_ *testing.T, store *memStore, _ *cache[string, page]) {
				store.put("spill:softcache:a", []byte("garbage"))
			},
			reason: "spill_corrupt",
		},
		{
			name: "frame for another key",
			mutate: func(t *testing.T, store *memStore, impl *cache[string, page]) {
				b, err := wire.Encode(wire.Frame{Key: "zzz", Stamp: impl.spilled["a"], Payload: []byte(`{}`)})
				if err != nil {
					t.Fatalf("encode: %v", err)
				}
				store.put("spill:softcache:a", b)
			},
			reason: "spill_corrupt",
		},
		{
			name: "stale stamp",
			mutate: func(_ *testing.T, _ *memStore, impl *cache[string, page]) {
				impl.mu.Lock()
				impl.spilled["a"] += 100
				impl.mu.Unlock()
			},
			reason: "spill_stale",
		},
		{
			name: "undecodable payload",
			mutate: func(t *testing.T, store *memStore, impl *cache[string, page]) {
				b, err := wire.Encode(wire.Frame{Key: "a", Stamp: impl.spilled["a"], Payload: []byte("{not json")})
				if err != nil {
					t.Fatalf("encode: %v", err)
				}
				store.put("spill:softcache:a", b)
			},
			reason: "spill_decode",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			hooks := &recHooks{}
			cc, impl := newSpillCache(t, store, hooks)
			reclaimA(t, cc, impl)
			tc.mutate(t, store, impl)

			if _, err := cc.Get("a"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get: want ErrNotFound, got %v", err)
			}
			if len(hooks.selfHeal) != 1 || hooks.selfHeal[0] != "a:"+tc.reason {
				t.Fatalf("SelfHeal: %v want a:%s", hooks.selfHeal, tc.reason)
			}
			if store.has("spill:softcache:a") {
				t.Fatalf("bad spilled bytes must be deleted")
			}
			if _, indexed := impl.spilled["a"]; indexed {
				t.Fatalf("index entry must be dropped")
			}
			// second access is a plain miss
			if cc.ContainsKey("a") {
				t.Fatalf("ContainsKey after self-heal")
			}
			if len(hooks.selfHeal) != 1 {
				t.Fatalf("self-heal must happen once: %v", hooks.selfHeal)
			}
		})
	}
}

func TestSpillDroppedByPutAndRemove(t *testing.T) {
	t.Run("put", func(t *testing.T) {
		store := newMemStore()
		cc, impl := newSpillCache(t, store, &recHooks{})
		reclaimA(t, cc, impl)

		if err := cc.Put("a", pg("fresh")); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if store.has("spill:softcache:a") {
			t.Fatalf("Put must drop the old spilled copy")
		}
		got, err := cc.Get("a")
		if err != nil || got.Title != "fresh" {
			t.Fatalf("Get after Put: %v %v", got, err)
		}
		if cc.Stats().Recovered != 0 {
			t.Fatalf("nothing should have been recovered")
		}
	})

	t.Run("remove", func(t *testing.T) {
		store := newMemStore()
		cc, impl := newSpillCache(t, store, &recHooks{})
		reclaimA(t, cc, impl)

		cc.Remove("a")
		if store.has("spill:softcache:a") {
			t.Fatalf("Remove must drop the spilled copy")
		}
		if _, err := cc.Get("a"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get after Remove: %v", err)
		}
	})

	t.Run("remove weak candidate", func(t *testing.T) {
		store := newMemStore()
		cc, _ := newSpillCache(t, store, &recHooks{})
		mustPut(t, cc, "a", "b", "c")
		cc.Cleanup()

		cc.Remove("a")
		if store.has("spill:softcache:a") {
			t.Fatalf("Remove of a spilled entry must drop its bytes")
		}
	})
}

func TestSpillBytesDroppedWhenCandidateIsAccessed(t *testing.T) {
	store := newMemStore()
	hooks := &recHooks{}
	cc, impl := newSpillCache(t, store, hooks)
	hooks.pinning(impl)
	mustPut(t, cc, "a", "b", "c")

	cc.Cleanup()
	if !store.has("spill:softcache:a") {
		t.Fatalf("a not spilled")
	}
	if _, err := cc.Get("a"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	cc.Cleanup()

	if store.has("spill:softcache:a") {
		t.Fatalf("re-strengthened candidate's bytes must be dropped")
	}
	if impl.table["a"].spilled {
		t.Fatalf("spilled flag must be cleared")
	}
	if !store.has("spill:softcache:b") {
		t.Fatalf("next candidate b must be spilled")
	}
}

func TestSpillSetFailureStillWeakens(t *testing.T) {
	store := newMemStore()
	store.failSet = errors.New("store down")
	hooks := &recHooks{}
	cc, impl := newSpillCache(t, store, hooks)
	mustPut(t, cc, "a", "b", "c")

	cc.Cleanup()
	if w := weakKeys(impl); len(w) != 1 || w[0] != "a" {
		t.Fatalf("weak entries: %v", w)
	}
	if impl.table["a"].spilled {
		t.Fatalf("failed write must not mark the entry spilled")
	}
	if len(hooks.spillErrs) != 1 || hooks.spillErrs[0] != "set:a" {
		t.Fatalf("SpillError hook: %v", hooks.spillErrs)
	}

	collect(t, impl, "a")
	cc.Cleanup()
	if _, indexed := impl.spilled["a"]; indexed {
		t.Fatalf("unspilled entry must not be indexed")
	}
}

func TestSpillNamespaceAndKeyString(t *testing.T) {
	store := newMemStore()
	cc, err := New[int, page](Options[int, page]{
		EvictionThreshold: 1,
		ManualCleanup:     true,
		Clock:             newStepClock(),
		Spill:             store,
		Codec:             c.JSON[page]{},
		Namespace:         "pages",
		KeyString:         func(k int) string { return "id-" + string(rune('0'+k)) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer cc.Close(context.Background())

	_ = cc.Put(1, pg("one"))
	_ = cc.Put(2, pg("two"))
	cc.Cleanup()

	if !store.has("spill:pages:id-1") {
		t.Fatalf("expected namespaced key spill:pages:id-1, have %v", store.m)
	}
}

func TestCloseClosesStore(t *testing.T) {
	store := newMemStore()
	cc, impl := newSpillCache(t, store, &recHooks{})
	reclaimA(t, cc, impl)

	if err := cc.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !store.closed {
		t.Fatalf("store not closed")
	}
	if len(impl.spilled) != 0 {
		t.Fatalf("spill index must be cleared on Close")
	}
	if _, err := cc.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no recovery after Close: %v", err)
	}
}
