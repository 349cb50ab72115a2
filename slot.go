package softcache

import "weak"

// cell boxes a cached value on the heap so it can be referenced weakly.
// The pointer field keeps cells out of the tiny allocator; weak pointers into
// tiny blocks are only cleared when every object sharing the block dies.
type cell[V any] struct {
	v V
	_ *byte
}

// slot holds a value either strongly (resident) or weakly (reclaimable by the GC).
// At most one of strong / weak is populated. Not safe for concurrent use; the
// owning entry serializes access.
type slot[V any] struct {
	strong *cell[V]
	weak   weak.Pointer[cell[V]]
	isWeak bool
}

func newSlot[V any](v V) slot[V] {
	return slot[V]{strong: &cell[V]{v: v}}
}

// content returns the value if it is still reachable. Observing a live weak
// value promotes it back to strong. A collected value clears the handle so later
// calls return immediately.
func (s *slot[V]) content() (V, bool) {
	if s.strong != nil {
		return s.strong.v, true
	}
	if s.isWeak && s.strengthen() {
		return s.strong.v, true
	}
	s.weak = weak.Pointer[cell[V]]{}
	var zero V
	return zero, false
}

// weaken releases the strong hold. No-op when the slot is already weak.
func (s *slot[V]) weaken() {
	if s.strong == nil {
		return
	}
	s.weak = weak.Make(s.strong)
	s.strong = nil
	s.isWeak = true
}

// strengthen re-acquires a strong hold on a weak value that has not been collected.
func (s *slot[V]) strengthen() bool {
	c := s.weak.Value()
	if c == nil {
		return false
	}
	s.strong = c
	s.weak = weak.Pointer[cell[V]]{}
	s.isWeak = false
	return true
}

// alive reports whether the value is still reachable, without promoting it.
func (s *slot[V]) alive() bool {
	return s.strong != nil || s.weak.Value() != nil
}
