package slab

// Ref is a handle to one live object. It carries an explicit back-reference
// to the slab that produced the object, which is how the free path recovers
// the owning slab (and through it, the owning cache) without any global
// lookup. The zero Ref is invalid.
//
// A Ref is owned by one goroutine at a time; Release hands the storage back
// and invalidates the handle.
type Ref[T any] struct {
	slab *slab[T]
	idx  int32
}

// Get returns the object. It panics on a released or zero handle.
func (r *Ref[T]) Get() *T {
	s := r.slab
	if s == nil {
		panic("slab: use of released or zero handle")
	}
	if s.guard != slabGuard {
		panic("slab: slab guard mismatch: handle does not belong to a live slab")
	}
	e := &s.entries[r.idx]
	if !e.live {
		panic("slab: use of freed object")
	}
	return &e.val
}

// Release destructs the object and returns its entry to the owning slab's
// free list. It never fails: misuse (double release, foreign handle) is a
// programming bug against already-broken invariants and panics.
func (r *Ref[T]) Release() {
	s := r.slab
	if s == nil {
		panic("slab: release of released or zero handle")
	}
	if s.guard != slabGuard {
		panic("slab: slab guard mismatch on release")
	}
	r.slab = nil

	s.mu.Lock()
	e := &s.entries[r.idx]
	if !e.live {
		s.mu.Unlock()
		panic("slab: double release")
	}
	// Convert the entry back to its free representation: destruct the
	// value, then relink the node.
	e.live = false
	var zero T
	e.val = zero

	if s.orphan.Load() {
		// The cache has begun or finished teardown. Return the entry
		// and skip every piece of cache bookkeeping; the cache pointer
		// must not be touched.
		s.free.PushFront(&e.node)
		s.mu.Unlock()
		s.src.CountObjectFree()
		s.unref()
		return
	}

	c := s.cache
	dropLink := false
	c.mu.Lock() // slab-then-cache order
	s.free.PushFront(&e.node)
	if s.orphan.Load() {
		// Teardown started between the two checks; the slab has
		// already been unlinked, so no list bookkeeping applies.
		c.mu.Unlock()
		s.mu.Unlock()
		s.src.CountObjectFree()
		s.unref()
		return
	}
	c.relink(s)
	if s.tag == tagEmpty && c.slabCount > c.reserve {
		// Evict rather than retain. This only removes list membership;
		// the memory goes when the last reference drops below.
		c.empty.Remove(&s.node)
		s.tag = tagNone
		c.slabCount--
		c.stats.slabsEvicted++
		dropLink = true
	}
	c.stats.frees++
	c.mu.Unlock()
	s.mu.Unlock()

	s.src.CountObjectFree()
	if dropLink {
		s.unref() // the cache's link reference
	}
	s.unref() // this object's reference; the last drop destroys the slab
}
