package slab

import (
	"sync"
	"sync/atomic"

	"github.com/vsrinivas/slabcache/internal/list"
)

// slabGuard marks a live slab control block. It is zeroed when the slab is
// destroyed so stale handles trip the check instead of walking freed state.
const slabGuard uint64 = 0x51ab_a110_c047_0c7e

// listTag identifies which membership list a slab is on. Guarded by the
// owning cache's lock.
type listTag uint8

const (
	tagNone listTag = iota // unlinked: evicted or cache torn down
	tagEmpty
	tagPartial
	tagFull
)

// entry is one object-sized slot in a slab: either a node on the slab's free
// list or a live value. The live flag is the state tag; node links are cleared
// while the entry is live and the value is zeroed while it is free.
type entry[T any] struct {
	node list.Node[int32] // free-list linkage; Value is the entry's own index
	live bool
	val  T
}

// slab is one block's control block plus its entry arena.
//
// The cache pointer is valid only while the orphan flag is unset; an orphaned
// slab belongs to a cache that has begun or finished teardown and must never
// be dereferenced for new work. The reference count holds one count for the
// cache's list membership and one per live object, which is what lets an
// object outlive its cache: the object's count keeps the arena alive until
// the object is returned.
type slab[T any] struct {
	guard uint64
	cache *Cache[T]
	src   BlockSource

	mu     sync.Mutex   // guards free and the entries' state tags
	free   list.List[int32]
	orphan atomic.Bool
	refs   atomic.Int64

	node list.Node[*slab[T]] // membership in one of the cache's three lists
	tag  listTag

	entries []entry[T]
}

func newSlab[T any](c *Cache[T], capacity int) *slab[T] {
	s := &slab[T]{
		guard:   slabGuard,
		cache:   c,
		src:     c.src,
		entries: make([]entry[T], capacity),
	}
	s.node.Value = s
	for i := range s.entries {
		e := &s.entries[i]
		e.node.Value = int32(i)
		s.free.PushBack(&e.node)
	}
	s.refs.Store(1) // the cache's link reference
	return s
}

func (s *slab[T]) ref() { s.refs.Add(1) }

// unref drops one reference. The last drop destroys the slab and returns its
// block to the source. Never called while holding the slab or cache lock:
// destruction invokes the source, which may block or panic on its own.
func (s *slab[T]) unref() {
	switch n := s.refs.Add(-1); {
	case n == 0:
		s.destroy()
	case n < 0:
		panic("slab: slab reference count underflow")
	}
}

func (s *slab[T]) destroy() {
	s.guard = 0
	s.entries = nil
	s.src.Release()
	s.src.CountSlabFree()
}
