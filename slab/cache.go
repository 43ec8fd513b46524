package slab

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/vsrinivas/slabcache/internal/block"
	"github.com/vsrinivas/slabcache/internal/list"
)

// Debug flag - set to true to enable verbose logging (compile-time toggle).
const debugSlab = false

// Runtime debug flag for allocation logging - controlled by SLAB_LOG_ALLOC env var.
var logAlloc = os.Getenv("SLAB_LOG_ALLOC") != ""

// defaultSource backs caches constructed without an explicit block source.
// It is unlimited; it exists so the instrumentation hooks always have a home.
var defaultSource BlockSource = block.NewCounting(0)

// Cache is a single-engine object cache for values of type T.
//
// Lock order: a slab's mutex is always acquired before mu when both are held.
// Taking mu alone is fine; taking mu and then a slab mutex is not.
type Cache[T any] struct {
	src      BlockSource
	capacity int // entries per slab
	reserve  int // empty slabs retained instead of released

	mu        sync.Mutex
	empty     list.List[*slab[T]]
	partial   list.List[*slab[T]]
	full      list.List[*slab[T]]
	slabCount int
	closed    bool
	stats     statCounters
}

// New builds a cache. A nil src selects a shared unlimited counting source;
// a nil cfg selects DefaultConfig.
func New[T any](src BlockSource, cfg *Config) *Cache[T] {
	if src == nil {
		src = defaultSource
	}
	if cfg == nil {
		cfg = &DefaultConfig
	}
	capacity := cfg.EntriesPerSlab
	if capacity <= 0 {
		capacity = deriveCapacity[T]()
	}
	return &Cache[T]{
		src:      src,
		capacity: capacity,
		reserve:  cfg.ReserveSlabs,
	}
}

// deriveCapacity computes how many entries fit in one SlabSize block after
// the control block, mirroring an in-place slab layout. Always at least one.
func deriveCapacity[T any]() int {
	var e entry[T]
	var s slab[T]
	overhead := int(unsafe.Sizeof(s))
	n := (SlabSize - overhead) / int(unsafe.Sizeof(e))
	if n < 1 {
		n = 1
	}
	return n
}

// EntriesPerSlab returns the object capacity of each slab.
func (c *Cache[T]) EntriesPerSlab() int { return c.capacity }

// Allocate hands out one object, running init on its zeroed storage before
// returning (init may be nil). It fails only when the block source cannot
// supply a new slab, or after Close; contention is absorbed by retrying.
func (c *Cache[T]) Allocate(init func(*T)) (*Ref[T], error) {
	for {
		s, err := c.pickSlab()
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.orphan.Load() || s.free.Empty() {
			// Lost a race: the cache began teardown, or another
			// allocation took the last entry. Try another slab.
			s.mu.Unlock()
			c.noteRetry()
			s.unref()
			continue
		}

		c.mu.Lock() // slab lock is held: slab-then-cache order
		if s.tag == tagNone {
			// The slab was evicted between discovery and now.
			c.mu.Unlock()
			s.mu.Unlock()
			c.noteRetry()
			s.unref()
			continue
		}
		idx := s.free.PopFront().Value
		c.relink(s)
		s.ref() // the new object's hold on its slab's memory
		c.stats.allocs++
		c.mu.Unlock()
		s.mu.Unlock()

		// Construct outside both locks; init may itself allocate or block.
		e := &s.entries[idx]
		e.live = true
		if init != nil {
			init(&e.val)
		}
		c.src.CountObjectAllocation()
		if debugSlab || logAlloc {
			fmt.Fprintf(os.Stderr, "slab: alloc entry=%d cap=%d\n", idx, c.capacity)
		}
		// Drop the discovery reference from pickSlab; the object's own
		// reference taken above keeps the slab alive from here on.
		s.unref()
		return &Ref[T]{slab: s, idx: idx}, nil
	}
}

// pickSlab returns a referenced slab that had a free entry when last seen
// under the cache lock: the front of the partial list when one exists
// (biasing reuse toward already-fragmented slabs), else the front of the
// empty list, else a freshly created slab.
func (c *Cache[T]) pickSlab() (*slab[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	var s *slab[T]
	switch {
	case !c.partial.Empty():
		s = c.partial.Front().Value
	case !c.empty.Empty():
		s = c.empty.Front().Value
	default:
		if err := c.src.Allocate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
		s = newSlab(c, c.capacity)
		c.empty.PushFront(&s.node)
		s.tag = tagEmpty
		c.slabCount++
		c.stats.slabsCreated++
		c.src.CountSlabAllocation()
	}
	s.ref() // keeps the slab alive once the cache lock is released
	return s, nil
}

// relink moves s onto the membership list matching its free-entry count.
// Both s.mu and c.mu must be held.
func (c *Cache[T]) relink(s *slab[T]) {
	var want listTag
	switch free := s.free.Len(); {
	case free == 0:
		want = tagFull
	case free == len(s.entries):
		want = tagEmpty
	default:
		want = tagPartial
	}
	if want == s.tag {
		return
	}
	c.listFor(s.tag).Remove(&s.node)
	c.listFor(want).PushFront(&s.node)
	s.tag = want
}

func (c *Cache[T]) listFor(t listTag) *list.List[*slab[T]] {
	switch t {
	case tagEmpty:
		return &c.empty
	case tagPartial:
		return &c.partial
	case tagFull:
		return &c.full
	}
	panic("slab: slab is not on any membership list")
}

func (c *Cache[T]) noteRetry() {
	c.mu.Lock()
	c.stats.retries++
	c.mu.Unlock()
}

// Close tears the cache down. Objects allocated from it may still be
// outstanding: every occupied slab is marked orphan, and frees of its objects
// complete through the orphan fast path without touching the cache. Close
// returns only after every free already past its orphan check has finished.
// Idempotent.
func (c *Cache[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true

	var orphans, idle []*slab[T]
	for n := c.full.PopFront(); n != nil; n = c.full.PopFront() {
		n.Value.orphan.Store(true)
		n.Value.tag = tagNone
		orphans = append(orphans, n.Value)
	}
	for n := c.partial.PopFront(); n != nil; n = c.partial.PopFront() {
		n.Value.orphan.Store(true)
		n.Value.tag = tagNone
		orphans = append(orphans, n.Value)
	}
	// Empty slabs have no live objects, so nothing will ever free into
	// them; they need no orphaning, only destruction.
	for n := c.empty.PopFront(); n != nil; n = c.empty.PopFront() {
		n.Value.tag = tagNone
		idle = append(idle, n.Value)
	}
	c.slabCount = 0
	c.mu.Unlock()

	// Rendezvous: a free that observed orphan == false is still inside its
	// slab's critical section on the way to the cache lock. Holding each
	// orphan's lock once guarantees all such frees have drained before the
	// cache is considered dead.
	for _, s := range orphans {
		s.mu.Lock()
		s.mu.Unlock() //nolint:staticcheck // the empty critical section is the rendezvous
	}
	for _, s := range orphans {
		s.unref() // the cache's link reference; objects hold the rest
	}
	for _, s := range idle {
		s.unref() // last reference: destroys immediately
	}
}
