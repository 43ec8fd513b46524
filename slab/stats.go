package slab

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// statCounters holds the engine's internal counters, mutated under the cache
// lock. The orphan free path deliberately bypasses them: once a slab is
// orphaned its cache may already be dead.
type statCounters struct {
	allocs       int64
	frees        int64
	retries      int64 // allocation loop restarts after a lost race
	slabsCreated int64
	slabsEvicted int64
}

// Stats is a point-in-time snapshot of one engine's counters, or a sum over
// a PerCPU cache's engines.
type Stats struct {
	Allocations  int64 // objects handed out
	Frees        int64 // objects returned through cache bookkeeping
	Live         int64 // Allocations - Frees at snapshot time
	Slabs        int   // slabs currently linked to the cache
	SlabsCreated int64
	SlabsEvicted int64
	Retries      int64
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Allocations:  c.stats.allocs,
		Frees:        c.stats.frees,
		Live:         c.stats.allocs - c.stats.frees,
		Slabs:        c.slabCount,
		SlabsCreated: c.stats.slabsCreated,
		SlabsEvicted: c.stats.slabsEvicted,
		Retries:      c.stats.retries,
	}
}

func (s Stats) add(o Stats) Stats {
	return Stats{
		Allocations:  s.Allocations + o.Allocations,
		Frees:        s.Frees + o.Frees,
		Live:         s.Live + o.Live,
		Slabs:        s.Slabs + o.Slabs,
		SlabsCreated: s.SlabsCreated + o.SlabsCreated,
		SlabsEvicted: s.SlabsEvicted + o.SlabsEvicted,
		Retries:      s.Retries + o.Retries,
	}
}

// String renders the snapshot with grouped digits for log lines and reports.
func (s Stats) String() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("allocs=%d frees=%d live=%d slabs=%d created=%d evicted=%d retries=%d",
		s.Allocations, s.Frees, s.Live, s.Slabs, s.SlabsCreated, s.SlabsEvicted, s.Retries)
}
