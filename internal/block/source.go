// Package block supplies slab-sized block accounting for the object cache.
//
// The cache engine never touches raw pages itself; it asks a block source for
// permission to bring one slab-sized block into existence and tells it when the
// block is gone. Counting is the standard source: it enforces an optional block
// budget and records the four lifecycle counters the engine reports into
// (slab/object allocation and free). Tests use the same type as a spy.
package block

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrBudget is returned by Allocate when the configured block budget is
// exhausted. The budget is pure accounting; no OS allocation is involved.
var ErrBudget = errors.New("block: budget exhausted")

// Counting is a block source with an optional budget and lifecycle counters.
// All methods are safe for concurrent use.
type Counting struct {
	budget int64 // maximum outstanding blocks, 0 = unlimited

	outstanding atomic.Int64
	slabAllocs  atomic.Int64
	slabFrees   atomic.Int64
	objAllocs   atomic.Int64
	objFrees    atomic.Int64
}

// NewCounting returns a source permitting at most budget outstanding blocks.
// A budget of 0 means unlimited.
func NewCounting(budget int) *Counting {
	return &Counting{budget: int64(budget)}
}

// Allocate reserves one slab-sized block. It fails with ErrBudget when the
// budget is exhausted, leaving the outstanding count unchanged.
func (s *Counting) Allocate() error {
	if s.budget > 0 && s.outstanding.Add(1) > s.budget {
		s.outstanding.Add(-1)
		return fmt.Errorf("%w (budget %d blocks)", ErrBudget, s.budget)
	}
	if s.budget == 0 {
		s.outstanding.Add(1)
	}
	return nil
}

// Release returns a previously allocated block.
func (s *Counting) Release() {
	if s.outstanding.Add(-1) < 0 {
		panic("block: release without a matching allocate")
	}
}

// CountSlabAllocation records one slab coming into existence.
func (s *Counting) CountSlabAllocation() { s.slabAllocs.Add(1) }

// CountSlabFree records one slab being destroyed.
func (s *Counting) CountSlabFree() { s.slabFrees.Add(1) }

// CountObjectAllocation records one object handed out.
func (s *Counting) CountObjectAllocation() { s.objAllocs.Add(1) }

// CountObjectFree records one object returned.
func (s *Counting) CountObjectFree() { s.objFrees.Add(1) }

// Outstanding returns the number of blocks currently allocated.
func (s *Counting) Outstanding() int { return int(s.outstanding.Load()) }

// SlabsAllocated returns the number of CountSlabAllocation calls.
func (s *Counting) SlabsAllocated() int { return int(s.slabAllocs.Load()) }

// SlabsFreed returns the number of CountSlabFree calls.
func (s *Counting) SlabsFreed() int { return int(s.slabFrees.Load()) }

// ObjectsAllocated returns the number of CountObjectAllocation calls.
func (s *Counting) ObjectsAllocated() int { return int(s.objAllocs.Load()) }

// ObjectsFreed returns the number of CountObjectFree calls.
func (s *Counting) ObjectsFreed() int { return int(s.objFrees.Load()) }
