// Package slab implements a fixed-size object cache backed by slabs.
//
// # Overview
//
// A Cache[T] hands out individually typed objects carved from coarse
// slab-sized blocks. Each slab holds a fixed number of entries plus a control
// block; free entries are kept on a per-slab free list, and slabs themselves
// are partitioned into three membership lists by occupancy:
//
//   - empty:   every entry is free
//   - partial: some entries are live
//   - full:    no entry is free
//
// Allocation prefers partially used slabs so that empty slabs stay whole and
// can be trimmed back to the block source. A Config.ReserveSlabs threshold
// controls how many slabs the cache retains once a slab drains empty.
//
// # Handles
//
// Allocate returns a Ref[T] that locates the object's slab directly. Releasing
// the handle returns the entry to its slab's free list and updates the slab's
// list membership; the slab's memory is only destroyed once its last reference
// (one per live object, plus the cache's own link) is dropped.
//
// # Cache teardown
//
// A cache may be closed while objects allocated from it are still outstanding.
// Close marks every occupied slab as an orphan and rendezvouses on each slab's
// lock, guaranteeing that any free operation already past its orphan check
// completes first. Frees arriving after that observe the orphan flag and skip
// all cache-level bookkeeping, so an object may legally outlive the cache that
// produced it, by exactly long enough to be returned.
//
// # Per-processor caches
//
// PerCPU[T] composes one independent Cache[T] per processor and dispatches
// each allocation to the engine of the processor executing the call, trading
// memory for reduced lock contention. Objects freed after a migration still
// land on the slab that produced them; no cross-engine rebalancing occurs.
//
// # Errors
//
// Allocation fails only when the block source cannot supply a new slab
// (ErrOutOfMemory) or the cache is closed (ErrClosed). Contract violations -
// double release, release of a foreign or zero handle, guard-word mismatch -
// indicate caller bugs against already-corrupted invariants and panic instead
// of returning an error.
//
// # Thread safety
//
// All exported operations are safe for concurrent use. Whenever a slab lock
// and the cache lock are both held, the slab lock is acquired first; this
// single documented order is relied on by every path in the package.
package slab
