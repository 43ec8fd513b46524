package slab

// SlabSize is the size in bytes of one block obtained from a BlockSource.
// It must be a power of two; entry capacity is derived from it for element
// types that do not override Config.EntriesPerSlab.
const SlabSize = 4096

// BlockSource is the consumed block-allocator capability. Allocate reserves
// one SlabSize block and Release returns it; the four Count methods are
// instrumentation hooks invoked at the matching lifecycle points and carry no
// functional weight. A source must outlive every slab drawn from it, including
// slabs orphaned by a cache teardown.
//
// Implementations must be safe for concurrent use.
type BlockSource interface {
	// Allocate reserves one slab-sized block. On exhaustion it returns an
	// error, which the cache surfaces wrapped in ErrOutOfMemory.
	Allocate() error

	// Release returns a previously reserved block.
	Release()

	CountSlabAllocation()
	CountSlabFree()
	CountObjectAllocation()
	CountObjectFree()
}

// Config carries cache construction parameters. The zero value is usable.
type Config struct {
	// ReserveSlabs is the number of fully-empty slabs the cache retains
	// instead of releasing to the block source, amortizing repeated
	// allocation bursts. Zero retains none.
	ReserveSlabs int

	// EntriesPerSlab overrides the object capacity of each slab. Zero
	// derives the capacity from SlabSize, the control-block overhead, and
	// the entry size (minimum one entry per slab).
	EntriesPerSlab int
}

// DefaultConfig is used when New is given a nil config.
var DefaultConfig = Config{}
