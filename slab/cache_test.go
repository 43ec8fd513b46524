package slab

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsrinivas/slabcache/internal/block"
)

// Test_Cache_AllocateAndRelease covers the simplest round trip.
func Test_Cache_AllocateAndRelease(t *testing.T) {
	c, src := newTestCache[int](t, 0, 0, 4)

	ref, err := c.Allocate(func(v *int) { *v = 42 })
	require.NoError(t, err)
	require.Equal(t, 42, *ref.Get())

	st := c.Stats()
	assert.Equal(t, int64(1), st.Allocations)
	assert.Equal(t, int64(1), st.Live)
	assert.Equal(t, 1, st.Slabs)
	assert.Equal(t, 1, src.ObjectsAllocated())
	assertInvariants(t, c)

	ref.Release()
	st = c.Stats()
	assert.Equal(t, int64(1), st.Frees)
	assert.Equal(t, int64(0), st.Live)
	assert.Equal(t, 1, src.ObjectsFreed())
	assertInvariants(t, c)
}

// Test_Cache_NilInitLeavesZeroValue verifies construction without an init
// function hands out zeroed storage.
func Test_Cache_NilInitLeavesZeroValue(t *testing.T) {
	c, _ := newTestCache[int](t, 0, 0, 2)

	ref, err := c.Allocate(func(v *int) { *v = 7 })
	require.NoError(t, err)
	ref.Release()

	// The entry is recycled; its previous value must not leak through.
	ref, err = c.Allocate(nil)
	require.NoError(t, err)
	defer ref.Release()
	assert.Equal(t, 0, *ref.Get())
}

// Test_Cache_PartialPreferred verifies allocations reuse the fragmented slab
// before touching an empty one.
func Test_Cache_PartialPreferred(t *testing.T) {
	c, _ := newTestCache[int](t, 0, 2, 4)

	// Two slabs: one partial, one empty.
	a, err := c.Allocate(nil)
	require.NoError(t, err)
	var fill []*Ref[int]
	for j := 0; j < 3; j++ {
		r, err := c.Allocate(nil)
		require.NoError(t, err)
		fill = append(fill, r)
	}
	b, err := c.Allocate(nil) // second slab
	require.NoError(t, err)
	releaseAll(fill)
	a.Release() // first slab back to partial (1 live on second)

	empty, partial, full := listLens(c)
	require.Equal(t, 1, empty)
	require.Equal(t, 1, partial)
	require.Equal(t, 0, full)

	r, err := c.Allocate(nil)
	require.NoError(t, err)
	assert.Same(t, b.slab, r.slab, "allocation must come from the partial slab")
	assert.Equal(t, 2, c.Stats().Slabs, "no third slab may appear")

	r.Release()
	b.Release()
	assertInvariants(t, c)
}

// Test_Cache_CapacityConservation: N slabs of capacity C hold at most N*C
// objects; the next allocation needs a new slab or fails.
func Test_Cache_CapacityConservation(t *testing.T) {
	const budget, capacity = 2, 4
	c, src := newTestCache[int](t, budget, 0, capacity)

	var refs []*Ref[int]
	for j := 0; j < budget*capacity; j++ {
		r, err := c.Allocate(nil)
		require.NoError(t, err)
		refs = append(refs, r)
	}
	assert.Equal(t, budget, c.Stats().Slabs)
	assertInvariants(t, c)

	_, err := c.Allocate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, budget, src.Outstanding(), "failed allocation must not leak a slab")

	// Freeing one object makes room again without growing.
	refs[0].Release()
	r, err := c.Allocate(nil)
	require.NoError(t, err)
	refs[0] = r

	releaseAll(refs)
	assertInvariants(t, c)
}

// Test_Cache_ScenarioTwoSlabs is the reserve=0, capacity=4 walk-through:
// five objects occupy two slabs (4/4 and 1/4); draining the first slab
// evicts and destroys it.
func Test_Cache_ScenarioTwoSlabs(t *testing.T) {
	c, src := newTestCache[int](t, 0, 0, 4)

	var refs []*Ref[int]
	for i := 0; i < 5; i++ {
		r, err := c.Allocate(func(v *int) { *v = i })
		require.NoError(t, err)
		refs = append(refs, r)
	}

	require.Equal(t, 2, c.Stats().Slabs)
	empty, partial, full := listLens(c)
	assert.Equal(t, 0, empty)
	assert.Equal(t, 1, partial, "fifth object lives on its own slab")
	assert.Equal(t, 1, full, "first four objects fill one slab")
	assertInvariants(t, c)

	// The first four share a slab; the fifth does not.
	first := refs[0].slab
	for _, r := range refs[:4] {
		require.Same(t, first, r.slab)
	}
	require.NotSame(t, first, refs[4].slab)

	// Drain the full slab: with no reserve it is evicted, and its last
	// reference drops with the final release, destroying it.
	releaseAll(refs[:4])
	assert.Equal(t, 1, c.Stats().Slabs)
	assert.Equal(t, int64(1), c.Stats().SlabsEvicted)
	assert.Equal(t, 1, src.SlabsFreed())
	assert.Equal(t, 1, src.Outstanding())
	assertInvariants(t, c)

	refs[4].Release()
	assert.Equal(t, 0, src.Outstanding())
	assert.Equal(t, 2, src.SlabsFreed())
}

// Test_Cache_ReserveRetainsEmptySlab verifies empty slabs below the
// reservation threshold are kept for reuse instead of released.
func Test_Cache_ReserveRetainsEmptySlab(t *testing.T) {
	c, src := newTestCache[int](t, 0, 1, 2)

	a, err := c.Allocate(nil)
	require.NoError(t, err)
	b, err := c.Allocate(nil)
	require.NoError(t, err)
	a.Release()
	b.Release()

	assert.Equal(t, 1, c.Stats().Slabs, "slab within reserve must be retained")
	assert.Equal(t, 0, src.SlabsFreed())
	empty, _, _ := listLens(c)
	assert.Equal(t, 1, empty)

	// Reuse must not consult the block source again.
	r, err := c.Allocate(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, src.SlabsAllocated())
	r.Release()
	assertInvariants(t, c)
}

// Test_Cache_AllocateAfterClose verifies the closed-cache failure mode.
func Test_Cache_AllocateAfterClose(t *testing.T) {
	c, _ := newTestCache[int](t, 0, 0, 2)
	c.Close()

	_, err := c.Allocate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClosed)
}

// Test_Cache_DerivedCapacity exercises the SlabSize-based capacity
// computation for small and oversized element types.
func Test_Cache_DerivedCapacity(t *testing.T) {
	small := New[byte](nil, nil)
	assert.Greater(t, small.EntriesPerSlab(), 1)
	small.Close()

	type oversized [2 * SlabSize]byte
	big := New[oversized](nil, nil)
	assert.Equal(t, 1, big.EntriesPerSlab(),
		"elements larger than a slab still get one entry")
	big.Close()
}

// Test_Cache_ConcurrentChurn hammers one engine from many goroutines. Run
// with -race; the interesting failures are ordering bugs, not assertions.
func Test_Cache_ConcurrentChurn(t *testing.T) {
	const workers, rounds = 8, 200
	c, src := newTestCache[int](t, 0, 1, 4)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			var held []*Ref[int]
			for i := 0; i < rounds; i++ {
				r, err := c.Allocate(func(v *int) { *v = w })
				if err != nil {
					t.Error(err)
					return
				}
				held = append(held, r)
				if i%3 == 0 {
					n := len(held) - 1
					held[n].Release()
					held = held[:n]
				}
			}
			releaseAll(held)
		}()
	}
	wg.Wait()

	st := c.Stats()
	assert.Equal(t, st.Allocations, st.Frees)
	assert.Equal(t, int64(0), st.Live)
	assert.Equal(t, workers*rounds, src.ObjectsAllocated())
	assert.Equal(t, src.ObjectsAllocated(), src.ObjectsFreed())
	assertInvariants(t, c)
}

// Test_Cache_OutOfMemoryWrapsSourceError checks callers can still reach the
// source's own sentinel through the wrap.
func Test_Cache_OutOfMemoryWrapsSourceError(t *testing.T) {
	c, _ := newTestCache[int](t, 1, 0, 1)

	a, err := c.Allocate(nil)
	require.NoError(t, err)
	defer a.Release()

	_, err = c.Allocate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.ErrorIs(t, err, block.ErrBudget)
}
