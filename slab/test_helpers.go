package slab

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vsrinivas/slabcache/internal/block"
)

// newTestCache builds a cache over a fresh counting source and registers
// teardown. budget 0 means unlimited blocks.
func newTestCache[T any](t testing.TB, budget, reserve, capacity int) (*Cache[T], *block.Counting) {
	t.Helper()

	src := block.NewCounting(budget)
	c := New[T](src, &Config{ReserveSlabs: reserve, EntriesPerSlab: capacity})
	t.Cleanup(c.Close)
	return c, src
}

// assertInvariants checks list-membership exclusivity and occupancy agreement.
// Valid only at a quiescent point: no allocation or release in flight.
func assertInvariants[T any](t testing.TB, c *Cache[T]) {
	t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()

	linked := 0
	for n := c.empty.Front(); n != nil; n = n.Next() {
		linked++
		s := n.Value
		require.Equal(t, tagEmpty, s.tag, "slab on empty list carries wrong tag")
		require.Equal(t, c.capacity, s.free.Len(),
			"slab on empty list must have every entry free")
	}
	for n := c.partial.Front(); n != nil; n = n.Next() {
		linked++
		s := n.Value
		require.Equal(t, tagPartial, s.tag, "slab on partial list carries wrong tag")
		require.Greater(t, s.free.Len(), 0,
			"slab on partial list must have a free entry")
		require.Less(t, s.free.Len(), c.capacity,
			"slab on partial list must have a live entry")
	}
	for n := c.full.Front(); n != nil; n = n.Next() {
		linked++
		s := n.Value
		require.Equal(t, tagFull, s.tag, "slab on full list carries wrong tag")
		require.Equal(t, 0, s.free.Len(), "slab on full list must have no free entry")
	}
	require.Equal(t, c.slabCount, linked, "slab count disagrees with list membership")
}

// listLens returns the lengths of the empty, partial, and full lists.
func listLens[T any](c *Cache[T]) (empty, partial, full int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.empty.Len(), c.partial.Len(), c.full.Len()
}

// releaseAll releases every handle in refs.
func releaseAll[T any](refs []*Ref[T]) {
	for _, r := range refs {
		r.Release()
	}
}
