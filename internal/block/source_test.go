package block

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_Counting_Unlimited: a zero budget never refuses.
func Test_Counting_Unlimited(t *testing.T) {
	s := NewCounting(0)
	for j := 0; j < 100; j++ {
		require.NoError(t, s.Allocate())
	}
	assert.Equal(t, 100, s.Outstanding())
	for j := 0; j < 100; j++ {
		s.Release()
	}
	assert.Equal(t, 0, s.Outstanding())
}

// Test_Counting_BudgetExhaustion: allocations beyond the budget fail and do
// not disturb the outstanding count.
func Test_Counting_BudgetExhaustion(t *testing.T) {
	s := NewCounting(2)
	require.NoError(t, s.Allocate())
	require.NoError(t, s.Allocate())

	err := s.Allocate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBudget)
	assert.Equal(t, 2, s.Outstanding())

	// Releasing makes room again.
	s.Release()
	assert.NoError(t, s.Allocate())
}

// Test_Counting_LifecycleCounters: the four hooks record independently of the
// budget machinery.
func Test_Counting_LifecycleCounters(t *testing.T) {
	s := NewCounting(0)
	s.CountSlabAllocation()
	s.CountSlabAllocation()
	s.CountSlabFree()
	s.CountObjectAllocation()
	s.CountObjectFree()

	assert.Equal(t, 2, s.SlabsAllocated())
	assert.Equal(t, 1, s.SlabsFreed())
	assert.Equal(t, 1, s.ObjectsAllocated())
	assert.Equal(t, 1, s.ObjectsFreed())
}

// Test_Counting_ReleaseUnderflowPanics: a release without a matching
// allocate indicates corrupted accounting.
func Test_Counting_ReleaseUnderflowPanics(t *testing.T) {
	s := NewCounting(0)
	assert.Panics(t, func() { s.Release() })
}

// Test_Counting_ConcurrentBudget: the budget holds under concurrency; run
// with -race.
func Test_Counting_ConcurrentBudget(t *testing.T) {
	const budget, workers = 8, 32
	s := NewCounting(budget)

	var wg sync.WaitGroup
	granted := make(chan struct{}, workers)
	for j := 0; j < workers; j++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Allocate() == nil {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	assert.Equal(t, budget, len(granted))
	assert.Equal(t, budget, s.Outstanding())
}
