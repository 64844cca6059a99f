package trace

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Claim_SequentialOrder(t *testing.T) {
	tbl := NewTable("boot", 16, PolicyDrop)

	for i := 0; i < 10; i++ {
		idx, err := tbl.Claim()
		require.NoError(t, err)
		assert.Equal(t, i, idx, "claims should hand out increasing indices")
	}
	assert.Equal(t, 10, tbl.Cursor())
}

func TestTable_Claim_Uninitialized(t *testing.T) {
	tbl := NewTable("boot", 0, PolicyDrop)

	for i := 1; i <= 3; i++ {
		_, err := tbl.Claim()
		require.Error(t, err)
		assert.True(t, IsUninitialized(err))
		assert.True(t, IsDropped(err))
		assert.Equal(t, uint64(i), tbl.Stats().DropsEarly,
			"every early claim should count as an early drop")
	}
	assert.Equal(t, uint64(0), tbl.Stats().DropsFull)
}

func TestTable_Claim_DropPolicy_ExactCapacity(t *testing.T) {
	const capacity = 8
	tbl := NewTable("shutdown", capacity, PolicyDrop)

	// Exactly capacity claims succeed, each index distinct.
	for i := 0; i < capacity; i++ {
		idx, err := tbl.Claim()
		require.NoError(t, err, "claim %d should succeed", i)
		assert.Equal(t, i, idx)
	}

	// Every claim after that fails with FULL, one drop per attempt.
	for i := 1; i <= 5; i++ {
		_, err := tbl.Claim()
		require.Error(t, err)
		assert.True(t, IsFull(err))
		assert.True(t, IsDropped(err))
		assert.Equal(t, uint64(i), tbl.Stats().DropsFull)
	}

	// The failed attempts never advanced the claim counter.
	assert.Equal(t, uint64(capacity), tbl.Stats().Claims)
}

func TestTable_Claim_WrapPolicy(t *testing.T) {
	const capacity = 4
	tbl := NewTable("run", capacity, PolicyWrap)

	// capacity+k claims all succeed; indices wrap around.
	var indices []int
	for i := 0; i < capacity+6; i++ {
		idx, err := tbl.Claim()
		require.NoError(t, err)
		indices = append(indices, idx)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 0, 1, 2, 3, 0, 1}, indices)

	st := tbl.Stats()
	assert.Equal(t, uint64(0), st.DropsFull, "wrap tables never drop on overflow")
	assert.Equal(t, uint64(capacity+6), st.Claims)
	assert.Equal(t, (capacity+6)%capacity, st.Cursor)
}

func TestTable_Claim_Concurrent_Unique(t *testing.T) {
	const goroutines = 100
	const claimsPerGoroutine = 50
	tbl := NewTable("boot", goroutines*claimsPerGoroutine, PolicyDrop)

	var wg sync.WaitGroup
	indices := make(chan int, goroutines*claimsPerGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < claimsPerGoroutine; j++ {
				idx, err := tbl.Claim()
				assert.NoError(t, err)
				indices <- idx
			}
		}()
	}

	wg.Wait()
	close(indices)

	seen := make(map[int]bool)
	for idx := range indices {
		assert.False(t, seen[idx], "index %d claimed twice", idx)
		seen[idx] = true
	}
	assert.Len(t, seen, goroutines*claimsPerGoroutine)
}

func TestTable_Claim_Concurrent_DropAccounting(t *testing.T) {
	const capacity = 64
	const goroutines = 50
	const attemptsPerGoroutine = 10
	tbl := NewTable("shutdown", capacity, PolicyDrop)

	var wg sync.WaitGroup
	results := make(chan error, goroutines*attemptsPerGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < attemptsPerGoroutine; j++ {
				_, err := tbl.Claim()
				results <- err
			}
		}()
	}

	wg.Wait()
	close(results)

	var ok, full int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case IsFull(err):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, capacity, ok, "exactly capacity claims succeed")
	assert.Equal(t, goroutines*attemptsPerGoroutine-capacity, full)
	assert.Equal(t, uint64(full), tbl.Stats().DropsFull)
}

func TestTable_Stats(t *testing.T) {
	tbl := NewTable("run", 10, PolicyWrap)
	_, err := tbl.Claim()
	require.NoError(t, err)

	st := tbl.Stats()
	assert.Equal(t, "run", st.Name)
	assert.Equal(t, PolicyWrap, st.Policy)
	assert.Equal(t, 10, st.Capacity)
	assert.Equal(t, 1, st.Cursor)
	assert.Equal(t, uint64(1), st.Claims)
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "drop", PolicyDrop.String())
	assert.Equal(t, "wrap", PolicyWrap.String())
}
