package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Snapshot(t *testing.T) {
	clock := NewManualClock(1000)
	sub := New(Options{
		BootTableSize: 8,
		Clock:         clock,
		Host: &StaticHost{
			CPUID:  1,
			PID:    42,
			Name:   "init",
			Sample: Usage{CPUTime: 500000, InBlock: 3, OutBlock: 1},
		},
	})

	clock.SetCycles(100)
	require.NoError(t, sub.Record("alpha", ""))
	clock.SetCycles(200)
	require.NoError(t, sub.Record("beta", "mountd"))

	snap := sub.BootTable().Snapshot()
	assert.Equal(t, "boot", snap.Name)
	assert.Equal(t, PolicyDrop, snap.Policy)
	assert.Equal(t, 8, snap.Capacity)
	assert.Equal(t, 3, snap.Cursor)

	// The zero-cycle placeholder is not a live entry.
	require.Len(t, snap.Events, 2)
	assert.Equal(t, 1, snap.Events[0].Slot)
	assert.Equal(t, "alpha", snap.Events[0].Name)
	assert.Equal(t, "init", snap.Events[0].Actor)
	assert.Equal(t, uint64(100), snap.Events[0].Cycles)
	assert.Equal(t, int32(42), snap.Events[0].ActorID)
	assert.Equal(t, uint32(500000), snap.Events[0].CPUTime)
	assert.Equal(t, "beta", snap.Events[1].Name)
	assert.Equal(t, "mountd", snap.Events[1].Actor)
}

func TestTable_Snapshot_Unallocated(t *testing.T) {
	tbl := NewTable("run", 0, PolicyWrap)
	snap := tbl.Snapshot()
	assert.Equal(t, 0, snap.Capacity)
	assert.Empty(t, snap.Events)
}

func TestSubsystem_Snapshot_AllTables(t *testing.T) {
	clock := NewManualClock(1000)
	clock.SetCycles(1)
	sub := New(Options{
		BootTableSize:     8,
		RunTableSize:      8,
		ShutdownTableSize: 8,
		Clock:             clock,
		Host:              &StaticHost{Name: "init", PID: 1},
	})
	require.NoError(t, sub.Record("booting", ""))
	require.NoError(t, sub.RecordShutdown("halting", ""))

	snaps := sub.Snapshot()
	require.Len(t, snaps, 3)
	assert.Equal(t, "boot", snaps[0].Name)
	assert.Equal(t, "run", snaps[1].Name)
	assert.Equal(t, "shutdown", snaps[2].Name)
	assert.Len(t, snaps[0].Events, 1)
	assert.Empty(t, snaps[1].Events)
	assert.Len(t, snaps[2].Events, 1)
}
