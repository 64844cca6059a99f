package trace

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// goldenSubsystem records a small fixed boot sequence against a manual
// clock running at 1000 cycles/sec, so milliseconds equal cycles.
func goldenSubsystem(t *testing.T) (*Subsystem, *ManualClock) {
	t.Helper()
	clock := NewManualClock(1000)
	sub := New(Options{
		BootTableSize:     8,
		RunTableSize:      8,
		ShutdownTableSize: 8,
		Clock:             clock,
		Host: &StaticHost{
			CPUID:  3,
			PID:    77,
			Name:   "kernel",
			Sample: Usage{CPUTime: 1230000, InBlock: 5, OutBlock: 2},
		},
	})
	return sub, clock
}

func TestRender_Golden_BootUnfiltered(t *testing.T) {
	sub, clock := goldenSubsystem(t)

	clock.SetCycles(10)
	require.NoError(t, sub.Record("mounting root", ""))
	clock.SetCycles(250)
	require.NoError(t, sub.Record("clock calibrated", "hw"))
	clock.SetCycles(1000)
	require.NoError(t, sub.Record("userland handoff", "init"))

	var sink BufferSink
	Render(sub.BootTable(), clock, &sink, 0)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "boot_unfiltered", []byte(sink.String()))
}

func TestRender_Golden_ThresholdLandmark(t *testing.T) {
	clock := NewManualClock(1000000) // microsecond cycles
	sub := New(Options{
		BootTableSize: 8,
		Clock:         clock,
		Host: &StaticHost{
			CPUID:  3,
			PID:    77,
			Name:   "kernel",
			Sample: Usage{CPUTime: 1230000, InBlock: 5, OutBlock: 2},
		},
	})

	clock.SetCycles(500) // renders as 0 ms
	require.NoError(t, sub.Record("power on", ""))
	clock.SetCycles(5000) // 5 ms
	require.NoError(t, sub.Record("clocks stable", ""))
	clock.SetCycles(3000000) // 3000 ms
	require.NoError(t, sub.Record("fsck complete", ""))
	clock.SetCycles(3010000) // 3010 ms
	require.NoError(t, sub.Record("login prompt", ""))

	var sink BufferSink
	Render(sub.BootTable(), clock, &sink, 500)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "threshold_landmark", []byte(sink.String()))
}

// The filter contract, spelled out: with entries at 0, 5, 3000 and 3010 ms
// and a 500 ms threshold, the 5 ms entry appears as the landmark before
// the big gap, the 3000 ms entry appears on its own delta, the 3010 ms
// entry is filtered out, and the trailer spans first to last seen.
func TestRender_ThresholdFiltering(t *testing.T) {
	clock := NewManualClock(1000000)
	sub := New(Options{
		BootTableSize: 8,
		Clock:         clock,
		Host:          &StaticHost{Name: "kernel", PID: 1},
	})

	for _, e := range []struct {
		cycles uint64
		name   string
	}{
		{500, "power on"},
		{5000, "clocks stable"},
		{3000000, "fsck complete"},
		{3010000, "login prompt"},
	} {
		clock.SetCycles(e.cycles)
		require.NoError(t, sub.Record(e.name, ""))
	}

	var sink BufferSink
	Render(sub.BootTable(), clock, &sink, 500)
	out := sink.String()

	assert.NotContains(t, out, "power on", "0 ms entry below threshold and not a landmark")
	assert.Contains(t, out, "clocks stable", "landmark before the large gap")
	assert.Contains(t, out, "fsck complete", "delta 2995 exceeds threshold")
	assert.NotContains(t, out, "login prompt", "delta 10 does not exceed threshold")
	assert.Contains(t, out, "Total measured time: 3010 msecs")

	// The landmark precedes the entry it gives context for.
	assert.Less(t, strings.Index(out, "clocks stable"), strings.Index(out, "fsck complete"))
}

func TestRender_ZeroThresholdRendersEverything(t *testing.T) {
	sub, clock := goldenSubsystem(t)
	for i := uint64(1); i <= 5; i++ {
		clock.SetCycles(i * 100)
		require.NoError(t, sub.Record(fmt.Sprintf("step %d", i), ""))
	}

	var sink BufferSink
	Render(sub.BootTable(), clock, &sink, 0)
	out := sink.String()
	for i := 1; i <= 5; i++ {
		assert.Contains(t, out, fmt.Sprintf("step %d", i))
	}
	assert.Contains(t, out, "Total measured time: 400 msecs")
}

func TestRender_Idempotent(t *testing.T) {
	sub, clock := goldenSubsystem(t)
	clock.SetCycles(100)
	require.NoError(t, sub.Record("one", ""))
	clock.SetCycles(900)
	require.NoError(t, sub.Record("two", ""))

	var a, b BufferSink
	Render(sub.BootTable(), clock, &a, 0)
	Render(sub.BootTable(), clock, &b, 0)
	assert.Equal(t, a.String(), b.String(),
		"rendering with no intervening writes is byte-identical")
}

func TestRender_EmptyTable(t *testing.T) {
	clock := NewManualClock(1000)
	tbl := NewTable("run", 8, PolicyWrap)

	var sink BufferSink
	Render(tbl, clock, &sink, 0)
	out := sink.String()
	assert.Contains(t, out, "CPU")
	assert.Contains(t, out, "OBlks")
	assert.Contains(t, out, "Total measured time: 0 msecs")
	assert.Equal(t, 4, strings.Count(out, "\n"),
		"two leading blank lines, the header, and the trailer")
}

func TestRender_UnallocatedTable(t *testing.T) {
	clock := NewManualClock(1000)
	tbl := NewTable("run", 0, PolicyWrap)

	var sink BufferSink
	Render(tbl, clock, &sink, 0)
	assert.Contains(t, sink.String(), "Total measured time: 0 msecs")
}

func TestRender_WrapTableShowsOnlyLiveEntries(t *testing.T) {
	clock := NewManualClock(1000)
	sub := New(Options{
		BootTableSize: 8,
		RunTableSize:  4,
		Clock:         clock,
		Host:          &StaticHost{Name: "init", PID: 1},
	})

	for i := uint64(1); i <= 6; i++ {
		clock.SetCycles(i * 10)
		require.NoError(t, sub.RecordRun(fmt.Sprintf("cycle %d", i), ""))
	}

	var sink BufferSink
	Render(sub.RunTable(), clock, &sink, 0)
	out := sink.String()

	// Capacity 4, 6 records: the oldest two were overwritten.
	assert.NotContains(t, out, "cycle 1")
	assert.NotContains(t, out, "cycle 2")
	for i := 3; i <= 6; i++ {
		assert.Contains(t, out, fmt.Sprintf("cycle %d", i))
	}
	// Oldest surviving entry renders first.
	assert.Less(t, strings.Index(out, "cycle 3"), strings.Index(out, "cycle 6"))
}

func TestRender_SkipsEmptySlots(t *testing.T) {
	sub, clock := goldenSubsystem(t)
	clock.SetCycles(50)
	require.NoError(t, sub.Record("only entry", ""))

	var sink BufferSink
	Render(sub.BootTable(), clock, &sink, 0)
	out := sink.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var rows int
	for _, l := range lines {
		if strings.Contains(l, "only entry") {
			rows++
		}
	}
	assert.Equal(t, 1, rows)
	assert.NotContains(t, out, "initial event",
		"the zero-cycle placeholder never renders")
}

func TestRender_TimeGoingBackwardClampsDelta(t *testing.T) {
	// Wrap table: newest entries can carry smaller samples than the
	// slots rendered before them if the clock was repositioned; the
	// delta clamps to 0 rather than underflowing.
	clock := NewManualClock(1000)
	tbl := NewTable("run", 4, PolicyWrap)
	sub := &Subsystem{rt: tbl, clock: clock, host: &StaticHost{Name: "x", PID: 1}}
	sub.bootDone.Store(true)

	clock.SetCycles(500)
	require.NoError(t, sub.Record("late sample", ""))
	clock.SetCycles(100)
	require.NoError(t, sub.Record("early sample", ""))

	var sink BufferSink
	Render(tbl, clock, &sink, 0)
	out := sink.String()
	assert.Contains(t, out, "early sample")
	// last seen (100) is below first seen (500): trailer clamps to 0.
	assert.Contains(t, out, "Total measured time: 0 msecs")
}

func TestRender_ConcurrentWritersTolerated(t *testing.T) {
	clock := NewManualClock(1000)
	clock.SetCycles(1)
	sub := New(Options{
		RunTableSize: 64,
		Clock:        clock,
		Host:         &StaticHost{Name: "init", PID: 1},
	})
	require.NoError(t, sub.RecordRun("start", ""))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint64(2); ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			clock.SetCycles(i)
			_ = sub.Record("churn", "")
		}
	}()

	// Readers never block writers and never crash on part-written slots.
	for i := 0; i < 50; i++ {
		var sink BufferSink
		Render(sub.RunTable(), clock, &sink, 0)
		assert.Contains(t, sink.String(), "Total measured time:")
	}
	close(stop)
	wg.Wait()
}
