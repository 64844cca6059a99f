package trace

import (
	"sync/atomic"
	"time"
)

// Clock supplies the monotonic cycle counter that events are stamped
// with, plus the conversion factor used to render samples as
// milliseconds. It is deliberately not a calendar clock: samples only
// need to be comparable within one run of the process.
type Clock interface {
	// Cycles returns the current cycle-counter sample. Implementations
	// must never return 0 once the clock is running; 0 is the empty-slot
	// discriminant.
	Cycles() uint64

	// Frequency returns the cycle rate in cycles per second.
	Frequency() uint64

	// Ticks returns a coarse tick count for the same instant.
	Ticks() int64
}

// tickInterval is the coarse tick granularity of WallClock.
const tickInterval = 10 * time.Millisecond

// WallClock derives cycles from the process-monotonic clock: one cycle
// per nanosecond since the clock was created.
type WallClock struct {
	base time.Time
}

// NewWallClock creates a clock whose counter starts just above zero.
func NewWallClock() *WallClock {
	return &WallClock{base: time.Now()}
}

// Cycles returns nanoseconds since the clock base, clamped to at least 1
// so a sample taken at the base instant still marks its slot valid.
func (c *WallClock) Cycles() uint64 {
	d := time.Since(c.base)
	if d <= 0 {
		return 1
	}
	return uint64(d)
}

// Frequency returns 1e9: WallClock counts nanoseconds.
func (c *WallClock) Frequency() uint64 {
	return uint64(time.Second / time.Nanosecond)
}

// Ticks returns the number of whole tick intervals since the clock base.
func (c *WallClock) Ticks() int64 {
	return int64(time.Since(c.base) / tickInterval)
}

// ManualClock is a Clock whose counter only moves when told to. It exists
// for deterministic rendering in tests and tooling.
type ManualClock struct {
	freq   uint64
	cycles atomic.Uint64
}

// NewManualClock creates a stopped clock with the given frequency in
// cycles per second.
func NewManualClock(freq uint64) *ManualClock {
	return &ManualClock{freq: freq}
}

// SetCycles positions the counter at v.
func (c *ManualClock) SetCycles(v uint64) {
	c.cycles.Store(v)
}

// Advance moves the counter forward by d cycles.
func (c *ManualClock) Advance(d uint64) {
	c.cycles.Add(d)
}

// Cycles returns the current counter position.
func (c *ManualClock) Cycles() uint64 {
	return c.cycles.Load()
}

// Frequency returns the configured cycle rate.
func (c *ManualClock) Frequency() uint64 {
	return c.freq
}

// Ticks returns the counter itself; manual tests rarely care about tick
// granularity.
func (c *ManualClock) Ticks() int64 {
	return int64(c.cycles.Load())
}
