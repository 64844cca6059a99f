package trace

import (
	"fmt"
	"io"
	"sync/atomic"
)

// Default table capacities, in entries. The boot table is generously
// sized because early boot produces a burst of events before anyone can
// resize anything; the run table wraps, so it only needs to hold the
// recent past.
const (
	DefaultBootTableSize     = 3000
	DefaultRunTableSize      = 2000
	DefaultShutdownTableSize = 1000

	// MinTableSize is the floor applied to configured capacities.
	MinTableSize = 500
)

// Phase is the lifecycle stage that routes ordinary events to a table.
// Transitions are one-way: boot to run, and any phase to shutdown.
type Phase int

const (
	PhaseBoot Phase = iota
	PhaseRun
	PhaseShutdown
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseRun:
		return "run"
	case PhaseShutdown:
		return "shutdown"
	default:
		return "boot"
	}
}

// Subsystem owns the three trace tables and the phase flags. It replaces
// what would otherwise be process-wide mutable state with a single
// context object: construct one at process start, share it, never tear
// it down before exit.
type Subsystem struct {
	bt *Table // boot events, drop policy
	rt *Table // run events, wrap policy
	st *Table // shutdown events, drop policy

	// bootDone and shutdown are monotonic: set once, never reset.
	// Concurrent racing stores of true are harmless.
	bootDone atomic.Bool
	shutdown atomic.Bool

	clock Clock
	host  HostSource

	// debug, when non-nil, receives one line per record call.
	debug io.Writer
}

// Options configures a Subsystem. Zero-value fields get defaults.
type Options struct {
	BootTableSize     int
	RunTableSize      int
	ShutdownTableSize int

	Clock Clock      // defaults to NewWallClock()
	Host  HostSource // defaults to NewProcessHost()

	// Debug enables record-call logging to the given writer.
	Debug io.Writer
}

// New allocates all three tables and seeds the boot table with the
// conventional placeholder entry in slot 0. The placeholder carries a
// zero cycle sample, so it is invisible to Render but reserves the slot
// for machine-dependent boot times.
func New(opts Options) *Subsystem {
	if opts.BootTableSize <= 0 {
		opts.BootTableSize = DefaultBootTableSize
	}
	if opts.RunTableSize <= 0 {
		opts.RunTableSize = DefaultRunTableSize
	}
	if opts.ShutdownTableSize <= 0 {
		opts.ShutdownTableSize = DefaultShutdownTableSize
	}
	if opts.Clock == nil {
		opts.Clock = NewWallClock()
	}
	if opts.Host == nil {
		opts.Host = NewProcessHost()
	}

	s := &Subsystem{
		bt:    NewTable("boot", opts.BootTableSize, PolicyDrop),
		rt:    NewTable("run", opts.RunTableSize, PolicyWrap),
		st:    NewTable("shutdown", opts.ShutdownTableSize, PolicyDrop),
		clock: opts.Clock,
		host:  opts.Host,
		debug: opts.Debug,
	}

	ev := s.bt.slot(0)
	ev.CPU = s.host.CPU()
	putLabel(ev.Actor[:], "boottime")
	putLabel(ev.Name[:], "initial event")
	s.bt.claims.Store(1)

	return s
}

// BootTable returns the boot-phase table.
func (s *Subsystem) BootTable() *Table { return s.bt }

// RunTable returns the run-phase table.
func (s *Subsystem) RunTable() *Table { return s.rt }

// ShutdownTable returns the shutdown-phase table.
func (s *Subsystem) ShutdownTable() *Table { return s.st }

// Clock returns the clock events are stamped with.
func (s *Subsystem) Clock() Clock { return s.clock }

// Phase returns the current routing phase. Shutdown, once begun,
// permanently overrides boot-complete.
func (s *Subsystem) Phase() Phase {
	if s.shutdown.Load() {
		return PhaseShutdown
	}
	if s.bootDone.Load() {
		return PhaseRun
	}
	return PhaseBoot
}

// BootDone reports whether boot has been marked complete.
func (s *Subsystem) BootDone() bool { return s.bootDone.Load() }

// ShutdownBegun reports whether shutdown tracing has begun.
func (s *Subsystem) ShutdownBegun() bool { return s.shutdown.Load() }

// activeTable picks the table for ordinary events: shutdown wins over
// boot-complete, which wins over boot.
func (s *Subsystem) activeTable() *Table {
	if s.shutdown.Load() {
		return s.st
	}
	if s.bootDone.Load() {
		return s.rt
	}
	return s.bt
}

// Record logs an event into the table selected by the current phase.
// It never changes the phase. An empty actor label defaults to the host
// actor's own name. The returned error, if any, is a dropped-event
// signal (see IsDropped); callers that treat events as pure telemetry
// may ignore it.
func (s *Subsystem) Record(event, actor string) error {
	return s.record(s.activeTable(), event, actor)
}

// RecordRun logs a run-phase event, marking boot complete first. The
// first RecordRun call is how the subsystem learns that boot has ended;
// the marking is idempotent and one-way. If shutdown has already begun,
// the event still lands in the shutdown table.
func (s *Subsystem) RecordRun(event, actor string) error {
	s.bootDone.Store(true)
	return s.record(s.activeTable(), event, actor)
}

// RecordShutdown marks shutdown begun, then logs the event into the
// shutdown table regardless of prior phase.
func (s *Subsystem) RecordShutdown(event, actor string) error {
	s.shutdown.Store(true)
	return s.record(s.st, event, actor)
}

// Reset switches over to run-time tracing, if it is not already active,
// by recording a reset marker attributed to the given actor.
func (s *Subsystem) Reset(actor string) {
	_ = s.RecordRun("reset: "+actor, "")
}

// record claims a slot in t and fills it. No locks; the only
// synchronization is the table's atomic claim.
func (s *Subsystem) record(t *Table, event, actor string) error {
	if actor == "" {
		actor = s.host.ActorName()
	}
	if s.debug != nil {
		fmt.Fprintf(s.debug, "record[table=%s cpu=%d pid=%d tick=%d actor=%q event=%q]\n",
			t.Name(), s.host.CPU(), s.host.ActorID(), s.clock.Ticks(), actor, event)
	}

	idx, err := t.Claim()
	if err != nil {
		return err
	}

	ev := t.slot(idx)
	ev.CPU = s.host.CPU()
	ev.Tick = s.clock.Ticks()
	ev.ActorID = s.host.ActorID()
	if u, ok := s.host.Usage(); ok {
		ev.CPUTime = u.CPUTime
		ev.InBlock = u.InBlock
		ev.OutBlock = u.OutBlock
	} else {
		// Bootstrap actors and non-preemptible contexts cannot be
		// sampled; zeroes keep the row readable.
		ev.CPUTime = 0
		ev.InBlock = 0
		ev.OutBlock = 0
	}
	putLabel(ev.Actor[:], actor)
	putLabel(ev.Name[:], event)
	// Written last: the validity discriminant publishes the slot.
	ev.Cycles = s.clock.Cycles()
	return nil
}

// DumpBootRun renders the boot and run tables, unfiltered, into an
// accumulating sink and returns the text. This is the payload of the
// administrative read endpoint.
func (s *Subsystem) DumpBootRun() string {
	var sink BufferSink
	Render(s.bt, s.clock, &sink, 0)
	Render(s.rt, s.clock, &sink, 0)
	return sink.String()
}

// DumpConsole renders directly to w, line at a time. During shutdown (or
// a panic path) it renders the shutdown table filtered by thresholdMS;
// otherwise it renders the boot and run tables unfiltered. Gating on the
// shutdown-trace tunable is the caller's job.
func (s *Subsystem) DumpConsole(w io.Writer, thresholdMS uint64) {
	sink := &WriterSink{W: w}
	if s.shutdown.Load() {
		Render(s.st, s.clock, sink, thresholdMS)
		return
	}
	Render(s.bt, s.clock, sink, 0)
	Render(s.rt, s.clock, sink, 0)
}
