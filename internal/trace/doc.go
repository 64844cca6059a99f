// Package trace implements the boot/run/shutdown trace-table engine.
//
// The engine answers one question: where did the time go between two
// milestones of a machine's boot or shutdown sequence? Callers sprinkle
// named events through their startup and teardown paths; each event is
// stamped with a monotonic cycle-counter sample and resource-usage data
// and appended to a fixed-capacity ring buffer. The recorded tables can
// be rendered at any time, including while new events are still arriving.
//
// ARCHITECTURE:
//
// Lock-Free Write Path:
// Recording must be callable from any goroutine at any point in the
// process lifetime without blocking and without perturbing the timing it
// measures. There are no locks anywhere on the write path. Slot
// reservation is a compare-and-swap retry loop over a per-table claim
// counter; the claiming caller then owns that slot exclusively until the
// ring wraps back to it. The retry loop only spins on CAS contention,
// never on logical fullness.
//
// Lock-Free Read Path:
// Render walks a table without synchronizing against writers. A slot
// whose cycle-counter sample is zero is empty, either never written or
// mid-write; the reader skips it. A torn read of a slot that is being
// filled concurrently is an accepted, benign race: the reader may emit a
// stale or partially stale row, never crash. Event.Cycles is the
// validity discriminant and is written last when a slot is filled.
//
// Phase Routing:
// Exactly one of three tables (boot, run, shutdown) receives ordinary
// events at any instant. Two monotonic flags drive the selection: the
// first run-phase event marks boot complete, and the first shutdown
// event switches routing to the shutdown table permanently. Neither flag
// is ever reset.
//
// Failure Policy:
// A record that cannot be stored (table not yet allocated, or full with
// the drop policy) increments a drop counter and returns a typed error.
// Events are best-effort telemetry; nothing in this package is ever
// load-bearing for the correctness of the process being traced.
package trace
