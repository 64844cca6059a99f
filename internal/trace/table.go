package trace

import "sync/atomic"

// Policy selects what a table does with claims once every slot has been
// consumed. It is fixed at construction and never changes.
type Policy int

const (
	// PolicyDrop rejects further claims once capacity slots have been
	// handed out. Dropped claims are counted, never retried.
	PolicyDrop Policy = iota

	// PolicyWrap reuses the oldest slot, overwriting its contents.
	PolicyWrap
)

// String returns the policy name used in snapshots and exports.
func (p Policy) String() string {
	if p == PolicyWrap {
		return "wrap"
	}
	return "drop"
}

// Table is a fixed-capacity ring buffer of trace events.
//
// Slot reservation is lock-free: concurrent callers race a CAS loop over
// the claim counter, and the winner owns the returned index exclusively
// until the ring wraps back to it. The counter increases monotonically
// for the lifetime of the storage; the externally visible write cursor is
// claims mod capacity, always in [0, capacity). Counting claims rather
// than storing the wrapped cursor keeps the drop-policy invariant in one
// place: a non-wrapping table hands out exactly capacity indices, then
// fails every claim, so no index is ever reused before all have been
// consumed.
//
// Slot contents are written non-atomically after a successful claim; see
// the Event validity contract.
type Table struct {
	name     string
	policy   Policy
	capacity uint64

	// claims counts successful slot claims since the storage was
	// allocated (or last reset by a resize).
	claims atomic.Uint64

	// dropsEarly counts events dropped because the storage was not yet
	// allocated; dropsFull counts events dropped by a full non-wrapping
	// table.
	dropsEarly atomic.Uint64
	dropsFull  atomic.Uint64

	slots []Event
}

// NewTable creates a table with the given capacity and overflow policy.
// A capacity of zero or less leaves the storage unallocated: every claim
// fails with UNINITIALIZED until the table is grown.
func NewTable(name string, capacity int, policy Policy) *Table {
	t := &Table{name: name, policy: policy}
	if capacity > 0 {
		t.capacity = uint64(capacity)
		t.slots = make([]Event, capacity)
	}
	return t
}

// Claim reserves the next slot index for exclusive writing.
//
// On success the caller owns the returned index until the ring wraps back
// to it; the caller must not hold the index across operations that could
// wrap the table. On failure the event is dropped: the matching drop
// counter has been incremented and a *TableError with code UNINITIALIZED
// or FULL is returned. Claim never blocks; the loop retries only when the
// CAS loses a race with a concurrent claimer.
func (t *Table) Claim() (int, error) {
	if t.slots == nil {
		t.dropsEarly.Add(1)
		return 0, &TableError{
			Code:    ErrCodeUninitialized,
			Table:   t.name,
			Message: "table storage not allocated",
		}
	}
	for {
		n := t.claims.Load()
		if t.policy == PolicyDrop && n >= t.capacity {
			t.dropsFull.Add(1)
			return 0, &TableError{
				Code:    ErrCodeFull,
				Table:   t.name,
				Message: "table full and not configured to wrap",
			}
		}
		if t.claims.CompareAndSwap(n, n+1) {
			return int(n % t.capacity), nil
		}
	}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Capacity returns the number of slots, 0 if unallocated.
func (t *Table) Capacity() int { return int(t.capacity) }

// Policy returns the overflow policy fixed at construction.
func (t *Table) Policy() Policy { return t.policy }

// Cursor returns the current write position in [0, capacity).
func (t *Table) Cursor() int {
	if t.capacity == 0 {
		return 0
	}
	return int(t.claims.Load() % t.capacity)
}

// Stats is a point-in-time snapshot of a table's counters.
type Stats struct {
	Name       string
	Policy     Policy
	Capacity   int
	Cursor     int
	Claims     uint64
	DropsEarly uint64
	DropsFull  uint64
}

// Stats returns a snapshot of the table's counters. The values are read
// individually without a lock and may not be mutually consistent under
// concurrent writes.
func (t *Table) Stats() Stats {
	return Stats{
		Name:       t.name,
		Policy:     t.policy,
		Capacity:   int(t.capacity),
		Cursor:     t.Cursor(),
		Claims:     t.claims.Load(),
		DropsEarly: t.dropsEarly.Load(),
		DropsFull:  t.dropsFull.Load(),
	}
}

// slot returns a pointer into the backing storage. Callers must hold a
// successful claim on i or tolerate torn reads.
func (t *Table) slot(i int) *Event {
	return &t.slots[i]
}
