package trace

// maxTableSize bounds resize requests. Each slot is under 100 bytes; the
// bound refuses multi-gigabyte requests instead of letting the allocator
// take the process down with them.
const maxTableSize = 1 << 24

// Grow replaces the table's backing storage with a larger, zeroed one.
// The claim counter resets to 0, which by definition discards every
// previously recorded entry: a resize is a full reset. Tables never
// shrink; newCapacity must exceed the current capacity or the call fails
// with TOO_SMALL and the table is left untouched.
//
// Grow is the one operation in this package that is not safe against
// concurrent claimers: a writer racing the swap could fill a slot in the
// storage being discarded. Callers serialize Grow externally and accept
// that in-flight events around the swap may be lost.
func (t *Table) Grow(newCapacity int) error {
	if newCapacity <= int(t.capacity) {
		return &TableError{
			Code:    ErrCodeTooSmall,
			Table:   t.name,
			Message: "new capacity must exceed current capacity",
		}
	}
	if newCapacity > maxTableSize {
		return &TableError{
			Code:    ErrCodeOutOfMemory,
			Table:   t.name,
			Message: "requested capacity exceeds allocation bound",
		}
	}
	t.slots = make([]Event, newCapacity)
	t.capacity = uint64(newCapacity)
	t.claims.Store(0)
	return nil
}

// GrowRun resizes the run table and records the implied reset as a
// run-phase event. Only the run table supports resizing; the boot and
// shutdown tables keep their boot-time capacities for life.
func (s *Subsystem) GrowRun(newCapacity int) error {
	if err := s.rt.Grow(newCapacity); err != nil {
		return err
	}
	s.Reset("resize")
	return nil
}
