package trace

// SnapshotEvent is a copied-out live entry. Unlike Event it carries
// decoded labels and no validity discriminant; only valid entries appear
// in snapshots.
type SnapshotEvent struct {
	Slot     int
	Cycles   uint64
	Tick     int64
	CPU      int32
	ActorID  int32
	CPUTime  uint32
	InBlock  uint32
	OutBlock uint32
	Actor    string
	Name     string
}

// TableSnapshot is a point-in-time copy of one table's live entries and
// counters, oldest entry first. Like Render, taking a snapshot acquires
// no lock; entries written concurrently with the copy may be missing or
// stale.
type TableSnapshot struct {
	Name       string
	Policy     Policy
	Capacity   int
	Cursor     int
	DropsEarly uint64
	DropsFull  uint64
	Events     []SnapshotEvent
}

// Snapshot copies the table's valid entries in render order.
func (t *Table) Snapshot() TableSnapshot {
	st := t.Stats()
	snap := TableSnapshot{
		Name:       st.Name,
		Policy:     st.Policy,
		Capacity:   st.Capacity,
		Cursor:     st.Cursor,
		DropsEarly: st.DropsEarly,
		DropsFull:  st.DropsFull,
	}
	if t.slots == nil {
		return snap
	}
	i := snap.Cursor
	for n := uint64(0); n < t.capacity; n++ {
		ev := t.slots[i]
		slot := i
		i = (i + 1) % int(t.capacity)
		if ev.Cycles == 0 {
			continue
		}
		snap.Events = append(snap.Events, SnapshotEvent{
			Slot:     slot,
			Cycles:   ev.Cycles,
			Tick:     ev.Tick,
			CPU:      ev.CPU,
			ActorID:  ev.ActorID,
			CPUTime:  ev.CPUTime,
			InBlock:  ev.InBlock,
			OutBlock: ev.OutBlock,
			Actor:    ev.ActorName(),
			Name:     ev.EventName(),
		})
	}
	return snap
}

// Snapshot copies all three tables in boot, run, shutdown order.
func (s *Subsystem) Snapshot() []TableSnapshot {
	return []TableSnapshot{
		s.bt.Snapshot(),
		s.rt.Snapshot(),
		s.st.Snapshot(),
	}
}
