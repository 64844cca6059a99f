package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one captured set of trace tables to be persisted.
type Snapshot struct {
	Source     string // endpoint address the snapshot came from
	Phase      string
	CapturedAt time.Time
	Tables     []SnapshotTable
}

// SnapshotTable is one table's state within a snapshot.
type SnapshotTable struct {
	Name       string
	Policy     string
	Capacity   int
	Cursor     int
	DropsEarly uint64
	DropsFull  uint64
	Events     []SnapshotEvent
}

// SnapshotEvent is one recorded entry within a snapshot.
type SnapshotEvent struct {
	Slot      int
	Cycles    uint64
	Tick      int64
	CPU       int32
	ActorID   int32
	CPUTimeUS uint32
	InBlock   uint32
	OutBlock  uint32
	Actor     string
	Name      string
}

// WriteSnapshot persists a snapshot in a single transaction and returns
// its generated id. A failed write leaves no partial snapshot behind.
func (s *Store) WriteSnapshot(ctx context.Context, snap Snapshot) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	defer tx.Rollback()

	capturedAt := snap.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, source, phase, captured_at)
		VALUES (?, ?, ?, ?)
	`, id, snap.Source, snap.Phase, capturedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	for _, tbl := range snap.Tables {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshot_tables
			(snapshot_id, name, policy, capacity, cursor, drops_early, drops_full)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, tbl.Name, tbl.Policy, tbl.Capacity, tbl.Cursor, tbl.DropsEarly, tbl.DropsFull)
		if err != nil {
			return "", fmt.Errorf("write snapshot table %s: %w", tbl.Name, err)
		}

		for _, ev := range tbl.Events {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO snapshot_events
				(snapshot_id, table_name, slot, cycles, tick, cpu, actor_id,
				 cputime_us, inblock, oublock, actor, name)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, id, tbl.Name, ev.Slot, ev.Cycles, ev.Tick, ev.CPU, ev.ActorID,
				ev.CPUTimeUS, ev.InBlock, ev.OutBlock, ev.Actor, ev.Name)
			if err != nil {
				return "", fmt.Errorf("write snapshot event: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return id, nil
}
