package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SnapshotInfo is a snapshot's header row.
type SnapshotInfo struct {
	ID         string
	Source     string
	Phase      string
	CapturedAt time.Time
}

// ListSnapshots returns snapshot headers, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, phase, captured_at
		FROM snapshots
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		info, err := scanSnapshotInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// ReadSnapshot loads a complete snapshot by id. Returns sql.ErrNoRows
// wrapped if no such snapshot exists.
func (s *Store) ReadSnapshot(ctx context.Context, id string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, phase, captured_at
		FROM snapshots WHERE id = ?
	`, id)

	info, err := scanSnapshotInfo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("snapshot %s: %w", id, sql.ErrNoRows)
		}
		return Snapshot{}, err
	}

	snap := Snapshot{
		Source:     info.Source,
		Phase:      info.Phase,
		CapturedAt: info.CapturedAt,
	}

	tables, err := s.readTables(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Tables = tables
	return snap, nil
}

func (s *Store) readTables(ctx context.Context, id string) ([]SnapshotTable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, policy, capacity, cursor, drops_early, drops_full
		FROM snapshot_tables
		WHERE snapshot_id = ?
		ORDER BY CASE name WHEN 'boot' THEN 0 WHEN 'run' THEN 1 ELSE 2 END
	`, id)
	if err != nil {
		return nil, fmt.Errorf("read snapshot tables: %w", err)
	}
	defer rows.Close()

	var tables []SnapshotTable
	for rows.Next() {
		var tbl SnapshotTable
		if err := rows.Scan(&tbl.Name, &tbl.Policy, &tbl.Capacity, &tbl.Cursor,
			&tbl.DropsEarly, &tbl.DropsFull); err != nil {
			return nil, fmt.Errorf("scan snapshot table: %w", err)
		}
		tables = append(tables, tbl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tables {
		events, err := s.readEvents(ctx, id, tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].Events = events
	}
	return tables, nil
}

func (s *Store) readEvents(ctx context.Context, id, tableName string) ([]SnapshotEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slot, cycles, tick, cpu, actor_id, cputime_us, inblock, oublock, actor, name
		FROM snapshot_events
		WHERE snapshot_id = ? AND table_name = ?
		ORDER BY cycles, slot
	`, id, tableName)
	if err != nil {
		return nil, fmt.Errorf("read snapshot events: %w", err)
	}
	defer rows.Close()

	var events []SnapshotEvent
	for rows.Next() {
		var ev SnapshotEvent
		if err := rows.Scan(&ev.Slot, &ev.Cycles, &ev.Tick, &ev.CPU, &ev.ActorID,
			&ev.CPUTimeUS, &ev.InBlock, &ev.OutBlock, &ev.Actor, &ev.Name); err != nil {
			return nil, fmt.Errorf("scan snapshot event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshotInfo(row scanner) (SnapshotInfo, error) {
	var info SnapshotInfo
	var capturedAt string
	if err := row.Scan(&info.ID, &info.Source, &info.Phase, &capturedAt); err != nil {
		return SnapshotInfo{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, capturedAt)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("parse captured_at: %w", err)
	}
	info.CapturedAt = ts
	return info, nil
}
