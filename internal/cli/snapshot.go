package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mitchell0000/boottrace/internal/ctl"
	"github.com/mitchell0000/boottrace/internal/store"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	Addr     string
	Database string
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export a snapshot of the live tables to SQLite",
		Long: `Fetch the raw live entries from a running endpoint and persist them
as a snapshot in a SQLite database for offline analysis.

Every invocation appends a new snapshot; nothing is overwritten. The
engine itself never persists anything - this is the explicit,
operator-invoked export path.

Examples:
  boottrace snapshot --db ./boottrace.db
  boottrace snapshot --db ./boottrace.db --addr http://127.0.0.1:7070`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", DefaultAddr, "trace endpoint address")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSnapshot(opts *SnapshotOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	body, err := newEndpointClient(opts.Addr).get("/events")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to fetch events", err)
	}

	var events ctl.EventsResponse
	if err := json.Unmarshal(body, &events); err != nil {
		return WrapExitError(ExitCommandError, "failed to decode events", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	id, err := st.WriteSnapshot(ctx, snapshotFromEvents(opts.Addr, events))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write snapshot", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]string{
			"snapshot_id": id,
			"phase":       events.Phase,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s written to %s\n", id, opts.Database)
	return nil
}

// snapshotFromEvents converts the wire snapshot into store rows.
func snapshotFromEvents(source string, events ctl.EventsResponse) store.Snapshot {
	snap := store.Snapshot{
		Source:     source,
		Phase:      events.Phase,
		CapturedAt: events.CapturedAt,
	}
	for _, tbl := range events.Tables {
		st := store.SnapshotTable{
			Name:       tbl.Name,
			Policy:     tbl.Policy,
			Capacity:   tbl.Capacity,
			Cursor:     tbl.Cursor,
			DropsEarly: tbl.DropsEarly,
			DropsFull:  tbl.DropsFull,
		}
		for _, ev := range tbl.Events {
			st.Events = append(st.Events, store.SnapshotEvent{
				Slot:      ev.Slot,
				Cycles:    ev.Cycles,
				Tick:      ev.Tick,
				CPU:       ev.CPU,
				ActorID:   ev.ActorID,
				CPUTimeUS: ev.CPUTimeUS,
				InBlock:   ev.InBlock,
				OutBlock:  ev.OutBlock,
				Actor:     ev.Actor,
				Name:      ev.Name,
			})
		}
		snap.Tables = append(snap.Tables, st)
	}
	return snap
}
