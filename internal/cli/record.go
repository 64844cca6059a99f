package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Phases a record can target, mapped to their endpoint paths. "run" and
// "shutdown" force the corresponding one-way phase transition.
var phasePaths = map[string]string{
	"boot":     "/boottimes",
	"run":      "/runtimes",
	"shutdown": "/shuttimes",
}

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Addr  string
	Phase string
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <message>",
		Short: "Inject a synthetic trace event",
		Long: `Inject a synthetic event into a running endpoint.

The message has the form "actor:event"; without a colon the whole
message is the event name and the actor defaults to the serving
process. Recording to --phase run marks boot complete; --phase shutdown
switches to shutdown tracing. Both transitions are permanent.

A dropped event (table full or not yet allocated) still succeeds:
events are best-effort telemetry.

Examples:
  boottrace record "rc:network up"
  boottrace record --phase run "rc:multi-user"
  boottrace record --phase shutdown "init:going down"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", DefaultAddr, "trace endpoint address")
	cmd.Flags().StringVar(&opts.Phase, "phase", "boot", "record entry point (boot|run|shutdown)")

	return cmd
}

func runRecord(opts *RecordOptions, cmd *cobra.Command, message string) error {
	path, ok := phasePaths[opts.Phase]
	if !ok {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid phase %q: must be boot, run or shutdown", opts.Phase))
	}

	if err := newEndpointClient(opts.Addr).post(path, message); err != nil {
		return WrapExitError(ExitCommandError, "failed to record event", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]string{
			"message": message,
			"phase":   opts.Phase,
		})
	}
	if opts.Verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "recorded %q (%s)\n", message, opts.Phase)
	}
	return nil
}
