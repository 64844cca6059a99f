package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// ResizeOptions holds flags for the resize command.
type ResizeOptions struct {
	*RootOptions
	Addr string
}

// NewResizeCommand creates the resize command.
func NewResizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resize <entries>",
		Short: "Grow the run table",
		Long: `Grow the run table of a running endpoint to the given entry count.

Tables only grow; a capacity at or below the current one is rejected.
A resize discards all previously recorded run events and restarts the
table with a reset marker.

Examples:
  boottrace resize 5000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResize(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", DefaultAddr, "trace endpoint address")

	return cmd
}

func runResize(opts *ResizeOptions, cmd *cobra.Command, arg string) error {
	entries, err := strconv.Atoi(arg)
	if err != nil || entries <= 0 {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid table size %q: must be a positive entry count", arg))
	}

	if err := newEndpointClient(opts.Addr).post("/tablesize", arg); err != nil {
		return WrapExitError(ExitFailure, "resize rejected", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]int{"capacity": entries})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run table grown to %d entries\n", entries)
	return nil
}
