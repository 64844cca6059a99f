package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Addr string
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump the boot and run tables from a running endpoint",
		Long: `Fetch the rendered boot and run tables from a running endpoint.

The output is the unfiltered table text: one header per table, one line
per recorded event, and a trailer with the total measured time.

Examples:
  boottrace dump
  boottrace dump --addr http://127.0.0.1:7070`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", DefaultAddr, "trace endpoint address")

	return cmd
}

func runDump(opts *DumpOptions, cmd *cobra.Command) error {
	body, err := newEndpointClient(opts.Addr).get("/boottimes")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to fetch dump", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"dump": string(body)})
	}
	fmt.Fprint(cmd.OutOrStdout(), string(body))
	return nil
}
