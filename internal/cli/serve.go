package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mitchell0000/boottrace/internal/config"
	"github.com/mitchell0000/boottrace/internal/ctl"
	"github.com/mitchell0000/boottrace/internal/trace"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Config string
	Listen string // overrides the configured address when set
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the trace subsystem and its administrative endpoint",
		Long: `Run the trace subsystem and serve its administrative endpoint.

The endpoint accepts event injections, dumps the tables as text, grows
the run table, and exports raw snapshots. Table sizes and the shutdown
console dump are controlled by the config file and BOOTTRACE_*
environment variables.

On SIGINT or SIGTERM the server records a shutdown event, stops
serving, and - when shutdown_trace is enabled - dumps the shutdown
table to the console with the configured delta threshold.

Examples:
  boottrace serve
  boottrace serve --config /etc/boottrace.yaml
  boottrace serve --listen 127.0.0.1:7070`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(cmd.ErrOrStderr()).Level(level).With().Timestamp().Logger()

	var debug *os.File
	if cfg.PrintRecords {
		debug = os.Stderr
	}
	sub := trace.New(trace.Options{
		BootTableSize:     cfg.BootTableSize,
		RunTableSize:      cfg.RunTableSize,
		ShutdownTableSize: cfg.ShutdownTableSize,
		Debug:             debugWriter(debug),
	})
	_ = sub.Record("boottrace: tables allocated", "")

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: ctl.NewServer(sub, log).Handler(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", cfg.Listen).Msg("serving trace endpoint")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return WrapExitError(ExitCommandError, "endpoint failed", err)
	case <-ctx.Done():
	}

	// Record the teardown before stopping, so it lands in the shutdown
	// table this dump may render.
	_ = sub.RecordShutdown("boottrace: caught termination signal", "")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Msg("endpoint shutdown")
	}
	_ = sub.RecordShutdown("boottrace: endpoint stopped", "")

	if cfg.ShutdownTrace {
		sub.DumpConsole(cmd.OutOrStdout(), cfg.ShutdownTraceThresholdMS)
	}
	return nil
}

// debugWriter keeps a nil *os.File from becoming a non-nil io.Writer.
func debugWriter(f *os.File) io.Writer {
	if f == nil {
		return nil
	}
	return f
}
