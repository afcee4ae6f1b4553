package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seancheick/Pharmaguide-sub006/internal/linkserver"
	"github.com/seancheick/Pharmaguide-sub006/internal/logging"
)

// ShutdownTimeout bounds graceful shutdown of the link server.
const ShutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve web links and the resolve API over HTTP",
		Long: `Start the link server. Shared web links are redirected to the app
scheme; /resolve, /links/{route} and /metrics serve tooling.

Examples:
  deeplink serve --config deeplink.yaml
  deeplink serve --listen 127.0.0.1:9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides server.listen)")
	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return reportSetup(f, err)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return reportSetup(f, WrapExitError(ExitCommandError, "invalid log config", err))
	}
	e, err := buildEnv(cfg, logger)
	if err != nil {
		return reportSetup(f, err)
	}
	defer e.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	addr := cfg.Server.Listen
	if opts.Listen != "" {
		addr = opts.Listen
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           linkserver.New(e.resolver, linkserver.WithLogger(logger), linkserver.WithGatherer(reg)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serveUntilDone(ctx, srv, logger)
}

// serveUntilDone runs srv until ctx is cancelled, then shuts it down.
func serveUntilDone(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("link server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return WrapExitError(ExitCommandError, "link server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	logger.Info("link server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitCommandError, "link server shutdown failed", err)
	}
	return <-errCh
}
