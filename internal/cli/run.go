package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appHTTP "github.com/cmlabs-hris/attendance-sync-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/cron"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type RunOptions struct {
	*RootOptions
	Addr string
}

// NewRunCommand starts the capture API and the background sync jobs.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the local capture API and sync in the background",
		Long: `Serve the local capture API and sync in the background.

Punches are accepted on POST /api/v1/punches and buffered before the response
is sent. Pending records are delivered every SYNC_INTERVAL; the roster is
refreshed every ROSTER_REFRESH_INTERVAL when DEVICE_SECRET is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevice(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default :$DEVICE_PORT)")

	return cmd
}

func runDevice(cmd *cobra.Command, opts *RunOptions) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := openDeviceApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Close()
	cfg := app.cfg

	if cfg.Catalog.File != "" {
		n, err := app.importCatalog(ctx, cfg.Catalog.File)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to import shift catalog", err)
		}
		slog.Info("shift catalog imported", "file", cfg.Catalog.File, "shifts", n)
	}

	if app.refresher != nil {
		// An unreachable central store is not fatal, the cached roster stays in use.
		if _, err := app.refresher.Refresh(ctx); err != nil {
			slog.Warn("initial roster refresh failed", "error", err)
		}
	}

	scheduler := cron.NewScheduler()
	cron.NewDeviceJobs(app.worker, app.refresher, cfg.Sync.Interval, cfg.Sync.RosterRefresh).RegisterJobs(scheduler)

	addr := opts.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Device.Port)
	}
	router := appHTTP.NewDeviceRouter(appHTTP.RouterOptions{
		AppName:        cfg.App.Name + "-device",
		Version:        cfg.App.Version,
		Env:            cfg.App.Env,
		AllowedOrigins: cfg.App.AllowedOrigins,
	}, appHTTP.NewCaptureHandler(app.capture, app.buffer, cfg.Device.ID))
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("capture API listening", "addr", addr, "device_id", cfg.Device.ID)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		scheduler.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "device agent stopped", err)
	}

	// Last attempt to hand over what was captured before shutdown.
	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Sync.RequestTimeout)
	defer cancel()
	if _, err := app.worker.Flush(flushCtx); err != nil {
		slog.Warn("final sync failed, records stay pending", "error", err)
	}
	slog.Info("device agent stopped")
	return nil
}
