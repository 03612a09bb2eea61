package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"stock-dashboard/src/grpc_control"
	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/jobs"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout    = 15 * time.Second
	storeProbeInterval = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard until SIGINT/SIGTERM",
	RunE:  runServe,
}

// -----------------------------------------------------------------------------

func runServe(cmd *cobra.Command, args []string) error {
	appLogger := logger.NewLogger(cfg.Name)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := setupStore(ctx, cfg.MConfig, logger.NewLogger("Store"))
	if err != nil {
		return err
	}
	defer store.Close()

	provider, cache := setupProvider(ctx, cfg.MConfig, appLogger)
	if cache != nil {
		defer cache.Close()
	}

	runner := jobs.NewRunner(cfg.Jobs, store, provider, logger.NewLogger("JobRunner"))
	var srv interfaces.IDataExchanger = server.NewDashboardServer(cfg.MConfig, store, runner, logger.NewLogger("DashboardServer"))
	runner.AddListener(srv)

	if err := runner.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	control := grpc_control.NewControlServer(cfg.MConfig, store, logger.NewLogger("ControlServer"))
	control.SetServing()
	appLogger.Info("Initialization complete, serving %s", provider.Name())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)
	g.Go(control.Serve)
	g.Go(func() error {
		control.WatchStore(gctx, storeProbeInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down...")
		control.SetNotServing()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Stop(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := runner.Stop(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		control.Stop()
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server exited with error: %v", err)
		return err
	}
	appLogger.Info("Shutdown complete")
	return nil
}
