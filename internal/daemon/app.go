// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/pointcloud/internal/app"
	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/log"
)

// App owns the long-lived runtime lifecycle (watcher, reload wiring) and
// delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	holder       *config.Holder
	server       *app.Server
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager, holder *config.Holder, server *app.Server) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		holder:       holder,
		server:       server,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run starts all owned background work and blocks until ctx is cancelled
// or a server fails.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Watcher is best-effort: startup does not fail without it.
	if a.holder != nil {
		if err := a.holder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}
		defer a.holder.Stop()
	}

	if a.holder != nil && a.server != nil {
		applyCh := make(chan *config.Snapshot, 1)
		a.holder.RegisterListener(applyCh)
		g.Go(func() error {
			a.server.Follow(ctx, applyCh)
			return nil
		})

		levelCh := make(chan *config.Snapshot, 1)
		a.holder.RegisterListener(levelCh)
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case snap := <-levelCh:
					applyLogLevel(snap)
				}
			}
		})
	}

	if a.holder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(log.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")
					if err := a.holder.Reload(ctx); err != nil {
						a.logger.Warn().
							Err(err).
							Str(log.FieldEvent, "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	return g.Wait()
}

func applyLogLevel(s *config.Snapshot) {
	if s == nil {
		return
	}
	cfg := s.App()
	log.Reconfigure(log.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
}
