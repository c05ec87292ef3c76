// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/pointcloud/internal/app"
	"github.com/ManuGH/pointcloud/internal/components"
	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/health"
	"github.com/ManuGH/pointcloud/internal/log"
	"github.com/ManuGH/pointcloud/internal/telemetry"
)

// Build assembles the runtime from the holder's current snapshot: the
// application server, health checks, tracing and the metrics endpoint.
func Build(ctx context.Context, holder *config.Holder) (*App, error) {
	snap := holder.Current()
	logger := log.WithComponent("daemon")

	if err := health.PerformStartupChecks(snap); err != nil {
		return nil, fmt.Errorf("startup checks: %w", err)
	}

	hm := health.NewManager(snap.Version())
	server, err := app.NewServer(snap, app.Env{Components: components.Builtin(), Health: hm})
	if err != nil {
		return nil, fmt.Errorf("entry point %q: %w", snap.EntryPoint(), err)
	}
	registerChecks(hm, holder, server)

	deps := Deps{Logger: logger, Handler: server}
	if m := snap.App().Metrics; m.Enabled {
		deps.MetricsHandler = promhttp.Handler()
		deps.MetricsAddr = m.ListenAddr
	}
	mgr, err := NewManager(ServerConfigFromSnapshot(snap), deps)
	if err != nil {
		return nil, err
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.ConfigFromSnapshot(snap))
	if err != nil {
		logger.Warn().Err(err).
			Str(log.FieldEvent, "telemetry.init_failed").
			Msg("continuing without tracing")
	} else {
		mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	}

	return NewApp(logger, mgr, holder, server), nil
}

func registerChecks(hm *health.Manager, holder *config.Holder, server *app.Server) {
	hm.RegisterChecker(health.ConfigChecker{Current: holder.Current, Path: holder.ConfigPath()})
	hm.RegisterChecker(health.PublishDirChecker{Current: holder.Current})
	hm.RegisterChecker(health.TemplateChecker{
		Template: components.IndexTemplate,
		Finder: func() health.TemplateFinder {
			a := server.Current()
			if a == nil || a.Templates == nil {
				return nil
			}
			return a.Templates
		},
	})
}
