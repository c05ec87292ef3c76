// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/hosts"
	"github.com/ManuGH/pointcloud/internal/log"
)

// StackConfig configures the ambient middleware that wraps every request
// ahead of the configured chain.
type StackConfig struct {
	Hosts *hosts.Matcher

	// Observability
	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool

	RateLimit config.RateLimitConfig
}

// StackFromSnapshot derives the ambient stack from the active settings.
func StackFromSnapshot(s *config.Snapshot) StackConfig {
	app := s.App()
	cfg := StackConfig{
		Hosts:         hosts.NewMatcher(app.AllowedHosts, app.Debug),
		EnableMetrics: app.Metrics.Enabled,
		EnableLogging: true,
		RateLimit:     app.RateLimit,
	}
	if app.Tracing.Enabled {
		cfg.TracingService = app.LogService
		if cfg.TracingService == "" {
			cfg.TracingService = "pointcloud"
		}
	}
	return cfg
}

// ApplyStack applies the ambient stack to r. It must run before any route
// or configured middleware is added to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. Recoverer (outermost safety net)
	r.Use(Recoverer)
	// 2. RequestID (correlation early)
	r.Use(RequestID)
	// 3. Allowed hosts
	if cfg.Hosts != nil {
		r.Use(hosts.Middleware(cfg.Hosts))
	}
	// 4. Metrics
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	// 5. Tracing
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	// 6. Logging (captures full latency)
	if cfg.EnableLogging {
		r.Use(log.Middleware())
	}
	// 7. Rate limit
	if cfg.RateLimit.Enabled && cfg.RateLimit.Requests > 0 && cfg.RateLimit.Window > 0 {
		r.Use(RateLimit(cfg.RateLimit))
	}
}
