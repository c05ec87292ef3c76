// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package app resolves the configured entry point into the root HTTP
// handler and rebuilds it when settings change.
package app

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/pointcloud/internal/components"
	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/control/middleware"
	"github.com/ManuGH/pointcloud/internal/health"
	"github.com/ManuGH/pointcloud/internal/locale"
	"github.com/ManuGH/pointcloud/internal/routes"
	"github.com/ManuGH/pointcloud/internal/staticfiles"
	"github.com/ManuGH/pointcloud/internal/templates"
)

// ErrUnknownApplication is returned for an entry point nobody registered.
var ErrUnknownApplication = errors.New("unknown application")

// Env holds what outlives a single build.
type Env struct {
	Components *components.Registry
	Health     *health.Manager
}

// Application is one build of the root handler for one snapshot.
type Application struct {
	http.Handler

	Snapshot  *config.Snapshot
	Templates *templates.Engine
	// Finder is nil when staticfiles is not installed.
	Finder *staticfiles.Finder
}

// Factory builds an Application from a snapshot.
type Factory func(s *config.Snapshot, env Env) (*Application, error)

var factories = map[string]Factory{
	config.EntryPointPointcloud: buildPointcloud,
}

// Resolve returns the factory registered under name.
func Resolve(name string) (Factory, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownApplication, name)
	}
	return f, nil
}

// Names lists the registered entry points, sorted.
func Names() []string {
	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// StaticFinder builds the static search path for s: static.dirs first,
// then the installed components in order. It returns nil when staticfiles
// is not installed.
func StaticFinder(s *config.Snapshot, reg *components.Registry) (*staticfiles.Finder, error) {
	if !s.HasComponent(config.ComponentStaticFiles) {
		return nil, nil
	}
	comps, err := reg.Installed(s)
	if err != nil {
		return nil, err
	}
	return staticfiles.NewFinder(s.Static().Dirs, components.StaticFS(comps)), nil
}

// buildPointcloud wires the route table, the ambient stack and the
// configured chain. Order, outermost first: ambient stack, configured
// middleware, language selection, routes.
func buildPointcloud(s *config.Snapshot, env Env) (*Application, error) {
	comps, err := env.Components.Installed(s)
	if err != nil {
		return nil, fmt.Errorf("installedComponents: %w", err)
	}

	reverse, err := routes.Reverser(s.RootRouteTable(), s)
	if err != nil {
		return nil, err
	}
	engine, err := templates.New(s, components.TemplateFS(comps), reverse)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	negotiator := locale.NewNegotiator(s)

	finder, err := StaticFinder(s, env.Components)
	if err != nil {
		return nil, err
	}
	var static http.Handler
	if finder != nil {
		static = staticfiles.NewHandler(s, finder)
	}

	table, err := routes.Build(s.RootRouteTable(), routes.Deps{
		Snapshot:   s,
		Components: comps,
		Renderer:   engine,
		Locale:     negotiator,
		Health:     env.Health,
		Static:     static,
	})
	if err != nil {
		return nil, err
	}

	chain, err := middleware.BuildChain(s.Middleware(), s, middleware.Deps{Routes: table})
	if err != nil {
		return nil, err
	}

	root := chi.NewRouter()
	middleware.ApplyStack(root, middleware.StackFromSnapshot(s))
	root.Use(chain)
	root.Use(negotiator.Middleware)
	root.Mount("/", table)

	return &Application{
		Handler:   root,
		Snapshot:  s,
		Templates: engine,
		Finder:    finder,
	}, nil
}
