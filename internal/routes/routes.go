// SPDX-License-Identifier: MIT

// Package routes holds the named route tables a settings file can point
// its rootRouteTable at.
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/pointcloud/internal/components"
	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/health"
	"github.com/ManuGH/pointcloud/internal/locale"
)

var (
	// ErrUnknownRouteTable is returned by Build and Reverser for names that
	// were never registered.
	ErrUnknownRouteTable = errors.New("unknown route table")
	// ErrNoReverseMatch is returned when a route name is not in the table.
	ErrNoReverseMatch = errors.New("no reverse match")
)

// Deps is everything a route table mounts.
type Deps struct {
	Snapshot   *config.Snapshot
	Components []components.Component
	Renderer   components.Renderer
	Locale     *locale.Negotiator
	Health     *health.Manager

	// Static serves the static URL prefix. Nil leaves the prefix unmounted.
	Static http.Handler
}

// Table is one named route table.
type Table struct {
	Mount func(r chi.Router, d Deps)

	// Names maps route names to paths for reversing.
	Names map[string]string
}

var tables = map[string]Table{
	config.RouteTablePointcloud: {
		Mount: mountPointcloud,
		Names: map[string]string{
			"index":   "/",
			"healthz": "/healthz",
			"readyz":  "/readyz",
		},
	},
}

// Names lists the registered tables, sorted.
func Names() []string {
	out := make([]string, 0, len(tables))
	for n := range tables {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Build mounts the named table on a fresh router.
func Build(name string, d Deps) (*chi.Mux, error) {
	t, ok := tables[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownRouteTable, name)
	}
	r := chi.NewRouter()
	t.Mount(r, d)
	return r, nil
}

// Reverser returns a function mapping route names of the table to paths.
// "static" is always known and takes the asset name as its argument.
func Reverser(name string, s *config.Snapshot) (func(route string, args ...string) (string, error), error) {
	t, ok := tables[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownRouteTable, name)
	}
	staticURL := s.Static().URL
	return func(route string, args ...string) (string, error) {
		if route == "static" {
			if len(args) != 1 {
				return "", fmt.Errorf("route static: want 1 argument, got %d", len(args))
			}
			return staticURL + strings.TrimPrefix(args[0], "/"), nil
		}
		p, ok := t.Names[route]
		if !ok {
			return "", fmt.Errorf("%w for %q", ErrNoReverseMatch, route)
		}
		if len(args) > 0 {
			return "", fmt.Errorf("route %q takes no arguments", route)
		}
		return p, nil
	}, nil
}

func mountPointcloud(r chi.Router, d Deps) {
	if d.Health != nil {
		r.Get("/healthz", d.Health.ServeHealth)
		r.Get("/readyz", d.Health.ServeReady)
	}
	if d.Static != nil && d.Snapshot.HasComponent(config.ComponentStaticFiles) {
		r.Handle(d.Snapshot.Static().URL+"*", d.Static)
	}

	cd := components.Deps{Snapshot: d.Snapshot, Renderer: d.Renderer, Locale: d.Locale}
	for _, c := range d.Components {
		if c.Mount != nil {
			c.Mount(r, cd)
		}
	}
}
