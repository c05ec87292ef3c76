// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package middleware provides the HTTP middleware of the pointcloud server:
// the named middleware that settings list in order, and the ambient stack
// that always wraps them.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/pointcloud/internal/config"
)

// ErrUnknownMiddleware is returned for a name with no registered factory.
var ErrUnknownMiddleware = errors.New("unknown middleware")

// Middleware wraps a handler.
type Middleware = func(http.Handler) http.Handler

// Deps carries what named middleware may need besides the snapshot.
type Deps struct {
	// Routes answers "does this path match" for append-slash redirects.
	Routes chi.Routes
}

// Factory builds one named middleware from the active settings.
type Factory func(s *config.Snapshot, d Deps) (Middleware, error)

var named = map[string]Factory{
	config.MiddlewareSecurity: func(s *config.Snapshot, _ Deps) (Middleware, error) {
		return Security(s.Security()), nil
	},
	config.MiddlewareCommon: func(s *config.Snapshot, d Deps) (Middleware, error) {
		return Common(s.AppendSlash(), d.Routes), nil
	},
	config.MiddlewareCSRF: func(s *config.Snapshot, _ Deps) (Middleware, error) {
		return CSRF(s)
	},
	config.MiddlewareClickjacking: func(s *config.Snapshot, _ Deps) (Middleware, error) {
		return Clickjacking(s.FrameOptions()), nil
	},
}

// Names lists the registered middleware names, sorted.
func Names() []string {
	names := make([]string, 0, len(named))
	for n := range named {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// BuildChain resolves names in order. The first name ends up outermost, so
// it sees the request first and the response last.
func BuildChain(names []string, s *config.Snapshot, d Deps) (Middleware, error) {
	mws := make(chi.Middlewares, 0, len(names))
	for i, name := range names {
		factory, ok := named[name]
		if !ok {
			return nil, fmt.Errorf("middleware[%d]: %w %q", i, ErrUnknownMiddleware, name)
		}
		mw, err := factory(s, d)
		if err != nil {
			return nil, fmt.Errorf("middleware[%d] %q: %w", i, name, err)
		}
		mws = append(mws, mw)
	}
	return func(next http.Handler) http.Handler {
		return mws.Handler(next)
	}, nil
}
