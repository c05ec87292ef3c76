// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package app

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/log"
)

// Server is the long-lived root handler. Each request is served by the
// Application current when it arrived; Rebuild swaps in a new one.
type Server struct {
	env     Env
	current atomic.Pointer[Application]
}

// NewServer builds the entry point named by s.
func NewServer(s *config.Snapshot, env Env) (*Server, error) {
	srv := &Server{env: env}
	if err := srv.Rebuild(s); err != nil {
		return nil, err
	}
	return srv, nil
}

// ServeHTTP dispatches to the current Application.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.current.Load().ServeHTTP(w, r)
}

// Current returns the Application serving new requests.
func (s *Server) Current() *Application {
	return s.current.Load()
}

// Rebuild builds a new Application for snap. On error the previous one
// keeps serving.
func (s *Server) Rebuild(snap *config.Snapshot) error {
	factory, err := Resolve(snap.EntryPoint())
	if err != nil {
		return err
	}
	a, err := factory(snap, s.env)
	if err != nil {
		return err
	}
	s.current.Store(a)
	return nil
}

// Follow rebuilds on every snapshot received until ctx is done or
// updates is closed.
func (s *Server) Follow(ctx context.Context, updates <-chan *config.Snapshot) {
	logger := log.WithComponent("app")
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := s.Rebuild(snap); err != nil {
				logger.Error().Err(err).
					Str(log.FieldEvent, "app.rebuild_failed").
					Msg("keeping previous handler")
				continue
			}
			logger.Info().
				Str(log.FieldEvent, "app.rebuilt").
				Strs("middleware", snap.Middleware()).
				Msg("handler rebuilt from new settings")
		}
	}
}
