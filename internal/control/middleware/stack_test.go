// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/pointcloud/internal/config"
	controlhttp "github.com/ManuGH/pointcloud/internal/control/http"
	"github.com/ManuGH/pointcloud/internal/hosts"
	"github.com/ManuGH/pointcloud/internal/log"
	"github.com/ManuGH/pointcloud/internal/metrics"
)

func TestApplyStack_RejectsDisallowedHostWithRequestID(t *testing.T) {
	r := chi.NewRouter()
	ApplyStack(r, StackConfig{Hosts: hosts.NewMatcher([]string{"viewer.example.com"}, false)})
	r.Get("/", okHandler().ServeHTTP)

	before := metrics.CounterValue(metrics.HTTPRejectedTotal, "disallowed_host")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "evil.example.org"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(controlhttp.HeaderRequestID))
	assert.Equal(t, before+1, metrics.CounterValue(metrics.HTTPRejectedTotal, "disallowed_host"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "viewer.example.com:8000"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApplyStack_RecoversPanics(t *testing.T) {
	r := chi.NewRouter()
	ApplyStack(r, StackConfig{EnableMetrics: true})
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("Accept", "application/json")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestRequestID_KeepsValidClientID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = log.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(controlhttp.HeaderRequestID, "client-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-123", seen)
	assert.Equal(t, "client-123", rec.Header().Get(controlhttp.HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(controlhttp.HeaderRequestID, "has space\n")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "has space\n", seen)
	assert.Len(t, seen, 36)
}

func TestRateLimit_Returns429WithRetryAfter(t *testing.T) {
	h := RateLimit(config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute})(okHandler())

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		h.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/", nil))
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
}

func TestStackFromSnapshot(t *testing.T) {
	snap := newSnapshot(t, func(c *config.AppConfig) {
		c.Tracing.Enabled = true
		c.LogService = ""
	})
	cfg := StackFromSnapshot(snap)
	require.NotNil(t, cfg.Hosts)
	assert.True(t, cfg.Hosts.Allowed("localhost"))
	assert.Equal(t, "pointcloud", cfg.TracingService)
	assert.True(t, cfg.EnableLogging)
}

func TestApplyStack_ThenConfiguredChainInDeclaredOrder(t *testing.T) {
	snap := newSnapshot(t, nil)
	routes := chi.NewRouter()
	routes.Get("/viewer/", okHandler().ServeHTTP)

	chain, err := BuildChain([]string{config.MiddlewareSecurity, config.MiddlewareCommon, config.MiddlewareClickjacking}, snap, Deps{Routes: routes})
	require.NoError(t, err)

	r := chi.NewRouter()
	ApplyStack(r, StackFromSnapshot(snap))
	r.Use(chain)
	r.Mount("/", routes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://localhost/viewer", nil))
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/viewer/", rec.Header().Get("Location"))
	// security runs before common, clickjacking after it never does
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("X-Frame-Options"))
}
