// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/pointcloud/internal/config"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(ctx context.Context) CheckResult {
	if _, ok := ctx.Deadline(); !ok {
		return CheckResult{Status: StatusUnhealthy, Error: "no deadline"}
	}
	return CheckResult{Status: m.status}
}

func TestManager_Health_NoCheckers(t *testing.T) {
	m := NewManager("v1.0.0")
	resp := m.Health(context.Background(), true)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))
	assert.Nil(t, resp.Checks)
}

func TestManager_Health_VerboseOnly(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "a", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "b", status: StatusDegraded})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestManager_Ready(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})
	resp := m.Ready(context.Background())
	assert.True(t, resp.Ready)
	assert.Equal(t, StatusDegraded, resp.Status)

	m.RegisterChecker(&mockChecker{name: "down", status: StatusUnhealthy})
	resp = m.Ready(context.Background())
	assert.False(t, resp.Ready)
	assert.Equal(t, StatusUnhealthy, resp.Status)
}

func TestManager_ServeEndpoints(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(&mockChecker{name: "down", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "liveness is always 200")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Ready)
	assert.Equal(t, StatusUnhealthy, body.Checks["down"].Status)
}

func snapshot(t *testing.T, mutate func(*config.AppConfig)) *config.Snapshot {
	t.Helper()
	cfg, err := config.Defaults(t.TempDir())
	require.NoError(t, err)
	cfg.SecretKey = "health"
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := config.NewSnapshot(cfg)
	require.NoError(t, err)
	return s
}

func TestConfigChecker(t *testing.T) {
	res := ConfigChecker{Current: func() *config.Snapshot { return nil }}.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)

	s := snapshot(t, nil)
	res = ConfigChecker{Current: func() *config.Snapshot { return s }}.Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
}

func TestConfigChecker_SettingsFileOnDisk(t *testing.T) {
	s := snapshot(t, nil)
	path := filepath.Join(t.TempDir(), "pointcloud.yaml")
	chk := ConfigChecker{Current: func() *config.Snapshot { return s }, Path: path}

	res := chk.Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "settings file unavailable", res.Message)

	require.NoError(t, os.WriteFile(path, []byte("debug: true\nbogus: 1\n"), 0o600))
	res = chk.Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "settings file on disk is invalid", res.Message)

	require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0o600))
	assert.Equal(t, StatusHealthy, chk.Check(context.Background()).Status)

	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o750))
	assert.Equal(t, StatusDegraded, chk.Check(context.Background()).Status)
}

func TestPublishDirChecker(t *testing.T) {
	debug := snapshot(t, nil)
	assert.Equal(t, StatusHealthy, PublishDirChecker{Current: func() *config.Snapshot { return debug }}.Check(context.Background()).Status)

	root := filepath.Join(t.TempDir(), "public")
	release := snapshot(t, func(c *config.AppConfig) {
		c.Debug = false
		c.Static.Root = root
	})
	chk := PublishDirChecker{Current: func() *config.Snapshot { return release }}
	assert.Equal(t, StatusUnhealthy, chk.Check(context.Background()).Status)

	require.NoError(t, os.MkdirAll(root, 0o750))
	assert.Equal(t, StatusDegraded, chk.Check(context.Background()).Status)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.css"), nil, 0o600))
	assert.Equal(t, StatusHealthy, chk.Check(context.Background()).Status)

	noStatic := snapshot(t, func(c *config.AppConfig) {
		c.Debug = false
		c.InstalledComponents = []string{config.ComponentVisualization}
	})
	assert.Equal(t, StatusHealthy, PublishDirChecker{Current: func() *config.Snapshot { return noStatic }}.Check(context.Background()).Status)
}

type fakeFinder struct{ err error }

func (f fakeFinder) Find(name string) (string, []byte, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return "component#0", []byte("x"), nil
}

func TestTemplateChecker(t *testing.T) {
	ok := TemplateChecker{Finder: func() TemplateFinder { return fakeFinder{} }, Template: "visualization/index.gohtml"}
	res := ok.Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Contains(t, res.Message, "component#0")

	missing := TemplateChecker{Finder: func() TemplateFinder { return fakeFinder{err: errors.New("template not found")} }, Template: "x"}
	assert.Equal(t, StatusUnhealthy, missing.Check(context.Background()).Status)

	none := TemplateChecker{Finder: func() TemplateFinder { return nil }, Template: "x"}
	assert.Equal(t, StatusUnhealthy, none.Check(context.Background()).Status)
}

func TestPerformStartupChecks(t *testing.T) {
	require.NoError(t, PerformStartupChecks(snapshot(t, nil)))

	bad := snapshot(t, func(c *config.AppConfig) { c.ListenAddr = "8000" })
	assert.Error(t, PerformStartupChecks(bad))

	badMetrics := snapshot(t, func(c *config.AppConfig) {
		c.Metrics.Enabled = true
		c.Metrics.ListenAddr = ":99999"
	})
	assert.Error(t, PerformStartupChecks(badMetrics))
}
