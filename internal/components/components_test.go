// SPDX-License-Identifier: MIT

package components_test

import (
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/pointcloud/internal/components"
	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/locale"
	"github.com/ManuGH/pointcloud/internal/templates"
)

func snapshot(t *testing.T) *config.Snapshot {
	t.Helper()
	cfg, err := config.Defaults(t.TempDir())
	require.NoError(t, err)
	cfg.SecretKey = "components-test"
	cfg.Version = "1.2.3"
	s, err := config.NewSnapshot(cfg)
	require.NoError(t, err)
	return s
}

func TestRegistry_RegisterRejectsEmptyAndDuplicate(t *testing.T) {
	r := components.NewRegistry()
	require.Error(t, r.Register(components.Component{}))
	require.NoError(t, r.Register(components.Component{Name: "a"}))
	err := r.Register(components.Component{Name: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_ResolveKeepsOrder(t *testing.T) {
	r := components.Builtin()
	assert.Equal(t, []string{config.ComponentStaticFiles, config.ComponentVisualization}, r.Names())

	got, err := r.Resolve([]string{config.ComponentVisualization, config.ComponentStaticFiles})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, config.ComponentVisualization, got[0].Name)

	_, err = r.Resolve([]string{"admin"})
	assert.True(t, errors.Is(err, components.ErrUnknownComponent))
	assert.Contains(t, err.Error(), `"admin"`)
}

func TestBuiltin_CoversCatalog(t *testing.T) {
	assert.ElementsMatch(t, config.DefaultCatalog().Components, components.Builtin().Names())
}

func TestStaticAndTemplateFS_SkipEmpty(t *testing.T) {
	cs, err := components.Builtin().Installed(snapshot(t))
	require.NoError(t, err)

	static := components.StaticFS(cs)
	require.Len(t, static, 1)
	assert.Equal(t, config.ComponentVisualization, static[0].Name)
	_, err = fs.Stat(static[0].FS, "visualization/js/viewer.js")
	assert.NoError(t, err)

	tpl := components.TemplateFS(cs)
	require.Len(t, tpl, 1)
	_, err = fs.Stat(tpl[0], components.IndexTemplate)
	assert.NoError(t, err)
}

func TestVisualization_RendersIndex(t *testing.T) {
	s := snapshot(t)
	cs, err := components.Builtin().Installed(s)
	require.NoError(t, err)

	reverse := func(name string, _ ...string) (string, error) { return "/", nil }
	engine, err := templates.New(s, components.TemplateFS(cs), reverse)
	require.NoError(t, err)
	neg := locale.NewNegotiator(s)

	r := chi.NewRouter()
	r.Use(neg.Middleware)
	components.Visualization().Mount(r, components.Deps{Snapshot: s, Renderer: engine, Locale: neg})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<html lang="fr">`)
	assert.Contains(t, body, "Visualiseur de nuages de points")
	assert.Contains(t, body, "Version 1.2.3")
	assert.Contains(t, body, `/static/visualization/js/viewer.js`)
}

type failingRenderer struct{}

func (failingRenderer) Render(http.ResponseWriter, *http.Request, string, map[string]any) error {
	return errors.New("boom")
}

func TestVisualization_RenderFailureIs500(t *testing.T) {
	r := chi.NewRouter()
	components.Visualization().Mount(r, components.Deps{Snapshot: snapshot(t), Renderer: failingRenderer{}})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
