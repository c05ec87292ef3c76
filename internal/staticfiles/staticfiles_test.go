// SPDX-License-Identifier: MIT

package staticfiles

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/pointcloud/internal/components"
	"github.com/ManuGH/pointcloud/internal/config"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

type fixture struct {
	base   string
	first  string
	second string
	root   string
	finder *Finder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	f := fixture{
		base:   base,
		first:  filepath.Join(base, "static"),
		second: filepath.Join(base, "vendor"),
		root:   filepath.Join(base, "staticfiles"),
	}
	writeFile(t, f.first, "css/site.css", "first")
	writeFile(t, f.second, "css/site.css", "second")
	writeFile(t, f.second, "js/lib.js", "lib")

	app := fstest.MapFS{
		"visualization/js/viewer.js": {Data: []byte("viewer")},
		"js/lib.js":                  {Data: []byte("app-lib")},
	}
	f.finder = NewFinder([]string{f.first, f.second, filepath.Join(base, "missing")},
		[]components.NamedFS{{Name: "visualization", FS: app}})
	return f
}

func TestFinder_FirstMatchWins(t *testing.T) {
	f := newFixture(t)

	src, err := f.finder.Find("css/site.css")
	require.NoError(t, err)
	assert.Equal(t, f.first, src.Label)

	src, err = f.finder.Find("js/lib.js")
	require.NoError(t, err)
	assert.Equal(t, f.second, src.Label)

	src, err = f.finder.Find("visualization/js/viewer.js")
	require.NoError(t, err)
	assert.Equal(t, "component:visualization", src.Label)

	_, err = f.finder.Find("nope.txt")
	assert.Error(t, err)
	_, err = f.finder.Find("../etc/passwd")
	assert.Error(t, err)
}

func TestFinder_WalkMarksShadowed(t *testing.T) {
	f := newFixture(t)
	var shadowed, visible []string
	require.NoError(t, f.finder.Walk(func(e Entry) error {
		if e.Shadowed {
			shadowed = append(shadowed, e.Name)
		} else {
			visible = append(visible, e.Name)
		}
		return nil
	}))
	sort.Strings(visible)
	sort.Strings(shadowed)
	assert.Equal(t, []string{"css/site.css", "js/lib.js", "visualization/js/viewer.js"}, visible)
	assert.Equal(t, []string{"css/site.css", "js/lib.js"}, shadowed)
}

func snapshotFor(t *testing.T, f fixture, debug bool) *config.Snapshot {
	t.Helper()
	cfg, err := config.Defaults(f.base)
	require.NoError(t, err)
	cfg.SecretKey = "static-test"
	cfg.Debug = debug
	cfg.Static.Dirs = []string{f.first, f.second}
	cfg.Static.Root = f.root
	s, err := config.NewSnapshot(cfg)
	require.NoError(t, err)
	return s
}

func get(h http.Handler, target string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_DebugServesFromFinders(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(snapshotFor(t, f, true), f.finder)

	rec := get(h, "/static/css/site.css", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "first", rec.Body.String())
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")

	rec = get(h, "/static/visualization/js/viewer.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "viewer", rec.Body.String())
	etag := rec.Header().Get("ETag")
	assert.Regexp(t, `^W/"[0-9a-f]+-6"$`, etag)

	rec = get(h, "/static/visualization/js/viewer.js", func(r *http.Request) { r.Header.Set("If-None-Match", etag) })
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestHandler_ReleaseServesFromPublishDir(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(snapshotFor(t, f, false), f.finder)

	rec := get(h, "/static/css/site.css", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "nothing collected yet")

	writeFile(t, f.root, "css/site.css", "published")
	rec = get(h, "/static/css/site.css", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "published", rec.Body.String())
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestHandler_NormalizesDecomposedNames(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "caf\u00e9.css", "composed")
	h := NewHandler(snapshotFor(t, f, false), f.finder)

	// "e" followed by U+0301 COMBINING ACUTE ACCENT.
	rec := get(h, "/static/cafe%CC%81.css", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "composed", rec.Body.String())

	rec = get(h, "/static/caf%C3%A9.css", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Rejections(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "css/site.css", "published")
	outside := writeFile(t, f.base, "secret.txt", "secret")
	require.NoError(t, os.Symlink(outside, filepath.Join(f.root, "leak.txt")))
	h := NewHandler(snapshotFor(t, f, false), f.finder)

	for target, want := range map[string]int{
		"/static/../secret.txt":     http.StatusForbidden,
		"/static/%2e%2e/secret.txt": http.StatusForbidden,
		"/static/css/":              http.StatusForbidden,
		"/static/":                  http.StatusForbidden,
		"/static/css":               http.StatusForbidden,
		"/static/leak.txt":          http.StatusForbidden,
		"/static/a%00b":             http.StatusForbidden,
	} {
		rec := get(h, target, nil)
		assert.Equal(t, want, rec.Code, target)
	}

	req := httptest.NewRequest(http.MethodPost, "/static/css/site.css", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
}

func TestCollect_CopiesUnmodifiedAndSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := Collect(ctx, f.finder, CollectOptions{Root: f.root})
	require.NoError(t, err)
	sort.Strings(res.Copied)
	assert.Equal(t, []string{"css/site.css", "js/lib.js", "visualization/js/viewer.js"}, res.Copied)
	assert.Len(t, res.Skipped, 2)
	assert.Empty(t, res.Unmodified)

	data, err := os.ReadFile(filepath.Join(f.root, "css", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	res, err = Collect(ctx, f.finder, CollectOptions{Root: f.root})
	require.NoError(t, err)
	assert.Empty(t, res.Copied, "second run must not copy unchanged files")
	assert.Len(t, res.Unmodified, 3)

	later := time.Now().Add(time.Hour)
	p := writeFile(t, f.first, "css/site.css", "edit!")
	require.NoError(t, os.Chtimes(p, later, later))
	res, err = Collect(ctx, f.finder, CollectOptions{Root: f.root})
	require.NoError(t, err)
	assert.Equal(t, []string{"css/site.css"}, res.Copied)
}

func TestCollect_DryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	res, err := Collect(context.Background(), f.finder, CollectOptions{Root: f.root, DryRun: true})
	require.NoError(t, err)
	assert.Len(t, res.Copied, 3)
	_, err = os.Stat(f.root)
	assert.True(t, os.IsNotExist(err))
}

func TestCollect_Clear(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "stale/old.css", "old")

	res, err := Collect(context.Background(), f.finder, CollectOptions{Root: f.root, Clear: true, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"stale/old.css"}, res.Deleted)
	_, err = os.Stat(filepath.Join(f.root, "stale", "old.css"))
	require.NoError(t, err, "dry run keeps files")

	res, err = Collect(context.Background(), f.finder, CollectOptions{Root: f.root, Clear: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"stale/old.css"}, res.Deleted)
	assert.Len(t, res.Copied, 3)
	_, err = os.Stat(filepath.Join(f.root, "stale"))
	assert.True(t, os.IsNotExist(err))
}

func TestCollect_RejectsPublishInsideSource(t *testing.T) {
	f := newFixture(t)
	_, err := Collect(context.Background(), f.finder, CollectOptions{Root: filepath.Join(f.first, "out")})
	assert.Error(t, err)

	_, err = Collect(context.Background(), f.finder, CollectOptions{})
	assert.Error(t, err)
}

func TestCollect_RejectsSourceInsidePublish(t *testing.T) {
	f := newFixture(t)
	settings := writeFile(t, f.base, "pointcloud.yaml", "debug: true\n")

	_, err := Collect(context.Background(), f.finder, CollectOptions{Root: f.base, Clear: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inside publish directory")
	assert.FileExists(t, settings)
	assert.FileExists(t, filepath.Join(f.first, "css", "site.css"))
}

func TestCollect_HonorsCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, f.finder, CollectOptions{Root: f.root})
	assert.ErrorIs(t, err, context.Canceled)
}
