// SPDX-License-Identifier: MIT

// Package templates renders html/template pages found on the configured
// search path.
package templates

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/csrf"

	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/fsutil"
	"github.com/ManuGH/pointcloud/internal/locale"
)

// ErrNotFound is returned when no search location has the template.
var ErrNotFound = errors.New("template not found")

// Reverser maps a route name to its path.
type Reverser func(name string, args ...string) (string, error)

// Engine finds, parses and renders templates.
type Engine struct {
	snap       *config.Snapshot
	sources    []source
	processors []Processor
	reverse    Reverser
	zone       *time.Location
	cache      bool

	mu     sync.RWMutex
	parsed map[string]*template.Template
}

// source is one search location.
type source struct {
	label string
	fsys  fs.FS
}

// New builds an engine. Directories from templates.dirs are searched
// first, then appFS (the installed components' template filesystems, in
// installed order) when templates.appDirs is on.
func New(s *config.Snapshot, appFS []fs.FS, reverse Reverser) (*Engine, error) {
	tc := s.Templates()
	if tc.Backend != config.TemplateBackendGoHTML {
		return nil, fmt.Errorf("unsupported template backend %q", tc.Backend)
	}

	e := &Engine{
		snap:    s,
		reverse: reverse,
		zone:    locale.Zone(s),
		cache:   !s.Debug(),
		parsed:  make(map[string]*template.Template),
	}
	for _, dir := range tc.Dirs {
		e.sources = append(e.sources, source{label: dir, fsys: dirFS(dir)})
	}
	if tc.AppDirs {
		for i, fsys := range appFS {
			e.sources = append(e.sources, source{label: fmt.Sprintf("component#%d", i), fsys: fsys})
		}
	}
	for _, name := range tc.ContextProcessors {
		p, ok := processors[name]
		if !ok {
			return nil, fmt.Errorf("unknown context processor %q", name)
		}
		e.processors = append(e.processors, p)
	}
	return e, nil
}

// Find returns the source and contents of the first location holding name.
func (e *Engine) Find(name string) (string, []byte, error) {
	clean, err := fsutil.CleanRelPath(name)
	if err != nil {
		return "", nil, fmt.Errorf("template %q: %w", name, err)
	}
	for _, src := range e.sources {
		data, err := fs.ReadFile(src.fsys, clean)
		if err == nil {
			return src.label, data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("template %q in %s: %w", name, src.label, err)
		}
	}
	return "", nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Lookup returns the parsed template, from cache when caching is on.
func (e *Engine) Lookup(name string) (*template.Template, error) {
	if e.cache {
		e.mu.RLock()
		t, ok := e.parsed[name]
		e.mu.RUnlock()
		if ok {
			return t, nil
		}
	}

	_, data, err := e.Find(name)
	if err != nil {
		return nil, err
	}
	t, err := template.New(path.Base(name)).Funcs(e.baseFuncs()).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", name, err)
	}

	if e.cache {
		e.mu.Lock()
		if existing, ok := e.parsed[name]; ok {
			t = existing
		} else {
			e.parsed[name] = t
		}
		e.mu.Unlock()
	}
	return t, nil
}

// Context assembles the render context: processors in declared order,
// then data, which wins on key collisions. CSRFToken is always present.
func (e *Engine) Context(r *http.Request, data map[string]any) map[string]any {
	ctx := map[string]any{"CSRFToken": csrf.Token(r)}
	for _, p := range e.processors {
		for k, v := range p(r, e.snap) {
			ctx[k] = v
		}
	}
	for k, v := range data {
		ctx[k] = v
	}
	return ctx
}

// Render executes name into w. Output is buffered so a failing template
// never leaves a half-written page.
func (e *Engine) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	base, err := e.Lookup(name)
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return fmt.Errorf("clone template %q: %w", name, err)
	}
	t.Funcs(e.requestFuncs(r))

	var buf bytes.Buffer
	if err := t.Execute(&buf, e.Context(r, data)); err != nil {
		return fmt.Errorf("render template %q: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

// baseFuncs are bound at parse time. Request-scoped entries are
// placeholders replaced in requestFuncs.
func (e *Engine) baseFuncs() template.FuncMap {
	return template.FuncMap{
		"static":    e.staticURL,
		"url":       e.url,
		"now":       func() time.Time { return time.Now().In(e.zone) },
		"localtime": func(t time.Time) time.Time { return t.In(e.zone) },
		"csrfField": func() template.HTML { return "" },
		"t":         func(key string, args ...any) string { return fmt.Sprintf(key, args...) },
	}
}

func (e *Engine) requestFuncs(r *http.Request) template.FuncMap {
	printer := locale.PrinterFromContext(r.Context())
	return template.FuncMap{
		"csrfField": func() template.HTML { return csrf.TemplateField(r) },
		"t":         func(key string, args ...any) string { return printer.Sprintf(key, args...) },
	}
}

func (e *Engine) staticURL(name string) string {
	return e.snap.Static().URL + strings.TrimPrefix(name, "/")
}

func (e *Engine) url(name string, args ...string) (string, error) {
	if e.reverse == nil {
		return "", fmt.Errorf("no route reverser for %q", name)
	}
	return e.reverse(name, args...)
}

// dirFS confines reads to dir, following symlinks only while they stay
// inside it.
type dirFS string

func (d dirFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	full, err := fsutil.ConfineRelPath(string(d), name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return os.Open(full)
}
