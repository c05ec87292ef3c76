// SPDX-License-Identifier: MIT

// Package components holds the registry of installable components. A
// component contributes templates, static assets and routes; settings pick
// which ones are installed and in what order.
package components

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/locale"
)

// ErrUnknownComponent is returned when an installed name is not registered.
var ErrUnknownComponent = errors.New("unknown component")

// Renderer renders a named template for a request.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error
}

// Deps is what a component needs to mount its routes.
type Deps struct {
	Snapshot *config.Snapshot
	Renderer Renderer
	Locale   *locale.Negotiator
}

// Component is one installable unit.
type Component struct {
	Name string

	// Templates is searched when templates.appDirs is on. Names inside are
	// namespaced by convention ("visualization/index.gohtml").
	Templates fs.FS

	// Static is searched by the static finders after static.dirs.
	Static fs.FS

	// Mount registers the component's routes. May be nil.
	Mount func(r chi.Router, deps Deps)
}

// Registry maps component names to their definitions.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Component
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Component)}
}

// Register adds c. Names must be unique.
func (r *Registry) Register(c Component) error {
	if c.Name == "" {
		return fmt.Errorf("component name is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.items[c.Name]; dup {
		return fmt.Errorf("component %q already registered", c.Name)
	}
	r.items[c.Name] = c
	return nil
}

// Lookup returns the component registered under name.
func (r *Registry) Lookup(name string) (Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[name]
	return c, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for n := range r.items {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the components named in order, failing on the first
// unknown name.
func (r *Registry) Resolve(names []string) ([]Component, error) {
	out := make([]Component, 0, len(names))
	for _, n := range names {
		c, ok := r.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownComponent, n)
		}
		out = append(out, c)
	}
	return out, nil
}

// Installed resolves the snapshot's installed components.
func (r *Registry) Installed(s *config.Snapshot) ([]Component, error) {
	return r.Resolve(s.InstalledComponents())
}

// TemplateFS returns the template filesystems of cs in order, skipping
// components without templates.
func TemplateFS(cs []Component) []fs.FS {
	var out []fs.FS
	for _, c := range cs {
		if c.Templates != nil {
			out = append(out, c.Templates)
		}
	}
	return out
}

// StaticFS returns the static filesystems of cs in order.
func StaticFS(cs []Component) []NamedFS {
	var out []NamedFS
	for _, c := range cs {
		if c.Static != nil {
			out = append(out, NamedFS{Name: c.Name, FS: c.Static})
		}
	}
	return out
}

// NamedFS tags a filesystem with the component that provides it.
type NamedFS struct {
	Name string
	FS   fs.FS
}

// Builtin returns a registry preloaded with the components compiled into
// this binary.
func Builtin() *Registry {
	r := NewRegistry()
	for _, c := range []Component{StaticFiles(), Visualization()} {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
	return r
}
