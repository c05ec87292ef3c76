// SPDX-License-Identifier: MIT

// Package staticfiles locates, serves and publishes static assets.
package staticfiles

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ManuGH/pointcloud/internal/components"
	"github.com/ManuGH/pointcloud/internal/fsutil"
)

// Source is one location searched for assets.
type Source struct {
	Label string // directory path or "component:<name>"
	FS    fs.FS
}

// Finder searches sources in order; the first source holding a name wins.
// It implements fs.FS over the merged view.
type Finder struct {
	sources []Source
}

// NewFinder searches dirs first, then the component filesystems.
func NewFinder(dirs []string, comps []components.NamedFS) *Finder {
	f := &Finder{}
	for _, d := range dirs {
		f.sources = append(f.sources, Source{Label: d, FS: confinedDir(d)})
	}
	for _, c := range comps {
		f.sources = append(f.sources, Source{Label: "component:" + c.Name, FS: c.FS})
	}
	return f
}

// Sources returns the search order.
func (f *Finder) Sources() []Source {
	return append([]Source(nil), f.sources...)
}

// Find returns the source that provides name.
func (f *Finder) Find(name string) (Source, error) {
	clean, err := fsutil.CleanRelPath(name)
	if err != nil {
		return Source{}, err
	}
	for _, src := range f.sources {
		info, err := fs.Stat(src.FS, clean)
		if err == nil {
			if info.Mode().IsRegular() {
				return src, nil
			}
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Source{}, fmt.Errorf("find %s in %s: %w", name, src.Label, err)
		}
	}
	return Source{}, fmt.Errorf("%w: %s", fs.ErrNotExist, name)
}

// Open implements fs.FS.
func (f *Finder) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	src, err := f.Find(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return src.FS.Open(name)
}

// Entry is one file reported by Walk.
type Entry struct {
	Name   string // slash-separated, relative to the source root
	Source Source
	// Shadowed is set when an earlier source already provided Name.
	Shadowed bool
}

// Walk visits every regular file of every source in search order.
// Missing directories are skipped.
func (f *Finder) Walk(fn func(Entry) error) error {
	seen := make(map[string]bool)
	for _, src := range f.sources {
		err := fs.WalkDir(src.FS, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == "." && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			e := Entry{Name: p, Source: src, Shadowed: seen[p]}
			seen[p] = true
			return fn(e)
		})
		if err != nil {
			return fmt.Errorf("walk %s: %w", src.Label, err)
		}
	}
	return nil
}

// confinedDir is an os directory filesystem whose symlinks may not leave
// the directory.
type confinedDir string

func (d confinedDir) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return os.Open(string(d))
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
