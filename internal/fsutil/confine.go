// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fsutil keeps file access inside configured directories.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path resolves outside its root.
var ErrOutsideRoot = errors.New("path escapes root")

// CleanRelPath validates a slash-separated asset name such as
// "visualization/js/viewer.js" and returns it cleaned. Absolute names,
// backslashes, NUL bytes and ".." segments are rejected.
func CleanRelPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.ContainsAny(name, "\\\x00") {
		return "", fmt.Errorf("invalid character in path: %q", name)
	}
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("path must be relative: %s", name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
		}
	}
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(name)))
	if clean == "." {
		return "", fmt.Errorf("empty path")
	}
	return clean, nil
}

// ConfineRelPath joins root and rel and guarantees the result, with
// symlinks resolved, still lives under root. Missing files are allowed so
// callers can use it for write targets.
func ConfineRelPath(root, rel string) (string, error) {
	clean, err := CleanRelPath(rel)
	if err != nil {
		return "", err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		realRoot = absRoot
	}

	full := filepath.Join(realRoot, filepath.FromSlash(clean))
	real, err := resolve(full)
	if err != nil {
		return "", err
	}
	if !Within(realRoot, real) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return real, nil
}

// resolve evaluates symlinks on p, falling back to the nearest existing
// ancestor when p itself does not exist yet.
func resolve(p string) (string, error) {
	if _, err := os.Lstat(p); err == nil {
		real, err := filepath.EvalSymlinks(p)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", p, err)
		}
		return real, nil
	}

	dir, base := filepath.Dir(p), filepath.Base(p)
	if dir == p {
		return p, nil
	}
	realDir, err := resolve(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(realDir, base), nil
}

// Within reports whether target equals root or lies beneath it.
// Both paths must already be absolute and clean.
func Within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsRegularFile returns an error unless path exists and is a regular file.
func IsRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	return nil
}
