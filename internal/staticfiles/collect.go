// SPDX-License-Identifier: MIT

package staticfiles

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/renameio/v2"

	"github.com/ManuGH/pointcloud/internal/fsutil"
	"github.com/ManuGH/pointcloud/internal/log"
	"github.com/ManuGH/pointcloud/internal/metrics"
)

// CollectOptions tunes Collect.
type CollectOptions struct {
	Root   string // publish directory
	Clear  bool   // remove existing publish contents first
	DryRun bool   // report only, write nothing
}

// CollectResult lists what Collect did, by relative name.
type CollectResult struct {
	Deleted    []string
	Copied     []string
	Unmodified []string
	Skipped    []string // shadowed by an earlier source
}

// Collect copies every asset the finder can see into opts.Root. The first
// source providing a name wins. Files are replaced atomically, and an
// existing file with the same size and mtime is left alone.
func Collect(ctx context.Context, finder *Finder, opts CollectOptions) (CollectResult, error) {
	var res CollectResult
	logger := log.WithComponentFromContext(ctx, "collectstatic")

	if opts.Root == "" {
		return res, fmt.Errorf("publish directory is not configured")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return res, fmt.Errorf("publish directory: %w", err)
	}
	for _, src := range finder.Sources() {
		dir, ok := src.FS.(confinedDir)
		if !ok {
			continue
		}
		if fsutil.Within(string(dir), root) {
			return res, fmt.Errorf("publish directory %s is inside source %s", root, dir)
		}
		if fsutil.Within(root, string(dir)) {
			return res, fmt.Errorf("source %s is inside publish directory %s", dir, root)
		}
	}

	if opts.Clear {
		deleted, err := clearDir(root, opts.DryRun)
		if err != nil {
			return res, err
		}
		res.Deleted = deleted
	}

	err = finder.Walk(func(e Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.Shadowed {
			res.Skipped = append(res.Skipped, e.Name)
			metrics.RecordCollect("skipped")
			logger.Debug().
				Str(log.FieldEvent, "collectstatic.skipped").
				Str(log.FieldPath, e.Name).
				Str("source", e.Source.Label).
				Msg("found another file with the same destination path; ignoring")
			return nil
		}

		dest, err := fsutil.ConfineRelPath(root, e.Name)
		if err != nil {
			return fmt.Errorf("destination for %s: %w", e.Name, err)
		}
		fresh, err := upToDate(e, dest, opts.Clear)
		if err != nil {
			return err
		}
		if fresh {
			res.Unmodified = append(res.Unmodified, e.Name)
			metrics.RecordCollect("unmodified")
			return nil
		}
		if !opts.DryRun {
			if err := copyAsset(e, dest); err != nil {
				return err
			}
		}
		res.Copied = append(res.Copied, e.Name)
		metrics.RecordCollect("copied")
		return nil
	})
	if err != nil {
		return res, err
	}

	logger.Info().
		Str(log.FieldEvent, "collectstatic.done").
		Int("copied", len(res.Copied)).
		Int("unmodified", len(res.Unmodified)).
		Int("skipped", len(res.Skipped)).
		Int("deleted", len(res.Deleted)).
		Bool("dry_run", opts.DryRun).
		Msg("static files collected")
	return res, nil
}

// upToDate compares the source with an existing destination. Sources
// without an mtime (embedded files) are compared by size and content hash.
func upToDate(e Entry, dest string, cleared bool) (bool, error) {
	if cleared {
		return false, nil
	}
	dstInfo, err := os.Stat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", dest, err)
	}
	srcInfo, err := fs.Stat(e.Source.FS, e.Name)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", e.Name, err)
	}
	if !dstInfo.Mode().IsRegular() || dstInfo.Size() != srcInfo.Size() {
		return false, nil
	}
	if !srcInfo.ModTime().IsZero() {
		return dstInfo.ModTime().Equal(srcInfo.ModTime()), nil
	}

	srcSum, err := hashFS(e.Source.FS, e.Name)
	if err != nil {
		return false, err
	}
	dstSum, err := hashFS(os.DirFS(filepath.Dir(dest)), filepath.Base(dest))
	if err != nil {
		return false, err
	}
	return srcSum == dstSum, nil
}

func hashFS(fsys fs.FS, name string) (uint64, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	d := xxhash.New()
	if _, err := io.Copy(d, f); err != nil {
		return 0, fmt.Errorf("hash %s: %w", name, err)
	}
	return d.Sum64(), nil
}

func copyAsset(e Entry, dest string) error {
	src, err := e.Source.FS.Open(e.Name)
	if err != nil {
		return fmt.Errorf("open %s: %w", e.Name, err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", e.Name, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s from %s is not a regular file", e.Name, e.Source.Label)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", e.Name, err)
	}
	pending, err := renameio.NewPendingFile(dest, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file for %s: %w", e.Name, err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := io.Copy(pending, src); err != nil {
		return fmt.Errorf("copy %s: %w", e.Name, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", dest, err)
	}
	if mt := info.ModTime(); !mt.IsZero() {
		if err := os.Chtimes(dest, time.Now(), mt); err != nil {
			return fmt.Errorf("set mtime on %s: %w", dest, err)
		}
	}
	return nil
}

// clearDir removes everything below root, keeping root itself. It returns
// the relative names of removed files.
func clearDir(root string, dryRun bool) ([]string, error) {
	var deleted []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && os.IsNotExist(err) {
				return fs.SkipDir
			}
			return err
		}
		if p == root || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		deleted = append(deleted, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	if dryRun {
		return deleted, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return deleted, nil
		}
		return nil, fmt.Errorf("read %s: %w", root, err)
	}
	for _, ent := range entries {
		if err := os.RemoveAll(filepath.Join(root, ent.Name())); err != nil {
			return nil, fmt.Errorf("clear %s: %w", root, err)
		}
	}
	return deleted, nil
}
