// SPDX-License-Identifier: MIT

package staticfiles

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/log"
	"github.com/ManuGH/pointcloud/internal/metrics"
)

const (
	cacheControlDebug   = "no-cache"
	cacheControlRelease = "public, max-age=3600"
)

// Handler serves assets below the static URL prefix. In debug mode files
// come straight from the finders; otherwise from the publish directory.
type Handler struct {
	fsys         fs.FS
	prefix       string
	cacheControl string
}

// NewHandler picks the backing filesystem from the snapshot.
func NewHandler(s *config.Snapshot, finder *Finder) *Handler {
	st := s.Static()
	h := &Handler{prefix: st.URL, cacheControl: cacheControlRelease}
	if s.Debug() {
		h.fsys = finder
		h.cacheControl = cacheControlDebug
	} else {
		h.fsys = confinedDir(st.Root)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), config.ComponentStaticFiles)

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		metrics.RecordStatic("denied")
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, h.prefix)
	if rel == r.URL.Path && h.prefix != "/" {
		rel = strings.TrimPrefix(r.URL.Path, "/")
	}
	if isPathTraversal(r.URL.RawPath) || isPathTraversal(rel) {
		logger.Warn().
			Str(log.FieldEvent, "static.denied").
			Str(log.FieldPath, r.URL.Path).
			Str("reason", "path_escape").
			Msg("detected traversal sequence")
		metrics.RecordStatic("denied")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if rel == "" || strings.HasSuffix(rel, "/") {
		metrics.RecordStatic("denied")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	name := path.Clean(norm.NFC.String(rel))
	if !fs.ValidPath(name) {
		metrics.RecordStatic("denied")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	f, err := h.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.RecordStatic("not_found")
			http.NotFound(w, r)
			return
		}
		logger.Warn().Err(err).
			Str(log.FieldEvent, "static.denied").
			Str(log.FieldPath, r.URL.Path).
			Msg("cannot open asset")
		metrics.RecordStatic("denied")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn().Err(err).Str(log.FieldPath, name).Msg("failed to close asset")
		}
	}()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		metrics.RecordStatic("denied")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	content, ok := f.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(f)
		if err != nil {
			logger.Error().Err(err).Str(log.FieldEvent, "static.read_failed").Str(log.FieldPath, name).Msg("read asset")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		content = bytes.NewReader(data)
	}

	etag, err := weakETag(info, content)
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "static.read_failed").Str(log.FieldPath, name).Msg("hash asset")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", h.cacheControl)
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		metrics.RecordStatic("not_modified")
		w.WriteHeader(http.StatusNotModified)
		return
	}

	metrics.RecordStatic("served")
	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
}

// weakETag derives the validator from mtime and size. Embedded files have
// no mtime, so their content is hashed instead.
func weakETag(info fs.FileInfo, content io.ReadSeeker) (string, error) {
	if !info.ModTime().IsZero() {
		return fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size()), nil
	}
	d := xxhash.New()
	if _, err := io.Copy(d, content); err != nil {
		return "", err
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return fmt.Sprintf(`W/"%x-%x"`, d.Sum64(), info.Size()), nil
}

// isPathTraversal decodes p repeatedly and normalizes it before looking for
// parent references, NUL bytes and overlong encodings of '.'.
func isPathTraversal(p string) bool {
	if p == "" {
		return false
	}
	decoded := p
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		} else if d, err := url.QueryUnescape(decoded); err == nil {
			decoded = d
		}
		if decoded == prev {
			break
		}
	}

	lower := strings.ToLower(decoded)
	for _, pat := range []string{"%00", "%c0%ae", "%e0%80%ae", "\\"} {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	if strings.IndexByte(decoded, 0) >= 0 {
		return true
	}
	normalized := norm.NFC.String(decoded)
	for _, seg := range strings.Split(normalized, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
