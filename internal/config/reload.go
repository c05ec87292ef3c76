// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	xglog "github.com/ManuGH/pointcloud/internal/log"
	"github.com/ManuGH/pointcloud/internal/metrics"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const reloadDebounce = 500 * time.Millisecond

// Holder holds the current Snapshot and swaps it atomically on reload.
// Readers never observe a partially applied configuration.
type Holder struct {
	current atomic.Pointer[Snapshot]
	loader  *Loader
	logger  zerolog.Logger

	reloading sync.Mutex // serializes Reload
	watchMu   sync.Mutex
	watcher   *fsnotify.Watcher

	reloadMu        sync.RWMutex
	reloadListeners []chan<- *Snapshot
}

// NewHolder creates a holder serving initial until the first successful reload.
func NewHolder(initial *Snapshot, loader *Loader) *Holder {
	h := &Holder{
		loader: loader,
		logger: xglog.WithComponent("config"),
	}
	h.current.Store(initial)
	return h
}

// Current returns the active snapshot.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// ConfigPath returns the watched settings file, or "" when settings come
// from the environment only.
func (h *Holder) ConfigPath() string {
	return h.loader.ConfigPath()
}

// Reload re-runs the loader. If loading or validation fails, the old
// snapshot is kept and an error is returned.
func (h *Holder) Reload(_ context.Context) error {
	h.reloading.Lock()
	defer h.reloading.Unlock()

	h.logger.Info().Str(xglog.FieldEvent, "config.reload_start").Msg("reloading configuration")

	cfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.reload_failed").
			Msg("failed to load new configuration")
		metrics.RecordReload(false, 0)
		return fmt.Errorf("load config: %w", err)
	}
	var inherited string
	if prev := h.current.Load(); prev != nil && prev.secretGenerated {
		inherited = prev.app.SecretKey
	}
	next, err := buildSnapshot(cfg, inherited)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.reload_failed").
			Msg("failed to freeze new configuration")
		metrics.RecordReload(false, 0)
		return fmt.Errorf("snapshot config: %w", err)
	}

	prev := h.current.Swap(next)
	h.notifyListeners(next)
	h.logChanges(prev, next)
	metrics.RecordReload(true, float64(next.BuiltAt().Unix()))

	h.logger.Info().
		Str(xglog.FieldEvent, "config.reload_success").
		Msg("configuration reloaded successfully")
	return nil
}

// StartWatcher watches the config file for changes. The parent directory is
// watched so editors that replace the file by rename are still seen.
// If the loader has no config path, this is a no-op.
func (h *Holder) StartWatcher(ctx context.Context) error {
	path := h.loader.ConfigPath()
	if path == "" {
		h.logger.Info().
			Str(xglog.FieldEvent, "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	h.watchMu.Lock()
	h.watcher = watcher
	h.watchMu.Unlock()

	h.logger.Info().
		Str(xglog.FieldEvent, "config.watcher_started").
		Str(xglog.FieldConfigPath, path).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, watcher, path)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(xglog.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			_ = watcher.Close()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str(xglog.FieldEvent, "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(reloadDebounce, func() {
				if ctx.Err() != nil {
					return
				}
				if err := h.Reload(ctx); err != nil {
					h.logger.Error().
						Err(err).
						Str(xglog.FieldEvent, "config.auto_reload_failed").
						Msg("automatic config reload failed; keeping previous configuration")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop stops the config watcher (if running).
func (h *Holder) Stop() {
	h.watchMu.Lock()
	defer h.watchMu.Unlock()
	if h.watcher != nil {
		_ = h.watcher.Close()
		h.watcher = nil
	}
}

// RegisterListener registers a channel to receive config reload notifications.
// The caller is responsible for closing the channel.
func (h *Holder) RegisterListener(ch chan<- *Snapshot) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.reloadListeners = append(h.reloadListeners, ch)
}

// notifyListeners sends the new snapshot to all registered listeners (non-blocking).
func (h *Holder) notifyListeners(next *Snapshot) {
	h.reloadMu.RLock()
	defer h.reloadMu.RUnlock()

	for _, ch := range h.reloadListeners {
		select {
		case ch <- next:
		default:
			h.logger.Warn().
				Str(xglog.FieldEvent, "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

func (h *Holder) logChanges(prev, next *Snapshot) {
	if prev == nil {
		return
	}
	summary := Diff(prev.app, next.app)
	if len(summary.ChangedFields) == 0 {
		h.logger.Info().Str(xglog.FieldEvent, "config.unchanged").Msg("configuration unchanged")
		return
	}
	h.logger.Info().
		Str(xglog.FieldEvent, "config.changed").
		Strs("fields", summary.ChangedFields).
		Bool("restart_required", summary.RestartRequired).
		Msg("configuration changed")
}
