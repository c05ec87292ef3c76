// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/log"
)

// PerformStartupChecks validates the runtime environment before the
// server binds. Missing source directories are warnings; an unusable
// listen address is fatal.
func PerformStartupChecks(s *config.Snapshot) error {
	logger := log.WithComponent("startup-check")

	if err := checkListenAddr(s.ListenAddr()); err != nil {
		return fmt.Errorf("listen address: %w", err)
	}
	if m := s.App().Metrics; m.Enabled {
		if err := checkListenAddr(m.ListenAddr); err != nil {
			return fmt.Errorf("metrics listen address: %w", err)
		}
	}

	tc := s.Templates()
	for _, dir := range tc.Dirs {
		warnIfNotDir(logger, "templates.dirs", dir)
	}
	if s.HasComponent(config.ComponentStaticFiles) {
		for _, dir := range s.Static().Dirs {
			warnIfNotDir(logger, "static.dirs", dir)
		}
		if !s.Debug() {
			warnIfNotDir(logger, "static.root", s.Static().Root)
		}
	}

	logger.Info().Str(log.FieldEvent, "startup.checks_passed").Msg("startup checks passed")
	return nil
}

func checkListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port %q in %q", port, addr)
	}
	return nil
}

func warnIfNotDir(logger zerolog.Logger, setting, path string) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		logger.Warn().Err(err).
			Str(log.FieldEvent, "startup.dir_missing").
			Str("setting", setting).
			Str(log.FieldPath, path).
			Msg("configured directory is not accessible")
	case !info.IsDir():
		logger.Warn().
			Str(log.FieldEvent, "startup.not_a_dir").
			Str("setting", setting).
			Str(log.FieldPath, path).
			Msg("configured path is not a directory")
	}
}
