// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"

	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/fsutil"
)

// SnapshotFunc returns the active configuration.
type SnapshotFunc func() *config.Snapshot

// ConfigChecker reports on the active configuration. An ephemeral secret
// is degraded outside debug mode, since signed values will not survive a
// restart. With Path set, a settings file that is gone or no longer
// parses is degraded: the server keeps the last good snapshot but the
// next restart would fail.
type ConfigChecker struct {
	Current SnapshotFunc
	Path    string
}

func (c ConfigChecker) Name() string { return "config" }

func (c ConfigChecker) Check(_ context.Context) CheckResult {
	s := c.Current()
	if s == nil {
		return CheckResult{Status: StatusUnhealthy, Error: "no configuration loaded"}
	}
	if c.Path != "" {
		if err := fsutil.IsRegularFile(c.Path); err != nil {
			return CheckResult{Status: StatusDegraded, Message: "settings file unavailable", Error: err.Error()}
		}
		if _, err := config.LoadFileConfig(c.Path); err != nil {
			return CheckResult{Status: StatusDegraded, Message: "settings file on disk is invalid", Error: err.Error()}
		}
	}
	if s.SecretGenerated() && !s.Debug() {
		return CheckResult{Status: StatusDegraded, Message: "ephemeral secret key in use"}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("loaded %s", s.BuiltAt().UTC().Format("2006-01-02T15:04:05Z"))}
}

// PublishDirChecker verifies that collected static files exist when they
// are served from the publish directory (debug off, staticfiles installed).
type PublishDirChecker struct {
	Current SnapshotFunc
}

func (c PublishDirChecker) Name() string { return "staticfiles" }

func (c PublishDirChecker) Check(_ context.Context) CheckResult {
	s := c.Current()
	if s == nil || !s.HasComponent(config.ComponentStaticFiles) {
		return CheckResult{Status: StatusHealthy, Message: "not installed"}
	}
	if s.Debug() {
		return CheckResult{Status: StatusHealthy, Message: "served from finders"}
	}
	root := s.Static().Root
	entries, err := os.ReadDir(root)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Message: "run collectstatic", Error: err.Error()}
	}
	if len(entries) == 0 {
		return CheckResult{Status: StatusDegraded, Message: "publish directory is empty; run collectstatic"}
	}
	return CheckResult{Status: StatusHealthy}
}

// TemplateFinder resolves a template name.
type TemplateFinder interface {
	Find(name string) (string, []byte, error)
}

// TemplateChecker confirms a required template resolves on the search path.
type TemplateChecker struct {
	Finder   func() TemplateFinder
	Template string
}

func (c TemplateChecker) Name() string { return "templates" }

func (c TemplateChecker) Check(_ context.Context) CheckResult {
	f := c.Finder()
	if f == nil {
		return CheckResult{Status: StatusUnhealthy, Error: "template engine not ready"}
	}
	src, _, err := f.Find(c.Template)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%s from %s", c.Template, src)}
}
