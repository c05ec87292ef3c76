// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Manager handles configuration persistence.
type Manager struct {
	configPath string
}

// NewManager creates a new configuration manager.
func NewManager(configPath string) *Manager {
	return &Manager{configPath: configPath}
}

// Save writes cfg to disk atomically. Paths under BaseDir are written
// relative to it so the file stays valid when the tree is moved.
func (m *Manager) Save(cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0750); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	data, err := MarshalFile(ToFileConfig(cfg, filepath.Dir(m.configPath)))
	if err != nil {
		return err
	}

	pendingFile, err := renameio.NewPendingFile(m.configPath, renameio.WithPermissions(0600))
	if err != nil {
		return fmt.Errorf("create pending config file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace config file: %w", err)
	}
	return nil
}

// MarshalFile encodes fc as two-space indented YAML.
func MarshalFile(fc FileConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fc); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// ToFileConfig maps cfg back to its file form. baseDir is omitted when it
// equals fileDir, the directory the file will live in.
func ToFileConfig(cfg AppConfig, fileDir string) FileConfig {
	rel := func(p string) string {
		if r, err := filepath.Rel(cfg.BaseDir, p); err == nil && !strings.HasPrefix(r, "..") {
			return r
		}
		return p
	}
	relAll := func(ps []string) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = rel(p)
		}
		return out
	}

	fc := FileConfig{
		SecretKey:           cfg.SecretKey,
		Debug:               boolPtr(cfg.Debug),
		AllowedHosts:        nonNil(cfg.AllowedHosts),
		InstalledComponents: nonNil(cfg.InstalledComponents),
		Middleware:          nonNil(cfg.Middleware),
		RootRouteTable:      cfg.RootRouteTable,
		EntryPoint:          cfg.EntryPoint,
		DefaultPrimaryKey:   cfg.DefaultPrimaryKey,
		Templates: &FileTemplates{
			Backend:           cfg.Templates.Backend,
			Dirs:              relAll(cfg.Templates.Dirs),
			AppDirs:           boolPtr(cfg.Templates.AppDirs),
			ContextProcessors: nonNil(cfg.Templates.ContextProcessors),
		},
		Locale: &FileLocale{
			LanguageCode: cfg.Locale.LanguageCode,
			TimeZone:     cfg.Locale.TimeZone,
			UseI18N:      boolPtr(cfg.Locale.UseI18N),
			UseTZ:        boolPtr(cfg.Locale.UseTZ),
		},
		Static: &FileStatic{
			URL:  cfg.Static.URL,
			Dirs: relAll(cfg.Static.Dirs),
			Root: rel(cfg.Static.Root),
		},
		ListenAddr:         cfg.ListenAddr,
		ShutdownTimeout:    cfg.ShutdownTimeout.String(),
		LogLevel:           cfg.LogLevel,
		LogService:         cfg.LogService,
		InternalIPs:        nonNil(cfg.InternalIPs),
		CSRFTrustedOrigins: nonNil(cfg.CSRFTrustedOrigins),
		FrameOptions:       cfg.FrameOptions,
		AppendSlash:        boolPtr(cfg.AppendSlash),
		Security: &FileSecurity{
			HSTSSeconds:             intPtr(cfg.Security.HSTSSeconds),
			HSTSIncludeSubdomains:   boolPtr(cfg.Security.HSTSIncludeSubdomains),
			HSTSPreload:             boolPtr(cfg.Security.HSTSPreload),
			SSLRedirect:             boolPtr(cfg.Security.SSLRedirect),
			ContentTypeNosniff:      boolPtr(cfg.Security.ContentTypeNosniff),
			ReferrerPolicy:          cfg.Security.ReferrerPolicy,
			CrossOriginOpenerPolicy: cfg.Security.CrossOriginOpenerPolicy,
		},
		Metrics: &FileMetrics{
			Enabled:    boolPtr(cfg.Metrics.Enabled),
			ListenAddr: cfg.Metrics.ListenAddr,
		},
		Tracing: &FileTracing{
			Enabled:      boolPtr(cfg.Tracing.Enabled),
			Exporter:     cfg.Tracing.Exporter,
			Endpoint:     cfg.Tracing.Endpoint,
			SamplingRate: &cfg.Tracing.SamplingRate,
		},
		RateLimit: &FileRateLimit{
			Enabled:  boolPtr(cfg.RateLimit.Enabled),
			Requests: intPtr(cfg.RateLimit.Requests),
			Window:   cfg.RateLimit.Window.String(),
		},
	}
	if abs, err := filepath.Abs(fileDir); err != nil || abs != cfg.BaseDir {
		fc.BaseDir = cfg.BaseDir
	}
	return fc
}

// nonNil makes an empty list encode as "[]" so it round-trips as an override.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }
