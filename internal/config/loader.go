// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	catalog         Catalog
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		catalog:         DefaultCatalog(),
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// WithCatalog replaces the set of names accepted during validation.
func (l *Loader) WithCatalog(c Catalog) *Loader {
	l.catalog = c
	return l
}

// ConfigPath returns the file this loader reads, or "" for ENV-only mode.
func (l *Loader) ConfigPath() string {
	return l.configPath
}

// Wrapper methods for mechanical connection tracking

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: defaults -> strict file -> env -> anchor paths at BaseDir -> normalize -> validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := AppConfig{}

	registry, err := GetRegistry()
	if err != nil {
		return cfg, fmt.Errorf("config registry: %w", err)
	}
	if err := registry.ApplyDefaults(&cfg); err != nil {
		return cfg, fmt.Errorf("set defaults: %w", err)
	}

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	cfg.Version = l.version

	if err := l.resolvePaths(&cfg); err != nil {
		return cfg, fmt.Errorf("resolve paths: %w", err)
	}
	normalize(&cfg)

	if err := ValidateWith(cfg, l.catalog); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return decodeStrict(data)
}

func decodeStrict(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

// LoadFileConfig loads a YAML config file without applying defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	return NewLoader(path, "").loadFile(path)
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	setString(&cfg.BaseDir, f.BaseDir)
	setString(&cfg.SecretKey, f.SecretKey)
	setBool(&cfg.Debug, f.Debug)
	setList(&cfg.AllowedHosts, f.AllowedHosts)
	setList(&cfg.InstalledComponents, f.InstalledComponents)
	setList(&cfg.Middleware, f.Middleware)
	setString(&cfg.RootRouteTable, f.RootRouteTable)
	setString(&cfg.EntryPoint, f.EntryPoint)
	setString(&cfg.DefaultPrimaryKey, f.DefaultPrimaryKey)

	if t := f.Templates; t != nil {
		setString(&cfg.Templates.Backend, t.Backend)
		setList(&cfg.Templates.Dirs, t.Dirs)
		setBool(&cfg.Templates.AppDirs, t.AppDirs)
		setList(&cfg.Templates.ContextProcessors, t.ContextProcessors)
	}
	if lc := f.Locale; lc != nil {
		setString(&cfg.Locale.LanguageCode, lc.LanguageCode)
		setString(&cfg.Locale.TimeZone, lc.TimeZone)
		setBool(&cfg.Locale.UseI18N, lc.UseI18N)
		setBool(&cfg.Locale.UseTZ, lc.UseTZ)
	}
	if s := f.Static; s != nil {
		setString(&cfg.Static.URL, s.URL)
		setList(&cfg.Static.Dirs, s.Dirs)
		setString(&cfg.Static.Root, s.Root)
	}

	setString(&cfg.ListenAddr, f.ListenAddr)
	if err := setDuration(&cfg.ShutdownTimeout, f.ShutdownTimeout, "shutdownTimeout"); err != nil {
		return err
	}
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.LogService, f.LogService)

	setList(&cfg.InternalIPs, f.InternalIPs)
	setList(&cfg.CSRFTrustedOrigins, f.CSRFTrustedOrigins)
	setString(&cfg.FrameOptions, f.FrameOptions)
	setBool(&cfg.AppendSlash, f.AppendSlash)

	if s := f.Security; s != nil {
		if s.HSTSSeconds != nil {
			cfg.Security.HSTSSeconds = *s.HSTSSeconds
		}
		setBool(&cfg.Security.HSTSIncludeSubdomains, s.HSTSIncludeSubdomains)
		setBool(&cfg.Security.HSTSPreload, s.HSTSPreload)
		setBool(&cfg.Security.SSLRedirect, s.SSLRedirect)
		setBool(&cfg.Security.ContentTypeNosniff, s.ContentTypeNosniff)
		setString(&cfg.Security.ReferrerPolicy, s.ReferrerPolicy)
		setString(&cfg.Security.CrossOriginOpenerPolicy, s.CrossOriginOpenerPolicy)
	}
	if m := f.Metrics; m != nil {
		setBool(&cfg.Metrics.Enabled, m.Enabled)
		setString(&cfg.Metrics.ListenAddr, m.ListenAddr)
	}
	if t := f.Tracing; t != nil {
		setBool(&cfg.Tracing.Enabled, t.Enabled)
		setString(&cfg.Tracing.Exporter, t.Exporter)
		setString(&cfg.Tracing.Endpoint, t.Endpoint)
		if t.SamplingRate != nil {
			cfg.Tracing.SamplingRate = *t.SamplingRate
		}
	}
	if r := f.RateLimit; r != nil {
		setBool(&cfg.RateLimit.Enabled, r.Enabled)
		if r.Requests != nil {
			cfg.RateLimit.Requests = *r.Requests
		}
		if err := setDuration(&cfg.RateLimit.Window, r.Window, "rateLimit.window"); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.BaseDir = l.envString("POINTCLOUD_BASE_DIR", cfg.BaseDir)
	cfg.SecretKey = l.envString("POINTCLOUD_SECRET_KEY", cfg.SecretKey)
	cfg.Debug = l.envBool("POINTCLOUD_DEBUG", cfg.Debug)
	cfg.AllowedHosts = l.envList("POINTCLOUD_ALLOWED_HOSTS", cfg.AllowedHosts)
	cfg.InstalledComponents = l.envList("POINTCLOUD_INSTALLED_COMPONENTS", cfg.InstalledComponents)
	cfg.Middleware = l.envList("POINTCLOUD_MIDDLEWARE", cfg.Middleware)
	cfg.RootRouteTable = l.envString("POINTCLOUD_ROOT_ROUTE_TABLE", cfg.RootRouteTable)
	cfg.EntryPoint = l.envString("POINTCLOUD_ENTRY_POINT", cfg.EntryPoint)
	cfg.DefaultPrimaryKey = l.envString("POINTCLOUD_DEFAULT_PRIMARY_KEY", cfg.DefaultPrimaryKey)

	cfg.Locale.LanguageCode = l.envString("POINTCLOUD_LANGUAGE_CODE", cfg.Locale.LanguageCode)
	cfg.Locale.TimeZone = l.envString("POINTCLOUD_TIME_ZONE", cfg.Locale.TimeZone)
	cfg.Locale.UseI18N = l.envBool("POINTCLOUD_USE_I18N", cfg.Locale.UseI18N)
	cfg.Locale.UseTZ = l.envBool("POINTCLOUD_USE_TZ", cfg.Locale.UseTZ)

	cfg.Static.URL = l.envString("POINTCLOUD_STATIC_URL", cfg.Static.URL)
	cfg.Static.Root = l.envString("POINTCLOUD_STATIC_ROOT", cfg.Static.Root)

	cfg.ListenAddr = l.envString("POINTCLOUD_LISTEN", cfg.ListenAddr)
	cfg.ShutdownTimeout = l.envDuration("POINTCLOUD_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.LogLevel = l.envString("POINTCLOUD_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString("POINTCLOUD_LOG_SERVICE", cfg.LogService)

	cfg.InternalIPs = l.envList("POINTCLOUD_INTERNAL_IPS", cfg.InternalIPs)
	cfg.CSRFTrustedOrigins = l.envList("POINTCLOUD_CSRF_TRUSTED_ORIGINS", cfg.CSRFTrustedOrigins)
	cfg.FrameOptions = l.envString("POINTCLOUD_FRAME_OPTIONS", cfg.FrameOptions)
	cfg.AppendSlash = l.envBool("POINTCLOUD_APPEND_SLASH", cfg.AppendSlash)
	cfg.Security.HSTSSeconds = l.envInt("POINTCLOUD_HSTS_SECONDS", cfg.Security.HSTSSeconds)
	cfg.Security.SSLRedirect = l.envBool("POINTCLOUD_SSL_REDIRECT", cfg.Security.SSLRedirect)

	cfg.Metrics.Enabled = l.envBool("POINTCLOUD_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.ListenAddr = l.envString("POINTCLOUD_METRICS_LISTEN", cfg.Metrics.ListenAddr)

	cfg.Tracing.Enabled = l.envBool("POINTCLOUD_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = l.envString("POINTCLOUD_TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString("POINTCLOUD_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = l.envFloat("POINTCLOUD_TRACING_SAMPLING_RATE", cfg.Tracing.SamplingRate)

	cfg.RateLimit.Enabled = l.envBool("POINTCLOUD_RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Requests = l.envInt("POINTCLOUD_RATE_LIMIT_REQUESTS", cfg.RateLimit.Requests)
	cfg.RateLimit.Window = l.envDuration("POINTCLOUD_RATE_LIMIT_WINDOW", cfg.RateLimit.Window)
}

// resolvePaths anchors every filesystem setting at BaseDir. BaseDir itself
// comes from the settings, else the config file's directory, else the
// working directory.
func (l *Loader) resolvePaths(cfg *AppConfig) error {
	base := cfg.BaseDir
	if l.configPath != "" {
		switch {
		case base == "":
			base = filepath.Dir(l.configPath)
		case !filepath.IsAbs(base):
			base = filepath.Join(filepath.Dir(l.configPath), base)
		}
	}
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("working directory: %w", err)
		}
		base = wd
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return fmt.Errorf("base dir: %w", err)
	}
	cfg.BaseDir = abs

	cfg.Templates.Dirs = anchorAll(abs, cfg.Templates.Dirs)
	cfg.Static.Dirs = anchorAll(abs, cfg.Static.Dirs)
	if cfg.Static.Root != "" {
		cfg.Static.Root = anchor(abs, cfg.Static.Root)
	}
	return nil
}

func anchor(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func anchorAll(base string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, anchor(base, p))
	}
	return out
}

func normalize(cfg *AppConfig) {
	cfg.AllowedHosts = dedupeFold(cfg.AllowedHosts)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.FrameOptions = strings.ToUpper(strings.TrimSpace(cfg.FrameOptions))

	if u := strings.TrimSpace(cfg.Static.URL); u != "" {
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		cfg.Static.URL = u
	}
}

// dedupeFold drops case-insensitive repeats and keeps first-seen order.
func dedupeFold(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		k := strings.ToLower(strings.TrimSpace(v))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setList(dst *[]string, v []string) {
	if v != nil {
		*dst = append(make([]string, 0, len(v)), v...)
	}
}

func setDuration(dst *time.Duration, v, field string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, v, err)
	}
	*dst = d
	return nil
}

// Defaults returns the registry defaults with paths anchored at baseDir.
// It performs no validation and reads neither files nor the environment.
func Defaults(baseDir string) (AppConfig, error) {
	cfg := AppConfig{BaseDir: baseDir}
	registry, err := GetRegistry()
	if err != nil {
		return cfg, err
	}
	if err := registry.ApplyDefaults(&cfg); err != nil {
		return cfg, err
	}
	cfg.BaseDir = baseDir
	l := &Loader{}
	if err := l.resolvePaths(&cfg); err != nil {
		return cfg, err
	}
	normalize(&cfg)
	return cfg, nil
}
