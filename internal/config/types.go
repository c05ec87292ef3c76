// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the complete application settings record. It is populated by
// the Loader and frozen into a Snapshot before anything else sees it.
type AppConfig struct {
	Version string
	BaseDir string

	SecretKey           string
	Debug               bool
	AllowedHosts        []string
	InstalledComponents []string
	Middleware          []string // applied in this order, first entry outermost
	RootRouteTable      string
	Templates           TemplateConfig
	EntryPoint          string
	Locale              LocaleConfig
	Static              StaticConfig
	DefaultPrimaryKey   string

	ListenAddr      string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogService      string

	InternalIPs        []string
	CSRFTrustedOrigins []string
	FrameOptions       string
	AppendSlash        bool
	Security           SecurityConfig

	Metrics   MetricsConfig
	Tracing   TracingConfig
	RateLimit RateLimitConfig
}

// TemplateConfig describes how templates are located.
type TemplateConfig struct {
	Backend           string
	Dirs              []string
	AppDirs           bool // also search each installed component's templates
	ContextProcessors []string
}

// LocaleConfig carries language and time zone behavior.
type LocaleConfig struct {
	LanguageCode string
	TimeZone     string
	UseI18N      bool
	UseTZ        bool
}

// StaticConfig describes static asset serving and publishing.
type StaticConfig struct {
	URL  string   // public URL prefix, e.g. "/static/"
	Dirs []string // source directories searched in order
	Root string   // publish directory written by collectstatic
}

// SecurityConfig tunes the "security" middleware.
type SecurityConfig struct {
	HSTSSeconds             int
	HSTSIncludeSubdomains   bool
	HSTSPreload             bool
	SSLRedirect             bool
	ContentTypeNosniff      bool
	ReferrerPolicy          string
	CrossOriginOpenerPolicy string
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled    bool
	ListenAddr string
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool
	Exporter     string // "grpc" or "http"
	Endpoint     string
	SamplingRate float64
}

// RateLimitConfig controls per-IP request limiting.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// FileConfig is the on-disk YAML form. Pointer and slice fields distinguish
// "absent" from "zero" so the file only overrides what it names; an explicit
// empty list ("allowedHosts: []") overrides the default.
type FileConfig struct {
	BaseDir             string   `yaml:"baseDir,omitempty"`
	SecretKey           string   `yaml:"secretKey,omitempty"`
	Debug               *bool    `yaml:"debug,omitempty"`
	AllowedHosts        []string `yaml:"allowedHosts"`
	InstalledComponents []string `yaml:"installedComponents"`
	Middleware          []string `yaml:"middleware"`
	RootRouteTable      string   `yaml:"rootRouteTable,omitempty"`
	EntryPoint          string   `yaml:"entryPoint,omitempty"`
	DefaultPrimaryKey   string   `yaml:"defaultPrimaryKey,omitempty"`

	Templates *FileTemplates `yaml:"templates,omitempty"`
	Locale    *FileLocale    `yaml:"locale,omitempty"`
	Static    *FileStatic    `yaml:"static,omitempty"`

	ListenAddr      string `yaml:"listenAddr,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
	LogLevel        string `yaml:"logLevel,omitempty"`
	LogService      string `yaml:"logService,omitempty"`

	InternalIPs        []string      `yaml:"internalIPs"`
	CSRFTrustedOrigins []string      `yaml:"csrfTrustedOrigins"`
	FrameOptions       string        `yaml:"frameOptions,omitempty"`
	AppendSlash        *bool         `yaml:"appendSlash,omitempty"`
	Security           *FileSecurity `yaml:"security,omitempty"`

	Metrics   *FileMetrics   `yaml:"metrics,omitempty"`
	Tracing   *FileTracing   `yaml:"tracing,omitempty"`
	RateLimit *FileRateLimit `yaml:"rateLimit,omitempty"`
}

type FileTemplates struct {
	Backend           string   `yaml:"backend,omitempty"`
	Dirs              []string `yaml:"dirs"`
	AppDirs           *bool    `yaml:"appDirs,omitempty"`
	ContextProcessors []string `yaml:"contextProcessors"`
}

type FileLocale struct {
	LanguageCode string `yaml:"languageCode,omitempty"`
	TimeZone     string `yaml:"timeZone,omitempty"`
	UseI18N      *bool  `yaml:"useI18n,omitempty"`
	UseTZ        *bool  `yaml:"useTz,omitempty"`
}

type FileStatic struct {
	URL  string   `yaml:"url,omitempty"`
	Dirs []string `yaml:"dirs"`
	Root string   `yaml:"root,omitempty"`
}

type FileSecurity struct {
	HSTSSeconds             *int   `yaml:"hstsSeconds,omitempty"`
	HSTSIncludeSubdomains   *bool  `yaml:"hstsIncludeSubdomains,omitempty"`
	HSTSPreload             *bool  `yaml:"hstsPreload,omitempty"`
	SSLRedirect             *bool  `yaml:"sslRedirect,omitempty"`
	ContentTypeNosniff      *bool  `yaml:"contentTypeNosniff,omitempty"`
	ReferrerPolicy          string `yaml:"referrerPolicy,omitempty"`
	CrossOriginOpenerPolicy string `yaml:"crossOriginOpenerPolicy,omitempty"`
}

type FileMetrics struct {
	Enabled    *bool  `yaml:"enabled,omitempty"`
	ListenAddr string `yaml:"listenAddr,omitempty"`
}

type FileTracing struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}

type FileRateLimit struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Requests *int   `yaml:"requests,omitempty"`
	Window   string `yaml:"window,omitempty"`
}
