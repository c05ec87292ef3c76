// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/ManuGH/pointcloud/internal/fsutil"
	"github.com/ManuGH/pointcloud/internal/validate"
	"golang.org/x/text/language"
)

// Validate checks cfg against the names built into this binary.
func Validate(cfg AppConfig) error {
	return ValidateWith(cfg, DefaultCatalog())
}

// ValidateWith checks cfg against an explicit catalog of known names.
// All problems are collected and returned as one validate.ValidationError.
func ValidateWith(cfg AppConfig, cat Catalog) error {
	v := validate.New()

	v.AbsPath("baseDir", cfg.BaseDir)

	if !cfg.Debug {
		v.NotEmpty("secretKey", cfg.SecretKey)
		if len(cfg.AllowedHosts) == 0 {
			v.AddError("allowedHosts", "at least one host is required when debug is disabled", cfg.AllowedHosts)
		}
	}
	for i, h := range cfg.AllowedHosts {
		if strings.ContainsAny(h, "/ ") {
			v.AddError(fmt.Sprintf("allowedHosts[%d]", i), "host pattern must not contain '/' or spaces", h)
		}
	}

	v.EachOneOf("installedComponents", cfg.InstalledComponents, cat.Components)
	v.Unique("installedComponents", cfg.InstalledComponents)

	v.EachOneOf("middleware", cfg.Middleware, cat.Middleware)
	v.Unique("middleware", cfg.Middleware)

	v.OneOf("rootRouteTable", cfg.RootRouteTable, cat.RouteTables)
	v.OneOf("entryPoint", cfg.EntryPoint, cat.EntryPoints)
	v.OneOf("defaultPrimaryKey", cfg.DefaultPrimaryKey, cat.PrimaryKeys)

	v.OneOf("templates.backend", cfg.Templates.Backend, cat.TemplateBackends)
	v.EachOneOf("templates.contextProcessors", cfg.Templates.ContextProcessors, cat.ContextProcessors)
	v.Unique("templates.contextProcessors", cfg.Templates.ContextProcessors)
	for i, d := range cfg.Templates.Dirs {
		v.AbsPath(fmt.Sprintf("templates.dirs[%d]", i), d)
	}

	if _, err := language.Parse(cfg.Locale.LanguageCode); err != nil {
		v.AddError("locale.languageCode", fmt.Sprintf("invalid language tag: %v", err), cfg.Locale.LanguageCode)
	}
	if _, err := time.LoadLocation(cfg.Locale.TimeZone); err != nil || cfg.Locale.TimeZone == "" {
		v.AddError("locale.timeZone", "unknown time zone", cfg.Locale.TimeZone)
	}

	v.URLPrefix("static.url", cfg.Static.URL)
	for i, d := range cfg.Static.Dirs {
		v.AbsPath(fmt.Sprintf("static.dirs[%d]", i), d)
	}
	if slices.Contains(cfg.InstalledComponents, ComponentStaticFiles) {
		v.AbsPath("static.root", cfg.Static.Root)
		for _, d := range cfg.Static.Dirs {
			if cfg.Static.Root != "" && (fsutil.Within(d, cfg.Static.Root) || fsutil.Within(cfg.Static.Root, d)) {
				v.AddError("static.root", fmt.Sprintf("publish directory must not overlap source directory %s", d), cfg.Static.Root)
			}
		}
	}

	v.NotEmpty("listenAddr", cfg.ListenAddr)
	if cfg.ShutdownTimeout <= 0 {
		v.AddError("shutdownTimeout", "must be positive", cfg.ShutdownTimeout)
	}
	v.OneOf("logLevel", cfg.LogLevel, []string{"debug", "info", "warn", "error"})

	for i, ip := range cfg.InternalIPs {
		if net.ParseIP(ip) == nil {
			v.AddError(fmt.Sprintf("internalIPs[%d]", i), "not an IP address", ip)
		}
	}
	for i, o := range cfg.CSRFTrustedOrigins {
		v.Origin(fmt.Sprintf("csrfTrustedOrigins[%d]", i), o)
	}
	v.OneOf("frameOptions", cfg.FrameOptions, []string{"DENY", "SAMEORIGIN"})
	v.Range("security.hstsSeconds", cfg.Security.HSTSSeconds, 0, 2*365*24*3600)

	if cfg.Metrics.Enabled {
		v.NotEmpty("metrics.listenAddr", cfg.Metrics.ListenAddr)
	}
	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
	}
	v.Fraction("tracing.samplingRate", cfg.Tracing.SamplingRate)
	if cfg.RateLimit.Enabled {
		v.Positive("rateLimit.requests", cfg.RateLimit.Requests)
		if cfg.RateLimit.Window <= 0 {
			v.AddError("rateLimit.window", "must be positive", cfg.RateLimit.Window)
		}
	}

	return v.Err()
}
