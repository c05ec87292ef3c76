// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

// Profile defines the operator persona for a configuration option.
type Profile string

const (
	ProfileSimple   Profile = "Simple"
	ProfileAdvanced Profile = "Advanced"
	ProfileInternal Profile = "Internal"
)

// Status defines the lifecycle state of a configuration option.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInternal Status = "Internal"
)

// ConfigEntry defines a single configuration option's metadata.
type ConfigEntry struct {
	Path      string  // User-facing Path (e.g. "static.url")
	Env       string  // Environment Variable (e.g. "POINTCLOUD_STATIC_URL")
	FieldPath string  // Internal Field Path (e.g. "Static.URL")
	Profile   Profile // Operator Profile
	Status    Status  // Lifecycle Status
	Default   any     // Default value
}

// Registry manages the configuration surface inventory.
type Registry struct {
	Entries []ConfigEntry // declaration order
	ByPath  map[string]ConfigEntry
	ByField map[string]ConfigEntry
	ByEnv   map[string]ConfigEntry
}

var (
	globalRegistry    *Registry
	globalRegistryErr error
	registryOnce      sync.Once
)

// GetRegistry returns the global configuration registry.
// It returns an error if the registry contains duplicates or is otherwise invalid.
func GetRegistry() (*Registry, error) {
	registryOnce.Do(func() {
		globalRegistry, globalRegistryErr = buildRegistry(registryEntries())
	})
	return globalRegistry, globalRegistryErr
}

func registryEntries() []ConfigEntry {
	return []ConfigEntry{
		// --- CORE ---
		{FieldPath: "Version", Profile: ProfileInternal, Status: StatusInternal},
		{Path: "baseDir", Env: "POINTCLOUD_BASE_DIR", FieldPath: "BaseDir", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "secretKey", Env: "POINTCLOUD_SECRET_KEY", FieldPath: "SecretKey", Profile: ProfileSimple, Status: StatusActive},
		{Path: "debug", Env: "POINTCLOUD_DEBUG", FieldPath: "Debug", Profile: ProfileSimple, Status: StatusActive, Default: true},
		{Path: "allowedHosts", Env: "POINTCLOUD_ALLOWED_HOSTS", FieldPath: "AllowedHosts", Profile: ProfileSimple, Status: StatusActive, Default: []string{"127.0.0.1", "localhost"}},
		{Path: "installedComponents", Env: "POINTCLOUD_INSTALLED_COMPONENTS", FieldPath: "InstalledComponents", Profile: ProfileAdvanced, Status: StatusActive, Default: []string{ComponentStaticFiles, ComponentVisualization}},
		{Path: "middleware", Env: "POINTCLOUD_MIDDLEWARE", FieldPath: "Middleware", Profile: ProfileAdvanced, Status: StatusActive, Default: []string{MiddlewareSecurity, MiddlewareCommon, MiddlewareCSRF, MiddlewareClickjacking}},
		{Path: "rootRouteTable", Env: "POINTCLOUD_ROOT_ROUTE_TABLE", FieldPath: "RootRouteTable", Profile: ProfileAdvanced, Status: StatusActive, Default: RouteTablePointcloud},
		{Path: "entryPoint", Env: "POINTCLOUD_ENTRY_POINT", FieldPath: "EntryPoint", Profile: ProfileAdvanced, Status: StatusActive, Default: EntryPointPointcloud},
		{Path: "defaultPrimaryKey", Env: "POINTCLOUD_DEFAULT_PRIMARY_KEY", FieldPath: "DefaultPrimaryKey", Profile: ProfileAdvanced, Status: StatusActive, Default: PrimaryKeyBigAuto},

		// --- TEMPLATES ---
		{Path: "templates.backend", FieldPath: "Templates.Backend", Profile: ProfileAdvanced, Status: StatusActive, Default: TemplateBackendGoHTML},
		{Path: "templates.dirs", FieldPath: "Templates.Dirs", Profile: ProfileAdvanced, Status: StatusActive, Default: []string{}},
		{Path: "templates.appDirs", FieldPath: "Templates.AppDirs", Profile: ProfileAdvanced, Status: StatusActive, Default: true},
		{Path: "templates.contextProcessors", FieldPath: "Templates.ContextProcessors", Profile: ProfileAdvanced, Status: StatusActive, Default: []string{ContextProcessorDebug, ContextProcessorRequest, ContextProcessorStatic}},

		// --- LOCALE ---
		{Path: "locale.languageCode", Env: "POINTCLOUD_LANGUAGE_CODE", FieldPath: "Locale.LanguageCode", Profile: ProfileSimple, Status: StatusActive, Default: "en-us"},
		{Path: "locale.timeZone", Env: "POINTCLOUD_TIME_ZONE", FieldPath: "Locale.TimeZone", Profile: ProfileSimple, Status: StatusActive, Default: "UTC"},
		{Path: "locale.useI18n", Env: "POINTCLOUD_USE_I18N", FieldPath: "Locale.UseI18N", Profile: ProfileAdvanced, Status: StatusActive, Default: true},
		{Path: "locale.useTz", Env: "POINTCLOUD_USE_TZ", FieldPath: "Locale.UseTZ", Profile: ProfileAdvanced, Status: StatusActive, Default: true},

		// --- STATIC ---
		{Path: "static.url", Env: "POINTCLOUD_STATIC_URL", FieldPath: "Static.URL", Profile: ProfileSimple, Status: StatusActive, Default: "/static/"},
		{Path: "static.dirs", FieldPath: "Static.Dirs", Profile: ProfileAdvanced, Status: StatusActive, Default: []string{"static"}},
		{Path: "static.root", Env: "POINTCLOUD_STATIC_ROOT", FieldPath: "Static.Root", Profile: ProfileSimple, Status: StatusActive, Default: "staticfiles"},

		// --- SERVER ---
		{Path: "listenAddr", Env: "POINTCLOUD_LISTEN", FieldPath: "ListenAddr", Profile: ProfileSimple, Status: StatusActive, Default: ":8000"},
		{Path: "shutdownTimeout", Env: "POINTCLOUD_SHUTDOWN_TIMEOUT", FieldPath: "ShutdownTimeout", Profile: ProfileAdvanced, Status: StatusActive, Default: 10 * time.Second},
		{Path: "logLevel", Env: "POINTCLOUD_LOG_LEVEL", FieldPath: "LogLevel", Profile: ProfileSimple, Status: StatusActive, Default: "info"},
		{Path: "logService", Env: "POINTCLOUD_LOG_SERVICE", FieldPath: "LogService", Profile: ProfileAdvanced, Status: StatusActive, Default: "pointcloud"},

		// --- SECURITY ---
		{Path: "internalIPs", Env: "POINTCLOUD_INTERNAL_IPS", FieldPath: "InternalIPs", Profile: ProfileAdvanced, Status: StatusActive, Default: []string{}},
		{Path: "csrfTrustedOrigins", Env: "POINTCLOUD_CSRF_TRUSTED_ORIGINS", FieldPath: "CSRFTrustedOrigins", Profile: ProfileAdvanced, Status: StatusActive, Default: []string{}},
		{Path: "frameOptions", Env: "POINTCLOUD_FRAME_OPTIONS", FieldPath: "FrameOptions", Profile: ProfileAdvanced, Status: StatusActive, Default: "DENY"},
		{Path: "appendSlash", Env: "POINTCLOUD_APPEND_SLASH", FieldPath: "AppendSlash", Profile: ProfileAdvanced, Status: StatusActive, Default: true},
		{Path: "security.hstsSeconds", Env: "POINTCLOUD_HSTS_SECONDS", FieldPath: "Security.HSTSSeconds", Profile: ProfileAdvanced, Status: StatusActive, Default: 0},
		{Path: "security.hstsIncludeSubdomains", FieldPath: "Security.HSTSIncludeSubdomains", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "security.hstsPreload", FieldPath: "Security.HSTSPreload", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "security.sslRedirect", Env: "POINTCLOUD_SSL_REDIRECT", FieldPath: "Security.SSLRedirect", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "security.contentTypeNosniff", FieldPath: "Security.ContentTypeNosniff", Profile: ProfileAdvanced, Status: StatusActive, Default: true},
		{Path: "security.referrerPolicy", FieldPath: "Security.ReferrerPolicy", Profile: ProfileAdvanced, Status: StatusActive, Default: "same-origin"},
		{Path: "security.crossOriginOpenerPolicy", FieldPath: "Security.CrossOriginOpenerPolicy", Profile: ProfileAdvanced, Status: StatusActive, Default: "same-origin"},

		// --- METRICS ---
		{Path: "metrics.enabled", Env: "POINTCLOUD_METRICS_ENABLED", FieldPath: "Metrics.Enabled", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "metrics.listenAddr", Env: "POINTCLOUD_METRICS_LISTEN", FieldPath: "Metrics.ListenAddr", Profile: ProfileAdvanced, Status: StatusActive, Default: ":9090"},

		// --- TRACING ---
		{Path: "tracing.enabled", Env: "POINTCLOUD_TRACING_ENABLED", FieldPath: "Tracing.Enabled", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "tracing.exporter", Env: "POINTCLOUD_TRACING_EXPORTER", FieldPath: "Tracing.Exporter", Profile: ProfileAdvanced, Status: StatusActive, Default: "grpc"},
		{Path: "tracing.endpoint", Env: "POINTCLOUD_TRACING_ENDPOINT", FieldPath: "Tracing.Endpoint", Profile: ProfileAdvanced, Status: StatusActive, Default: "localhost:4317"},
		{Path: "tracing.samplingRate", Env: "POINTCLOUD_TRACING_SAMPLING_RATE", FieldPath: "Tracing.SamplingRate", Profile: ProfileAdvanced, Status: StatusActive, Default: 1.0},

		// --- RATE LIMIT ---
		{Path: "rateLimit.enabled", Env: "POINTCLOUD_RATE_LIMIT_ENABLED", FieldPath: "RateLimit.Enabled", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "rateLimit.requests", Env: "POINTCLOUD_RATE_LIMIT_REQUESTS", FieldPath: "RateLimit.Requests", Profile: ProfileAdvanced, Status: StatusActive, Default: 100},
		{Path: "rateLimit.window", Env: "POINTCLOUD_RATE_LIMIT_WINDOW", FieldPath: "RateLimit.Window", Profile: ProfileAdvanced, Status: StatusActive, Default: time.Minute},
	}
}

func buildRegistry(entries []ConfigEntry) (*Registry, error) {
	r := &Registry{
		ByPath:  make(map[string]ConfigEntry),
		ByField: make(map[string]ConfigEntry),
		ByEnv:   make(map[string]ConfigEntry),
	}

	for _, e := range entries {
		if e.Path != "" {
			if _, dup := r.ByPath[e.Path]; dup {
				return nil, fmt.Errorf("duplicate registry path: %s", e.Path)
			}
			r.ByPath[e.Path] = e
		}
		if e.FieldPath != "" {
			if _, dup := r.ByField[e.FieldPath]; dup {
				return nil, fmt.Errorf("duplicate registry field: %s", e.FieldPath)
			}
			r.ByField[e.FieldPath] = e
		}
		if e.Env != "" {
			if _, dup := r.ByEnv[e.Env]; dup {
				return nil, fmt.Errorf("duplicate registry env: %s", e.Env)
			}
			r.ByEnv[e.Env] = e
		}
		r.Entries = append(r.Entries, e)
	}

	return r, nil
}

// ValidateFieldCoverage uses reflection to ensure every field in AppConfig is registered.
func (r *Registry) ValidateFieldCoverage(cfg AppConfig) error {
	return r.validateStruct("", reflect.TypeOf(cfg))
}

func (r *Registry) validateStruct(prefix string, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		fieldPath := f.Name
		if prefix != "" {
			fieldPath = prefix + "." + f.Name
		}

		if f.Type.Kind() == reflect.Struct && !isSimpleStruct(f.Type) {
			if err := r.validateStruct(fieldPath, f.Type); err != nil {
				return err
			}
			continue
		}

		if _, ok := r.ByField[fieldPath]; !ok {
			return fmt.Errorf("field %q is not registered in the config registry", fieldPath)
		}
	}
	return nil
}

// ApplyDefaults applies registered default values to the given AppConfig.
// Returns an error if any default cannot be set (indicates registry misconfiguration).
func (r *Registry) ApplyDefaults(cfg *AppConfig) error {
	v := reflect.ValueOf(cfg).Elem()
	for _, entry := range r.Entries {
		if entry.Default == nil {
			continue
		}
		if err := setField(v, entry.FieldPath, entry.Default); err != nil {
			return fmt.Errorf("failed to set default for %s: %w", entry.FieldPath, err)
		}
	}
	return nil
}

func setField(v reflect.Value, fieldPath string, value any) error {
	parts := strings.Split(fieldPath, ".")
	curr := v
	for i, p := range parts {
		f := curr.FieldByName(p)
		if !f.IsValid() {
			return fmt.Errorf("field %s not found", p)
		}
		if i < len(parts)-1 {
			curr = f
			continue
		}

		val := reflect.ValueOf(value)
		if val.Kind() == reflect.Slice {
			// Defaults are shared; every config gets its own backing array.
			dup := reflect.MakeSlice(val.Type(), val.Len(), val.Len())
			reflect.Copy(dup, val)
			val = dup
		}
		if f.Type() != val.Type() {
			if !val.Type().ConvertibleTo(f.Type()) {
				return fmt.Errorf("type mismatch for %s: expected %v, got %v", fieldPath, f.Type(), val.Type())
			}
			val = val.Convert(f.Type())
		}
		f.Set(val)
	}
	return nil
}

func isSimpleStruct(t reflect.Type) bool {
	path := t.PkgPath()
	name := t.Name()
	return path == "time" && (name == "Duration" || name == "Time")
}
