// SPDX-License-Identifier: MIT

package config

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"slices"
	"time"

	"github.com/ManuGH/pointcloud/internal/log"
	"golang.org/x/text/language"
)

// Snapshot is the immutable, effective runtime configuration.
// Accessors hand out copies; nothing reachable from a Snapshot can be
// modified after NewSnapshot returns. A reload builds a new Snapshot.
type Snapshot struct {
	app             AppConfig
	lang            language.Tag
	loc             *time.Location
	secretGenerated bool
	builtAt         time.Time
}

// NewSnapshot freezes an already validated AppConfig. When debug is on and no
// secret is configured, an ephemeral random secret is generated so signed
// values work for the lifetime of the process only.
func NewSnapshot(app AppConfig) (*Snapshot, error) {
	return buildSnapshot(app, "")
}

// buildSnapshot reuses inherited as the ephemeral secret when set, so a
// reload does not invalidate values signed under the previous snapshot.
func buildSnapshot(app AppConfig, inherited string) (*Snapshot, error) {
	app = app.Clone()

	s := &Snapshot{builtAt: time.Now()}

	if app.SecretKey == "" {
		if !app.Debug {
			return nil, ErrMissingSecret
		}
		secret := inherited
		if secret == "" {
			var err error
			if secret, err = generateSecret(); err != nil {
				return nil, fmt.Errorf("generate ephemeral secret: %w", err)
			}
			logger := log.WithComponent("config")
			logger.Warn().
				Str(log.FieldEvent, "config.secret_generated").
				Msg("no secretKey configured; using an ephemeral key (signed cookies will not survive restarts)")
		}
		app.SecretKey = secret
		s.secretGenerated = true
	}

	tag, err := language.Parse(app.Locale.LanguageCode)
	if err != nil {
		return nil, fmt.Errorf("locale.languageCode: %w", err)
	}
	loc, err := time.LoadLocation(app.Locale.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("locale.timeZone: %w", err)
	}

	s.app = app
	s.lang = tag
	s.loc = loc
	return s, nil
}

func generateSecret() (string, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// App returns a deep copy of the underlying settings record.
func (s *Snapshot) App() AppConfig { return s.app.Clone() }

func (s *Snapshot) Version() string            { return s.app.Version }
func (s *Snapshot) BaseDir() string            { return s.app.BaseDir }
func (s *Snapshot) SecretKey() string          { return s.app.SecretKey }
func (s *Snapshot) Debug() bool                { return s.app.Debug }
func (s *Snapshot) AllowedHosts() []string     { return slices.Clone(s.app.AllowedHosts) }
func (s *Snapshot) Middleware() []string       { return slices.Clone(s.app.Middleware) }
func (s *Snapshot) RootRouteTable() string     { return s.app.RootRouteTable }
func (s *Snapshot) Templates() TemplateConfig  { return s.app.Templates.Clone() }
func (s *Snapshot) EntryPoint() string         { return s.app.EntryPoint }
func (s *Snapshot) Locale() LocaleConfig       { return s.app.Locale }
func (s *Snapshot) Static() StaticConfig       { return s.app.Static.Clone() }
func (s *Snapshot) DefaultPrimaryKey() string  { return s.app.DefaultPrimaryKey }
func (s *Snapshot) ListenAddr() string         { return s.app.ListenAddr }
func (s *Snapshot) FrameOptions() string       { return s.app.FrameOptions }
func (s *Snapshot) AppendSlash() bool          { return s.app.AppendSlash }
func (s *Snapshot) Security() SecurityConfig   { return s.app.Security }
func (s *Snapshot) RateLimit() RateLimitConfig { return s.app.RateLimit }
func (s *Snapshot) InternalIPs() []string      { return slices.Clone(s.app.InternalIPs) }

// CSRFTrustedOrigins lists origins allowed to submit unsafe requests
// cross-site, as full origins (scheme://host[:port]).
func (s *Snapshot) CSRFTrustedOrigins() []string {
	return slices.Clone(s.app.CSRFTrustedOrigins)
}

// InstalledComponents returns component names in installation order.
func (s *Snapshot) InstalledComponents() []string {
	return slices.Clone(s.app.InstalledComponents)
}

// HasComponent reports whether name is installed.
func (s *Snapshot) HasComponent(name string) bool {
	return slices.Contains(s.app.InstalledComponents, name)
}

// Language is the parsed form of Locale().LanguageCode.
func (s *Snapshot) Language() language.Tag { return s.lang }

// Location is the loaded form of Locale().TimeZone.
func (s *Snapshot) Location() *time.Location { return s.loc }

// SecretGenerated reports whether SecretKey is an ephemeral per-process value.
func (s *Snapshot) SecretGenerated() bool { return s.secretGenerated }

// BuiltAt is when the snapshot was frozen.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// DeriveKey returns a 32-byte key bound to purpose. Distinct purposes yield
// unrelated keys, so the raw secret is never used directly.
func (s *Snapshot) DeriveKey(purpose string) []byte {
	mac := hmac.New(sha256.New, []byte(s.app.SecretKey))
	mac.Write([]byte("pointcloud.key." + purpose))
	return mac.Sum(nil)
}
