// SPDX-License-Identifier: MIT

// Package locale selects the request language and the display time zone.
package locale

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/log"
)

const (
	// CookieName holds the signed language choice.
	CookieName = "pointcloud_language"
	// QueryParam switches the language for this and later requests.
	QueryParam = "lang"

	cookieMaxAge = 365 * 24 * 60 * 60
)

type ctxKey struct{}

type selection struct {
	tag     language.Tag
	printer *message.Printer
}

// Negotiator picks a language per request.
type Negotiator struct {
	enabled  bool
	fallback language.Tag
	tags     []language.Tag
	matcher  language.Matcher
	codec    *securecookie.SecureCookie
}

// NewNegotiator builds a negotiator from the snapshot. The configured
// language is preferred; the built-in catalog languages are also offered.
func NewNegotiator(s *config.Snapshot) *Negotiator {
	tags := []language.Tag{s.Language()}
	for _, t := range builtinTags {
		if t != s.Language() {
			tags = append(tags, t)
		}
	}
	codec := securecookie.New(s.DeriveKey("locale.cookie"), nil)
	codec.MaxAge(cookieMaxAge)
	return &Negotiator{
		enabled:  s.Locale().UseI18N,
		fallback: s.Language(),
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		codec:    codec,
	}
}

// Supported lists the languages a request may end up with, preferred first.
func (n *Negotiator) Supported() []language.Tag {
	return append([]language.Tag(nil), n.tags...)
}

// Middleware stores the chosen language in the request context. With i18n
// disabled every request gets the configured language.
func (n *Negotiator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := n.fallback
		if n.enabled {
			tag = n.choose(w, r)
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, selection{tag: tag, printer: NewPrinter(tag)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (n *Negotiator) choose(w http.ResponseWriter, r *http.Request) language.Tag {
	if q := r.URL.Query().Get(QueryParam); q != "" {
		if tag, ok := n.match(q); ok {
			n.persist(w, r, tag)
			return tag
		}
	}

	if c, err := r.Cookie(CookieName); err == nil {
		var stored string
		if err := n.codec.Decode(CookieName, c.Value, &stored); err == nil {
			if tag, ok := n.match(stored); ok {
				return tag
			}
		} else {
			logger := log.WithComponentFromContext(r.Context(), "locale")
			logger.Debug().Err(err).
				Str(log.FieldEvent, "locale.cookie_rejected").
				Msg("ignoring language cookie")
		}
	}

	if accept := r.Header.Get("Accept-Language"); accept != "" {
		prefs, _, err := language.ParseAcceptLanguage(accept)
		if err == nil && len(prefs) > 0 {
			_, idx, conf := n.matcher.Match(prefs...)
			if conf != language.No {
				return n.tags[idx]
			}
		}
	}
	return n.fallback
}

// match accepts a language only when it maps to a supported one.
func (n *Negotiator) match(raw string) (language.Tag, bool) {
	tag, err := language.Parse(raw)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := n.matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return n.tags[idx], true
}

func (n *Negotiator) persist(w http.ResponseWriter, r *http.Request, tag language.Tag) {
	value, err := n.codec.Encode(CookieName, tag.String())
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "locale")
		logger.Warn().Err(err).Str(log.FieldEvent, "locale.cookie_encode_failed").Msg("cannot persist language")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromContext returns the request language, or Und outside the middleware.
func FromContext(ctx context.Context) language.Tag {
	if sel, ok := ctx.Value(ctxKey{}).(selection); ok {
		return sel.tag
	}
	return language.Und
}

// PrinterFromContext returns the request's message printer. Outside the
// middleware it prints English.
func PrinterFromContext(ctx context.Context) *message.Printer {
	if sel, ok := ctx.Value(ctxKey{}).(selection); ok {
		return sel.printer
	}
	return NewPrinter(language.English)
}

// Zone is where times are displayed: the configured zone with useTz,
// otherwise the server's local zone.
func Zone(s *config.Snapshot) *time.Location {
	if s.Locale().UseTZ {
		return s.Location()
	}
	return time.Local
}
