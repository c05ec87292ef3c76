// SPDX-License-Identifier: MIT

// Package hosts validates the Host header against the configured allow-list.
package hosts

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/ManuGH/pointcloud/internal/log"
	"github.com/ManuGH/pointcloud/internal/metrics"
)

// ErrDisallowedHost reports a Host header outside the allow-list.
var ErrDisallowedHost = errors.New("disallowed host")

var debugDefaults = []string{"localhost", "127.0.0.1", "[::1]"}

// Matcher decides whether a request host is served.
type Matcher struct {
	patterns []string
	any      bool
}

// NewMatcher compiles allowed. With debug on and an empty list the loopback
// names are allowed so a fresh checkout works without configuration.
func NewMatcher(allowed []string, debug bool) *Matcher {
	if len(allowed) == 0 && debug {
		allowed = debugDefaults
	}
	m := &Matcher{}
	for _, p := range allowed {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if p == "*" {
			m.any = true
		}
		m.patterns = append(m.patterns, p)
	}
	return m
}

// Check returns ErrDisallowedHost when rawHost is not served.
func (m *Matcher) Check(rawHost string) error {
	if !m.Allowed(rawHost) {
		return fmt.Errorf("%w: %q", ErrDisallowedHost, rawHost)
	}
	return nil
}

// Allowed reports whether the raw Host header value matches a pattern.
func (m *Matcher) Allowed(rawHost string) bool {
	host, ok := SplitHost(rawHost)
	if !ok {
		return false
	}
	if m.any {
		return true
	}
	for _, p := range m.patterns {
		if matchPattern(p, host) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, host string) bool {
	if strings.HasPrefix(pattern, ".") {
		return host == pattern[1:] || strings.HasSuffix(host, pattern)
	}
	return host == pattern
}

// SplitHost lower-cases the host part of a Host header and strips the port.
// IPv6 literals keep their brackets so they compare equal to "[::1]".
// A trailing dot is dropped. It reports false for malformed values.
func SplitHost(raw string) (string, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || strings.ContainsAny(raw, " /\\@") {
		return "", false
	}

	host := raw
	if strings.HasPrefix(raw, "[") {
		end := strings.IndexByte(raw, ']')
		if end < 0 {
			return "", false
		}
		host = raw[:end+1]
		rest := raw[end+1:]
		if rest != "" && !validPort(strings.TrimPrefix(rest, ":")) {
			return "", false
		}
		if net.ParseIP(host[1:end]) == nil {
			return "", false
		}
		return host, true
	}

	if i := strings.LastIndexByte(raw, ':'); i >= 0 {
		if strings.Count(raw, ":") > 1 || !validPort(raw[i+1:]) {
			return "", false
		}
		host = raw[:i]
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", false
	}
	return host, true
}

func validPort(p string) bool {
	if p == "" || len(p) > 5 {
		return false
	}
	for _, c := range p {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Middleware rejects requests whose Host is not allowed with 400.
func Middleware(m *Matcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := m.Check(r.Host); err != nil {
				metrics.RecordRejected("disallowed_host")
				logger := log.WithComponentFromContext(r.Context(), "hosts")
				logger.Warn().
					Err(err).
					Str(log.FieldEvent, "http.host_rejected").
					Str(log.FieldHost, r.Host).
					Str(log.FieldPath, r.URL.Path).
					Msg("invalid HTTP_HOST header")
				http.Error(w, "Bad Request (400)", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
