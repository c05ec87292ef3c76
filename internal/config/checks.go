// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"slices"
	"strings"
)

// Finding is one result of a deployment readiness check.
type Finding struct {
	ID      string
	Message string
	Hint    string
}

func (f Finding) String() string {
	if f.Hint == "" {
		return fmt.Sprintf("%s: %s", f.ID, f.Message)
	}
	return fmt.Sprintf("%s: %s (hint: %s)", f.ID, f.Message, f.Hint)
}

const minSecretLength = 50

var insecureSecretPrefixes = []string{"insecure-", "django-insecure-", "changeme"}

// DeployChecks reports settings that are acceptable for local development
// but unsafe on a public deployment. An empty result means no findings.
func DeployChecks(s *Snapshot) []Finding {
	var out []Finding
	app := s.app

	if app.Debug {
		out = append(out, Finding{
			ID:      "deploy.debug",
			Message: "debug mode is enabled",
			Hint:    "set debug: false (POINTCLOUD_DEBUG=false) in production",
		})
	}

	switch {
	case s.secretGenerated:
		out = append(out, Finding{
			ID:      "deploy.secret_ephemeral",
			Message: "secretKey is not configured; an ephemeral key is in use",
			Hint:    "set POINTCLOUD_SECRET_KEY from a secret store",
		})
	case hasInsecurePrefix(app.SecretKey):
		out = append(out, Finding{
			ID:      "deploy.secret_insecure",
			Message: "secretKey carries a well-known insecure prefix",
			Hint:    "generate a fresh key with 'pointcloud config init'",
		})
	case len(app.SecretKey) < minSecretLength:
		out = append(out, Finding{
			ID:      "deploy.secret_short",
			Message: fmt.Sprintf("secretKey has fewer than %d characters", minSecretLength),
		})
	}

	if slices.Contains(app.AllowedHosts, "*") {
		out = append(out, Finding{
			ID:      "deploy.hosts_wildcard",
			Message: "allowedHosts contains '*', any Host header is accepted",
		})
	}
	if !slices.Contains(app.Middleware, MiddlewareSecurity) {
		out = append(out, Finding{
			ID:      "deploy.security_middleware",
			Message: "the security middleware is not in the chain",
		})
	}
	if !slices.Contains(app.Middleware, MiddlewareCSRF) {
		out = append(out, Finding{
			ID:      "deploy.csrf_middleware",
			Message: "the csrf middleware is not in the chain",
		})
	}
	if !slices.Contains(app.Middleware, MiddlewareClickjacking) {
		out = append(out, Finding{
			ID:      "deploy.clickjacking_middleware",
			Message: "the clickjacking middleware is not in the chain",
		})
	}
	if app.Security.HSTSSeconds == 0 {
		out = append(out, Finding{
			ID:      "deploy.hsts",
			Message: "security.hstsSeconds is 0, HSTS is disabled",
			Hint:    "enable once the site is served over HTTPS only",
		})
	}
	if !app.Security.SSLRedirect {
		out = append(out, Finding{
			ID:      "deploy.ssl_redirect",
			Message: "security.sslRedirect is disabled",
		})
	}
	return out
}

func hasInsecurePrefix(secret string) bool {
	lower := strings.ToLower(secret)
	for _, p := range insecureSecretPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// GenerateSecretKey returns a new random secret suitable for secretKey.
func GenerateSecretKey() (string, error) {
	return generateSecret()
}
