// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/csrf"

	"github.com/ManuGH/pointcloud/internal/config"
	controlhttp "github.com/ManuGH/pointcloud/internal/control/http"
	"github.com/ManuGH/pointcloud/internal/control/http/problem"
	"github.com/ManuGH/pointcloud/internal/log"
	"github.com/ManuGH/pointcloud/internal/metrics"
)

// CSRFCookieName holds the CSRF secret cookie.
const CSRFCookieName = "csrftoken"

// CSRF protects unsafe methods with a double-submit token. The token is
// read from the csrfmiddlewaretoken form field or the X-CSRFToken header.
// The signing key is derived from the secret key. Requests that did not
// arrive over TLS are marked plaintext so Origin and Referer checks use
// the http scheme.
func CSRF(s *config.Snapshot) (Middleware, error) {
	trusted, err := trustedHosts(s.CSRFTrustedOrigins())
	if err != nil {
		return nil, err
	}
	sec := s.Security()

	protect := csrf.Protect(s.DeriveKey("csrf"),
		csrf.CookieName(CSRFCookieName),
		csrf.FieldName(controlhttp.FormFieldCSRFToken),
		csrf.RequestHeader(controlhttp.HeaderCSRFToken),
		csrf.Path("/"),
		csrf.Secure(sec.SSLRedirect || sec.HSTSSeconds > 0),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(trusted),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)

	return func(next http.Handler) http.Handler {
		inner := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			inner.ServeHTTP(w, r)
		})
	}, nil
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	metrics.RecordRejected("csrf")
	logger := log.WithComponentFromContext(r.Context(), "csrf")
	logger.Warn().
		Err(csrf.FailureReason(r)).
		Str(log.FieldEvent, "http.csrf_failed").
		Str(log.FieldMethod, r.Method).
		Str(log.FieldPath, r.URL.Path).
		Msg("CSRF verification failed")
	problem.Write(w, r, http.StatusForbidden, "CSRF_FAILED", "CSRF verification failed. Request aborted.")
}

// trustedHosts turns full origins into the host[:port] form the CSRF
// checker compares against.
func trustedHosts(origins []string) ([]string, error) {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("csrfTrustedOrigins: invalid origin %q", o)
		}
		hosts = append(hosts, u.Host)
	}
	return hosts, nil
}
