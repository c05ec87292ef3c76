// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"fmt"
	"net/http"

	"github.com/ManuGH/pointcloud/internal/config"
)

// Security sets transport and content security headers and optionally
// redirects plain HTTP to HTTPS. HSTS is only sent over HTTPS.
func Security(sec config.SecurityConfig) Middleware {
	hsts := ""
	if sec.HSTSSeconds > 0 {
		hsts = fmt.Sprintf("max-age=%d", sec.HSTSSeconds)
		if sec.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if sec.HSTSPreload {
			hsts += "; preload"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isHTTPS := r.TLS != nil

			if sec.SSLRedirect && !isHTTPS {
				http.Redirect(w, r, "https://"+r.Host+r.URL.RequestURI(), http.StatusMovedPermanently)
				return
			}

			h := w.Header()
			if hsts != "" && isHTTPS {
				h.Set("Strict-Transport-Security", hsts)
			}
			if sec.ContentTypeNosniff {
				h.Set("X-Content-Type-Options", "nosniff")
			}
			if sec.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", sec.ReferrerPolicy)
			}
			if sec.CrossOriginOpenerPolicy != "" {
				h.Set("Cross-Origin-Opener-Policy", sec.CrossOriginOpenerPolicy)
			}

			next.ServeHTTP(w, r)
		})
	}
}
