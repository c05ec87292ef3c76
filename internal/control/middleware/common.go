// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Common redirects GET and HEAD requests for "/x" to "/x/" when appendSlash
// is on, "/x" has no route and "/x/" does. The query string is kept.
func Common(appendSlash bool, routes chi.Routes) Middleware {
	return func(next http.Handler) http.Handler {
		if !appendSlash || routes == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldAppendSlash(routes, r) {
				target := r.URL.Path + "/"
				if r.URL.RawQuery != "" {
					target += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, target, http.StatusMovedPermanently)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func shouldAppendSlash(routes chi.Routes, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	p := r.URL.Path
	if p == "" || strings.HasSuffix(p, "/") {
		return false
	}
	if routes.Match(chi.NewRouteContext(), r.Method, p) {
		return false
	}
	return routes.Match(chi.NewRouteContext(), r.Method, p+"/")
}
