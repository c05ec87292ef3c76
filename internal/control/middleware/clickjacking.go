// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import "net/http"

// Clickjacking sets X-Frame-Options. A value already present, or one the
// handler sets itself, is left alone.
func Clickjacking(option string) Middleware {
	if option == "" {
		option = "DENY"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if w.Header().Get("X-Frame-Options") == "" {
				w.Header().Set("X-Frame-Options", option)
			}
			next.ServeHTTP(w, r)
		})
	}
}
