// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/httprate"

	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/control/http/problem"
	"github.com/ManuGH/pointcloud/internal/metrics"
)

// RateLimit limits requests per client IP with a sliding window.
func RateLimit(cfg config.RateLimitConfig) Middleware {
	retryAfter := strconv.Itoa(max(1, int(cfg.Window.Seconds())))
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRejected("rate_limited")
			w.Header().Set("Retry-After", retryAfter)
			problem.Write(w, r, http.StatusTooManyRequests, "RATE_LIMITED",
				"Too many requests. Please try again later.")
		}),
	)
}
