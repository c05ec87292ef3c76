// Package problem writes error responses. Clients that accept JSON get an
// RFC 7807 problem document; everyone else gets a short plain-text page.
package problem

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	controlhttp "github.com/ManuGH/pointcloud/internal/control/http"
	"github.com/ManuGH/pointcloud/internal/log"
)

// Write sends an error response for status.
//
//   - code: stable machine-readable short code (e.g. "CSRF_FAILED").
//   - detail: human-readable explanation of this occurrence.
func Write(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	reqID := log.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = w.Header().Get(controlhttp.HeaderRequestID)
	}
	if reqID != "" {
		w.Header().Set(controlhttp.HeaderRequestID, reqID)
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")

	title := http.StatusText(status)
	if !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		body := fmt.Sprintf("%s (%d)\n", title, status)
		if detail != "" {
			body += detail + "\n"
		}
		_, _ = w.Write([]byte(body))
		return
	}

	res := map[string]any{
		"type":   "about:blank",
		"title":  title,
		"status": status,
		"code":   code,
	}
	if detail != "" {
		res["detail"] = detail
	}
	if p := r.URL.EscapedPath(); p != "" {
		res["instance"] = p
	}
	if reqID != "" {
		res[controlhttp.JSONKeyRequestID] = reqID
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "problem")
		logger.Error().Err(err).
			Str("code", code).
			Int(log.FieldStatus, status).
			Msg("failed to encode problem response")
	}
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") || strings.Contains(accept, "application/problem+json")
}
