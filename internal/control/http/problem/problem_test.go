package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/pointcloud/internal/log"
)

func TestWrite_PlainText(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	rec := httptest.NewRecorder()
	Write(rec, req, http.StatusForbidden, "CSRF_FAILED", "CSRF token missing")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Forbidden (403)\nCSRF token missing\n", rec.Body.String())
}

func TestWrite_ProblemJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.Header.Set("Accept", "application/json")
	req = req.WithContext(log.ContextWithRequestID(req.Context(), "req-1"))
	rec := httptest.NewRecorder()
	Write(rec, req, http.StatusTooManyRequests, "RATE_LIMITED", "")

	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.Equal(t, float64(429), body["status"])
	assert.Equal(t, "/upload", body["instance"])
	assert.Equal(t, "req-1", body["requestId"])
	assert.NotContains(t, body, "detail")
}
