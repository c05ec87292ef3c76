// SPDX-License-Identifier: MIT

package hosts

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_Allowed(t *testing.T) {
	m := NewMatcher([]string{"127.0.0.1", "localhost", ".example.com", "Viewer.Lab"}, false)

	cases := map[string]bool{
		"localhost":         true,
		"LOCALHOST:8000":    true,
		"127.0.0.1:8000":    true,
		"example.com":       true,
		"a.b.example.com":   true,
		"badexample.com":    false,
		"viewer.lab":        true,
		"viewer.lab.":       true,
		"evil.com":          false,
		"":                  false,
		"localhost:port":    false,
		"user@localhost":    false,
		"localhost:8000:1":  false,
		"[::1]":             false,
		"example.com/extra": false,
	}
	for host, want := range cases {
		assert.Equal(t, want, m.Allowed(host), "host %q", host)
	}
}

func TestMatcher_Wildcard(t *testing.T) {
	m := NewMatcher([]string{"*"}, false)
	assert.True(t, m.Allowed("anything.example.org:443"))
	assert.False(t, m.Allowed("bad host"))
}

func TestMatcher_DebugEmptyListAllowsLoopback(t *testing.T) {
	m := NewMatcher(nil, true)
	assert.True(t, m.Allowed("localhost"))
	assert.True(t, m.Allowed("127.0.0.1:8000"))
	assert.True(t, m.Allowed("[::1]:8000"))
	assert.False(t, m.Allowed("example.com"))

	strict := NewMatcher(nil, false)
	assert.False(t, strict.Allowed("localhost"))
}

func TestSplitHost(t *testing.T) {
	h, ok := SplitHost("[::1]:8000")
	assert.True(t, ok)
	assert.Equal(t, "[::1]", h)

	_, ok = SplitHost("[::1")
	assert.False(t, ok)

	_, ok = SplitHost("[zz]")
	assert.False(t, ok)

	h, ok = SplitHost("Example.COM:80")
	assert.True(t, ok)
	assert.Equal(t, "example.com", h)
}

func TestMiddleware_RejectsDisallowedHost(t *testing.T) {
	h := Middleware(NewMatcher([]string{"viewer.example.com"}, false))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "viewer.example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "attacker.example.net"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatcher_CheckWrapsSentinel(t *testing.T) {
	m := NewMatcher([]string{".example.com"}, false)
	assert.NoError(t, m.Check("a.example.com"))

	err := m.Check("example.org")
	assert.True(t, errors.Is(err, ErrDisallowedHost))
	assert.Contains(t, err.Error(), "example.org")
}
