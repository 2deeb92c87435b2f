package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func limitedHandler(rps float64, burst int) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return RateLimit(rps, burst)(next)
}

func doGet(h http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitRejectsBeyondBurst(t *testing.T) {
	h := limitedHandler(1, 2)

	assert.Equal(t, http.StatusOK, doGet(h, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, doGet(h, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, doGet(h, "10.0.0.1:1234"))
}

func TestRateLimitIsPerClient(t *testing.T) {
	h := limitedHandler(1, 1)

	assert.Equal(t, http.StatusOK, doGet(h, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, doGet(h, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, doGet(h, "10.0.0.2:1234"), "a second client has its own bucket")
}

func TestExtractClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.9")

	assert.Equal(t, "203.0.113.7", extractClientIP(req))
}
