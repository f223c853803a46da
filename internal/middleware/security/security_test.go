package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_ExtractClientIP(t *testing.T) {
	d, err := NewDetector("10.0.0.0/8")
	require.NoError(t, err)

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{"direct client", "203.0.113.5:1234", "", "", "203.0.113.5"},
		{"untrusted peer ignores xff", "203.0.113.5:1234", "1.2.3.4", "", "203.0.113.5"},
		{"trusted proxy uses first xff", "10.1.2.3:80", "1.2.3.4, 10.1.2.3", "", "1.2.3.4"},
		{"loopback is trusted", "127.0.0.1:80", "", "5.6.7.8", "5.6.7.8"},
		{"invalid xff falls back to real ip", "10.1.2.3:80", "garbage", "5.6.7.8", "5.6.7.8"},
		{"no port", "198.51.100.7", "", "", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, d.ExtractClientIP(r))
		})
	}
	assert.Equal(t, int64(1), d.GetMetrics().InvalidIPAttempts)
}

func TestNewDetector_InvalidCIDR(t *testing.T) {
	_, err := NewDetector("not-a-cidr")
	assert.ErrorContains(t, err, "invalid CIDR")
}

func TestDetector_Middleware(t *testing.T) {
	d, err := NewDetector()
	require.NoError(t, err)
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	cases := []struct {
		path, agent string
		want        int
	}{
		{"/api/expenses?filter=weekly", "Mozilla/5.0", http.StatusOK},
		{"/api/expenses", "curl/8.0", http.StatusOK},
		{"/.env", "", http.StatusNotFound},
		{"/api/expenses?q=../../etc/passwd", "", http.StatusNotFound},
		{"/", "sqlmap/1.7", http.StatusNotFound},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodGet, c.path, nil)
		r.Header.Set("User-Agent", c.agent)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		assert.Equal(t, c.want, rr.Code, c.path)
	}
	assert.Equal(t, int64(3), d.GetMetrics().SuspiciousRequests)
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}
