package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	res, err := NewClientIPResolver(nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"direct public peer", "203.0.113.9:5100", nil, "203.0.113.9"},
		{"public peer cannot spoof", "203.0.113.9:5100", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.9"},
		{"trusted proxy forwards chain", "10.0.0.2:80", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"}, "198.51.100.7"},
		{"trusted proxy with real ip", "127.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.8"}, "198.51.100.8"},
		{"garbage forwarded header", "192.168.1.1:80", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.168.1.1"},
		{"remote without port", "198.51.100.1", nil, "198.51.100.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, res.ClientIP(r))
		})
	}
}

func TestNewClientIPResolver_InvalidCIDR(t *testing.T) {
	_, err := NewClientIPResolver([]string{"10.0.0.0/33"})
	assert.Error(t, err)
}

func TestRealIP(t *testing.T) {
	res, err := NewClientIPResolver([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	var seen string
	h := res.RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { seen = r.RemoteAddr }))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.1.1:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.3")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "198.51.100.3", seen)
}

func TestHeaders(t *testing.T) {
	h := Headers(DefaultHeadersConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}
