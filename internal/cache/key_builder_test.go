package cache

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name   string
		target string
		setup  func(r *http.Request)
		want   string
	}{
		{
			name:   "plain http",
			target: "http://Example.com/api/stats?placeId=1",
			want:   "http://example.com/api/stats?placeId=1",
		},
		{
			name:   "query order preserved",
			target: "http://example.com/api/stats?b=2&placeId=1&a=3",
			want:   "http://example.com/api/stats?b=2&placeId=1&a=3",
		},
		{
			name:   "no query",
			target: "http://example.com/api/stats",
			want:   "http://example.com/api/stats",
		},
		{
			name:   "tls",
			target: "https://example.com/api/stats?placeId=1",
			setup:  func(r *http.Request) { r.TLS = &tls.ConnectionState{} },
			want:   "https://example.com/api/stats?placeId=1",
		},
		{
			name:   "forwarded proto",
			target: "http://example.com/api/stats",
			setup:  func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS, http") },
			want:   "https://example.com/api/stats",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if tt.setup != nil {
				tt.setup(r)
			}
			if got := CanonicalURL(r); got != tt.want {
				t.Fatalf("CanonicalURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildResponseKey(t *testing.T) {
	a := BuildResponseKey(httptest.NewRequest("GET", "http://example.com/api/stats?placeId=1", nil))
	b := BuildResponseKey(httptest.NewRequest("GET", "http://example.com/api/stats?placeId=1", nil))
	c := BuildResponseKey(httptest.NewRequest("GET", "http://example.com/api/stats?placeId=2", nil))
	d := BuildResponseKey(httptest.NewRequest("HEAD", "http://example.com/api/stats?placeId=1", nil))

	if a.String() != b.String() {
		t.Fatalf("identical requests should share a key: %s vs %s", a, b)
	}
	if a.String() == c.String() {
		t.Fatalf("different queries should not share a key")
	}
	if a.String() == d.String() {
		t.Fatalf("different methods should not share a key")
	}
	if !strings.HasPrefix(a.String(), "response:GET:") {
		t.Fatalf("unexpected key format: %s", a)
	}

	method, hash, ok := parseResponseKey(a.String())
	if !ok || method != "GET" || hash != a.Hash {
		t.Fatalf("parseResponseKey(%q) = %q, %q, %v", a.String(), method, hash, ok)
	}
}
