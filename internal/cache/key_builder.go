package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// ResponseKey identifies a cached response by the fully-qualified request.
type ResponseKey struct {
	Method string
	URL    string // canonical scheme://host/path?query
	Hash   string // sha256 hex of URL
}

// String converts the structured key into the final string used in Redis/map.
func (k ResponseKey) String() string {
	// response:<METHOD>:<HASH_HEX>
	return fmt.Sprintf("response:%s:%s", k.Method, k.Hash)
}

// BuildResponseKey builds the cache key for r. The query string is used as
// received: parameters are not reordered or re-encoded, so two URLs that
// differ only in parameter order are distinct keys.
func BuildResponseKey(r *http.Request) ResponseKey {
	canonical := CanonicalURL(r)
	sum := sha256.Sum256([]byte(canonical))

	return ResponseKey{
		Method: strings.ToUpper(r.Method),
		URL:    canonical,
		Hash:   hex.EncodeToString(sum[:]),
	}
}

// CanonicalURL renders scheme+host+path+query for r.
func CanonicalURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}

	host := r.Host
	if host == "" {
		host = r.URL.Host
	}
	host = strings.ToLower(host)

	path := r.URL.EscapedPath()
	if path == "" {
		path = "/"
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	b.WriteString(path)
	if r.URL.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(r.URL.RawQuery)
	}
	return b.String()
}
