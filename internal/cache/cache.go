package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidEntry indicates a stored value could not be decoded into an Entry.
var ErrInvalidEntry = errors.New("invalid cache entry")

// ResponseCache is the store the stats handler reads ahead of the aggregator.
// Implemented by the memory cache (dev, tests) and Redis (prod).
// Freshness is the store's job: Get must never return a value past the ttl
// it was written with.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Entry is a serialized HTTP response as held by a ResponseCache.
// Entries are written whole and never updated in place.
type Entry struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	ETag       string      `json:"etag"`
	CachedAt   time.Time   `json:"cached_at"`
	Expires    time.Time   `json:"expires"`
}

// NewEntry captures a response for caching. The header is cloned and the
// ETag is derived from the body.
func NewEntry(statusCode int, header http.Header, body []byte, ttl time.Duration) *Entry {
	now := time.Now().UTC()
	return &Entry{
		StatusCode: statusCode,
		Header:     header.Clone(),
		Body:       body,
		ETag:       ETagFor(body),
		CachedAt:   now,
		Expires:    now.Add(ttl),
	}
}

// ETagFor returns a strong validator for body.
func ETagFor(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// MatchesETag reports whether an If-None-Match header value selects this entry.
func (e *Entry) MatchesETag(ifNoneMatch string) bool {
	if e.ETag == "" || ifNoneMatch == "" {
		return false
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == e.ETag {
			return true
		}
	}
	return false
}

// Encode serializes the entry for storage.
func (e *Entry) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}
	return data, nil
}

// DecodeEntry parses a stored value.
func DecodeEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if e.StatusCode == 0 {
		return nil, fmt.Errorf("%w: missing status code", ErrInvalidEntry)
	}
	return &e, nil
}
