package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"placestats-edge/pkg/logging/logging"
)

func TestCORSHeadersOnEveryResponse(t *testing.T) {
	for _, code := range []int{http.StatusOK, http.StatusNoContent, http.StatusBadGateway} {
		h := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("status %d: allow-origin = %q", code, got)
		}
		if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "get, options" {
			t.Fatalf("status %d: allow-methods = %q", code, got)
		}
		if got := rr.Header().Get("Access-Control-Allow-Headers"); got != "content-type" {
			t.Fatalf("status %d: allow-headers = %q", code, got)
		}
	}
}

func TestRecovererReturns500(t *testing.T) {
	h := Recoverer()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req = req.WithContext(logging.WithLogger(req.Context(), zap.NewNop()))
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected no-store, got %q", got)
	}
}

func TestLoggingContextAttachesRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	h := chimw.RequestID(LoggingContext(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.L(r.Context()).Info("inside")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/stats?placeId=1", nil)
	req.Header.Set("Origin", "https://dash.example")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/api/stats" || fields["method"] != http.MethodGet {
		t.Fatalf("missing method/path: %v", fields)
	}
	if fields["request_id"] == nil || fields["request_id"] == "" {
		t.Fatalf("missing request_id: %v", fields)
	}
	if fields["origin"] != "https://dash.example" {
		t.Fatalf("missing origin: %v", fields)
	}
}

func TestTimeoutSetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
		<-r.Context().Done()
		w.WriteHeader(http.StatusBadGateway)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req = req.WithContext(logging.WithLogger(context.Background(), zap.NewNop()))

	rr := httptest.NewRecorder()
	start := time.Now()
	h.ServeHTTP(rr, req)

	if !ok || deadline.Before(start) {
		t.Fatalf("expected a deadline on the request context")
	}
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("handler response should pass through, got %d", rr.Code)
	}
}
