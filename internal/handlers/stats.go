package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"placestats-edge/internal/aggregator"
	"placestats-edge/internal/cache"
	"placestats-edge/pkg/logging/logging"

	"go.uber.org/zap"
)

const (
	PlaceIDParam = "placeId"

	contentTypeJSON = "application/json; charset=utf-8"
	failureMessage  = "failed to load stats"
)

// Aggregator produces the stats record for a place.
type Aggregator interface {
	Aggregate(ctx context.Context, placeID string) (*aggregator.Record, error)
	DefaultPlaceID() string
}

// StatsHandler holds dependencies for the /api/stats endpoint.
type StatsHandler struct {
	Cache    cache.ResponseCache
	CacheTTL time.Duration
	Agg      Aggregator

	writes *backgroundWriter
}

func NewStatsHandler(c cache.ResponseCache, ttl time.Duration, agg Aggregator) *StatsHandler {
	return &StatsHandler{
		Cache:    c,
		CacheTTL: ttl,
		Agg:      agg,
		writes:   newBackgroundWriter(5 * time.Second),
	}
}

// Options answers the CORS pre-flight for /api/stats. The CORS headers
// themselves come from middleware.
func (h *StatsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/stats?placeId=<id>.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	placeID := r.URL.Query().Get(PlaceIDParam)
	defaulted := placeID == ""
	if defaulted {
		placeID = h.Agg.DefaultPlaceID()
	}

	ctx := logging.WithFields(r.Context(), zap.String("place_id", placeID))
	logger := logging.L(ctx)
	if defaulted {
		logger.Info("place id not supplied, serving configured default")
	}

	key := cache.BuildResponseKey(r)
	cacheKey := key.String()

	// ---- response cache lookup ----
	cacheLookupStart := time.Now()
	cachedBytes, hit, cacheErr := h.Cache.Get(ctx, cacheKey)
	cacheLookupLatency := time.Since(cacheLookupStart)

	if cacheErr != nil {
		// Cache is best-effort; log and treat as miss.
		logger.Warn("response_cache_get_error", zap.Error(cacheErr))
	}

	if hit {
		entry, err := cache.DecodeEntry(cachedBytes)
		if err != nil {
			logger.Warn("response_cache_decode_error", zap.Error(err))
		} else {
			logger.Info("cache_decision",
				zap.String("url_hash", key.Hash),
				zap.Bool("cache_hit", true),
				zap.Duration("cache_lookup_latency_ms", cacheLookupLatency),
				zap.Duration("total_latency_ms", time.Since(start)),
			)
			writeEntry(w, r, entry)
			return
		}
	}

	// ---- cache miss: aggregate upstream ----
	aggStart := time.Now()
	rec, err := h.Agg.Aggregate(ctx, placeID)
	aggLatency := time.Since(aggStart)

	if err != nil {
		logger.Info("cache_decision",
			zap.String("url_hash", key.Hash),
			zap.Bool("cache_hit", false),
			zap.Bool("aggregation_ok", false),
			zap.Duration("aggregation_latency_ms", aggLatency),
			zap.Duration("total_latency_ms", time.Since(start)),
		)
		writeFailure(w)
		return
	}

	body, err := json.Marshal(rec)
	if err != nil {
		logger.Error("marshal_record_error", zap.Error(err))
		writeFailure(w)
		return
	}

	header := http.Header{}
	header.Set("Content-Type", contentTypeJSON)
	header.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(h.CacheTTL/time.Second)))
	header.Set("ETag", cache.ETagFor(body))
	entry := cache.NewEntry(http.StatusOK, header, body, h.CacheTTL)

	// Only successes are cached; the write must not hold up the response.
	h.writes.Go(ctx, "response_cache_set", func(ctx context.Context) error {
		data, err := entry.Encode()
		if err != nil {
			return err
		}
		return h.Cache.Set(ctx, cacheKey, data, h.CacheTTL)
	})

	logger.Info("cache_decision",
		zap.String("url_hash", key.Hash),
		zap.Bool("cache_hit", false),
		zap.Bool("aggregation_ok", true),
		zap.Duration("cache_lookup_latency_ms", cacheLookupLatency),
		zap.Duration("aggregation_latency_ms", aggLatency),
		zap.Duration("total_latency_ms", time.Since(start)),
	)

	writeEntry(w, r, entry)
}

// Drain waits for scheduled cache writes. Call it after the server has
// stopped accepting requests.
func (h *StatsHandler) Drain(ctx context.Context) error {
	return h.writes.Wait(ctx)
}

// writeEntry sends a cached or freshly built response, answering 304 when
// the client already holds this version.
func writeEntry(w http.ResponseWriter, r *http.Request, entry *cache.Entry) {
	for k, vs := range entry.Header {
		w.Header()[k] = append([]string(nil), vs...)
	}

	if entry.StatusCode == http.StatusOK && entry.MatchesETag(r.Header.Get("If-None-Match")) {
		w.Header().Del("Content-Type")
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(entry.StatusCode)
	_, _ = w.Write(entry.Body)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeFailure sends the fixed 502. Upstream detail never reaches the caller.
func writeFailure(w http.ResponseWriter) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusBadGateway)
	body, _ := json.Marshal(errorBody{Error: failureMessage})
	_, _ = w.Write(body)
}
