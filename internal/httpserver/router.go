package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"placestats-edge/internal/cache"
	"placestats-edge/internal/handlers"
	"placestats-edge/internal/metrics"
	"placestats-edge/internal/middleware"
	"placestats-edge/pkg/logging/logging"
)

// Options configures SetupRouter. Zero values disable the optional parts.
type Options struct {
	// Readiness is probed by /readyz. Nil means always ready.
	Readiness cache.Pinger
	// StaticDir is served for any path no route claims.
	StaticDir string
	// RequestTimeout bounds each request. Zero means no bound.
	RequestTimeout time.Duration
}

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, statsHandler *handlers.StatsHandler, opts Options) {

	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	// routes
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS())
		r.Get("/stats", statsHandler.Stats)
		r.Options("/stats", statsHandler.Options)
	})

	// health checks
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", readyz(opts.Readiness))

	r.Handle("/metrics", metrics.Handler())

	// everything else is the static dashboard
	if opts.StaticDir != "" {
		static := http.FileServer(http.Dir(opts.StaticDir))
		r.NotFound(static.ServeHTTP)
		r.MethodNotAllowed(static.ServeHTTP)
	}
}

func readyz(p cache.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := p.Ping(ctx); err != nil {
				logging.L(r.Context()).Warn("readiness check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("cache unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
