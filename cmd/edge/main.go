package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"placestats-edge/internal/aggregator"
	"placestats-edge/internal/cache"
	"placestats-edge/internal/handlers"
	"placestats-edge/internal/httpserver"
	"placestats-edge/internal/metrics"
	"placestats-edge/internal/upstream"
	"placestats-edge/pkg/logging/logging"
)

var validate = validator.New()

type Config struct {
	Port string `env:"PORT" envDefault:"8080" validate:"required,numeric"`

	CacheBackend    string        `env:"CACHE_BACKEND" envDefault:"memory" validate:"oneof=memory redis"`
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379" validate:"required_if=CacheBackend redis"`
	CachePrefix     string        `env:"CACHE_PREFIX" envDefault:"placestats"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"30s" validate:"gt=0"`
	CacheMaxEntries int           `env:"CACHE_MAX_ENTRIES" envDefault:"10000" validate:"gte=0"`

	DefaultPlaceID    string        `env:"DEFAULT_PLACE_ID" envDefault:"122586736038729" validate:"required,numeric"`
	UniversesBaseURL  string        `env:"UNIVERSES_BASE_URL" envDefault:"https://apis.roblox.com" validate:"required,url"`
	GamesBaseURL      string        `env:"GAMES_BASE_URL" envDefault:"https://games.roblox.com" validate:"required,url"`
	ThumbnailsBaseURL string        `env:"THUMBNAILS_BASE_URL" envDefault:"https://thumbnails.roblox.com" validate:"required,url"`
	UserAgent         string        `env:"USER_AGENT" envDefault:"placestats-edge"`
	UpstreamTimeout   time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s" validate:"gt=0"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s" validate:"gte=0"`
	StaticDir      string        `env:"STATIC_DIR" envDefault:"./public"`
}

// LoadConfig reads Config from the environment and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("edge exited with error: %v", err)
	}
}

func run() error {
	// ----- Logger -----
	logger, err := logging.New(logging.OptionsFromEnv())
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	// ----- Config -----
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.String("redis_addr", cfg.RedisAddr),
		zap.String("default_place_id", cfg.DefaultPlaceID),
		zap.Duration("upstream_timeout", cfg.UpstreamTimeout),
	)

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.CacheBackend == cache.BackendRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer redisClient.Close()

		// Fail fast if Redis is misconfigured
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.RedisAddr),
		)
	}

	// ----- Response cache -----
	store, err := cache.NewResponseCache(cache.Config{
		Backend:    cfg.CacheBackend,
		TTL:        cfg.CacheTTL,
		Prefix:     cfg.CachePrefix,
		MaxEntries: cfg.CacheMaxEntries,
	}, redisClient)
	if err != nil {
		return err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}
	responseCache := cache.NewLoggingResponseCache(store)

	// ----- Upstream client -----
	upstreamClient, err := upstream.NewClient(upstream.Config{
		UniversesBaseURL:  cfg.UniversesBaseURL,
		GamesBaseURL:      cfg.GamesBaseURL,
		ThumbnailsBaseURL: cfg.ThumbnailsBaseURL,
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.UpstreamTimeout,
	}, logger)
	if err != nil {
		return err
	}
	if closer, ok := upstreamClient.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	// ----- Handlers -----
	statsHandler := handlers.NewStatsHandler(
		responseCache,
		cfg.CacheTTL,
		aggregator.New(upstreamClient, cfg.DefaultPlaceID),
	)

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, statsHandler, httpserver.Options{
		Readiness:      responseCache,
		StaticDir:      cfg.StaticDir,
		RequestTimeout: cfg.RequestTimeout,
	})

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting edge",
		zap.String("addr", srv.Addr),
		zap.String("cache_backend", cfg.CacheBackend),
	)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			serveErr <- err
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	// pending cache writes still hold the store open
	if err := statsHandler.Drain(shutdownCtx); err != nil {
		logger.Warn("cache writes still pending at shutdown", zap.Error(err))
	}

	logger.Info("server shutdown complete")
	return nil
}
