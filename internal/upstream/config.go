package upstream

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultUniversesBaseURL  = "https://apis.roblox.com"
	DefaultGamesBaseURL      = "https://games.roblox.com"
	DefaultThumbnailsBaseURL = "https://thumbnails.roblox.com"
	DefaultUserAgent         = "placestats-edge"
)

type Config struct {
	UniversesBaseURL  string // place -> universe resolution
	GamesBaseURL      string // game metadata + votes
	ThumbnailsBaseURL string // icons

	UserAgent string

	// Timeout bounds each upstream call (default: 10s). A call that runs
	// out of time fails the same way a refused connection does.
	Timeout time.Duration

	// Optional connection pool settings
	MaxIdleConns        int // default: 100
	MaxIdleConnsPerHost int // default: 20

	// Custom HTTP client (for testing or special configs)
	HTTPClient *http.Client
}

// Validate checks that every base URL is an absolute http(s) URL.
func (c *Config) Validate() error {
	bases := map[string]string{
		"UniversesBaseURL":  c.UniversesBaseURL,
		"GamesBaseURL":      c.GamesBaseURL,
		"ThumbnailsBaseURL": c.ThumbnailsBaseURL,
	}
	for name, raw := range bases {
		if raw == "" {
			return fmt.Errorf("%s is required", name)
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
		}
	}
	if c.Timeout <= 0 {
		return errors.New("Timeout must be positive")
	}
	return nil
}

// WithDefaults returns a copy of Config with sane defaults applied.
func (c *Config) WithDefaults() Config {
	cfg := *c

	if cfg.UniversesBaseURL == "" {
		cfg.UniversesBaseURL = DefaultUniversesBaseURL
	}
	if cfg.GamesBaseURL == "" {
		cfg.GamesBaseURL = DefaultGamesBaseURL
	}
	if cfg.ThumbnailsBaseURL == "" {
		cfg.ThumbnailsBaseURL = DefaultThumbnailsBaseURL
	}

	// trim trailing slashes so paths can be appended safely
	cfg.UniversesBaseURL = strings.TrimRight(cfg.UniversesBaseURL, "/")
	cfg.GamesBaseURL = strings.TrimRight(cfg.GamesBaseURL, "/")
	cfg.ThumbnailsBaseURL = strings.TrimRight(cfg.ThumbnailsBaseURL, "/")

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 20
	}

	return cfg
}

type client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an upstream client with the given configuration.
func NewClient(cfg Config, logger *zap.Logger) (Client, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: defaultTransport(cfg),
		}
	}

	return &client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.Named("upstream"),
	}, nil
}

// defaultTransport creates an HTTP transport with connection pooling
// and dial/handshake timeouts.
func defaultTransport(cfg Config) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Close releases idle connections held by the client.
func (c *client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
