package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "122586736038729", cfg.DefaultPlaceID)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, "https://games.roblox.com", cfg.GamesBaseURL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "45s")
	t.Setenv("DEFAULT_PLACE_ID", "42")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, 45*time.Second, cfg.CacheTTL)
	assert.Equal(t, "42", cfg.DefaultPlaceID)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	for name, kv := range map[string][2]string{
		"unknown backend": {"CACHE_BACKEND", "memcached"},
		"zero ttl":        {"CACHE_TTL", "0s"},
		"bad duration":    {"UPSTREAM_TIMEOUT", "soon"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigRejectsBadURLsAndIDs(t *testing.T) {
	for name, kv := range map[string][2]string{
		"relative games url": {"GAMES_BASE_URL", "games.roblox.com"},
		"non-numeric place":  {"DEFAULT_PLACE_ID", "abc"},
		"non-numeric port":   {"PORT", "http"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
