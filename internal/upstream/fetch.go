package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"placestats-edge/internal/metrics"

	"go.uber.org/zap"
)

const (
	EndpointUniverse = "universe"
	EndpointGames    = "games"
	EndpointVotes    = "votes"
	EndpointIcons    = "icons"
)

// maxBodySize caps how much of an upstream body is decoded.
const maxBodySize = 1 << 20

// ResolveUniverse maps a place to its universe id.
func (c *client) ResolveUniverse(ctx context.Context, placeID string) (string, error) {
	u := c.cfg.UniversesBaseURL + "/universes/v1/places/" + url.PathEscape(placeID) + "/universe"

	var out providerUniverseResponse
	if err := c.getJSON(ctx, EndpointUniverse, u, &out); err != nil {
		return "", err
	}

	if out.UniverseID == nil {
		return "", c.payloadError(EndpointUniverse, errors.New("no universe id"))
	}
	id, err := out.UniverseID.Int64()
	if err != nil || id <= 0 {
		return "", c.payloadError(EndpointUniverse, fmt.Errorf("unusable universe id %q", out.UniverseID.String()))
	}

	return strconv.FormatInt(id, 10), nil
}

// FetchMetadata loads the game record for a universe.
func (c *client) FetchMetadata(ctx context.Context, universeID string) (*Metadata, error) {
	u := c.cfg.GamesBaseURL + "/v1/games?universeIds=" + url.QueryEscape(universeID)

	var out providerGamesResponse
	if err := c.getJSON(ctx, EndpointGames, u, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || out.Data[0] == nil {
		return nil, c.payloadError(EndpointGames, errors.New("missing game data"))
	}

	g := out.Data[0]
	m := &Metadata{
		Name:           g.Name,
		Description:    g.Description,
		Playing:        g.Playing,
		Visits:         g.Visits,
		FavoritedCount: g.FavoritedCount,
		MaxPlayers:     g.MaxPlayers,
		Created:        g.Created,
		Updated:        g.Updated,
	}
	if g.Creator != nil {
		m.CreatorName = g.Creator.Name
		m.CreatorType = g.Creator.Type
	}
	return m, nil
}

// FetchVotes returns the vote tallies, or empty Votes if anything goes wrong.
func (c *client) FetchVotes(ctx context.Context, universeID string) Votes {
	u := c.cfg.GamesBaseURL + "/v1/games/votes?universeIds=" + url.QueryEscape(universeID)

	var out providerVotesResponse
	if err := c.getJSON(ctx, EndpointVotes, u, &out); err != nil {
		c.softFailure(ctx, EndpointVotes, universeID, err)
		return Votes{}
	}
	if len(out.Data) == 0 || out.Data[0] == nil {
		c.softFailure(ctx, EndpointVotes, universeID, c.payloadError(EndpointVotes, errors.New("missing vote data")))
		return Votes{}
	}

	return Votes{
		UpVotes:   out.Data[0].UpVotes,
		DownVotes: out.Data[0].DownVotes,
	}
}

// FetchIcon returns the 512x512 icon URL, or nil if anything goes wrong.
func (c *client) FetchIcon(ctx context.Context, universeID string) *string {
	q := url.Values{}
	q.Set("universeIds", universeID)
	q.Set("size", "512x512")
	q.Set("format", "Png")
	q.Set("isCircular", "false")
	u := c.cfg.ThumbnailsBaseURL + "/v1/games/icons?" + q.Encode()

	var out providerIconsResponse
	if err := c.getJSON(ctx, EndpointIcons, u, &out); err != nil {
		c.softFailure(ctx, EndpointIcons, universeID, err)
		return nil
	}
	if len(out.Data) == 0 || out.Data[0] == nil || out.Data[0].ImageURL == nil || *out.Data[0].ImageURL == "" {
		c.softFailure(ctx, EndpointIcons, universeID, c.payloadError(EndpointIcons, errors.New("missing image url")))
		return nil
	}

	return out.Data[0].ImageURL
}

// getJSON performs one GET bounded by the per-call timeout and decodes a
// 2xx body into out. Every failure comes back as *Error.
func (c *client) getJSON(parentCtx context.Context, endpoint, rawURL string, out any) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(parentCtx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &Error{Endpoint: endpoint, Class: ErrorClassNetwork, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	metrics.UpstreamLatencySeconds.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		class := classifyTransportError(err)
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, string(class)).Inc()
		return &Error{Endpoint: endpoint, Class: class, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, string(ErrorClassStatus)).Inc()
		return &Error{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Class:      ErrorClassStatus,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		class := ErrorClassDecode
		if ctx.Err() != nil {
			class = ErrorClassTimeout
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, string(class)).Inc()
		return &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Class: class, Err: err}
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "ok").Inc()

	c.logger.Debug("upstream request completed",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// payloadError reports a 2xx body that lacks a required field.
func (c *client) payloadError(endpoint string, err error) *Error {
	return &Error{Endpoint: endpoint, StatusCode: http.StatusOK, Class: ErrorClassPayload, Err: err}
}

// softFailure records a failure that only degrades one field.
func (c *client) softFailure(ctx context.Context, endpoint, universeID string, err error) {
	fields := []zap.Field{
		zap.String("endpoint", endpoint),
		zap.String("universe_id", universeID),
		zap.Error(err),
	}
	var uerr *Error
	if errors.As(err, &uerr) {
		fields = append(fields, zap.String("error_class", string(uerr.Class)))
	}
	if ctx.Err() != nil {
		fields = append(fields, zap.NamedError("ctx_err", ctx.Err()))
	}
	c.logger.Warn("optional upstream lookup degraded", fields...)
}
