// Package aggregator builds one stats Record from the upstream reads.
//
// Resolution runs first; metadata, votes and icon then run concurrently and
// are joined before the merge. Only resolution and metadata can fail the
// aggregation.
package aggregator

import (
	"context"
	"errors"
	"time"

	"placestats-edge/internal/metrics"
	"placestats-edge/internal/upstream"
	"placestats-edge/pkg/logging/logging"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPlaceID is used when neither the caller nor configuration names a place.
const DefaultPlaceID = "122586736038729"

type Aggregator struct {
	client         upstream.Client
	defaultPlaceID string
}

// New returns an Aggregator reading from client. An empty defaultPlaceID
// falls back to DefaultPlaceID.
func New(client upstream.Client, defaultPlaceID string) *Aggregator {
	if defaultPlaceID == "" {
		defaultPlaceID = DefaultPlaceID
	}
	return &Aggregator{
		client:         client,
		defaultPlaceID: defaultPlaceID,
	}
}

// DefaultPlaceID returns the place used for requests that don't name one.
func (a *Aggregator) DefaultPlaceID() string {
	return a.defaultPlaceID
}

// Aggregate resolves placeID and merges the upstream results into a Record.
// On failure it returns a *Failure and no record.
func (a *Aggregator) Aggregate(ctx context.Context, placeID string) (*Record, error) {
	start := time.Now()
	logger := logging.L(ctx)

	if placeID == "" {
		placeID = a.defaultPlaceID
		logger.Info("no place id supplied, using default", zap.String("place_id", placeID))
	}

	universeID, err := a.client.ResolveUniverse(ctx, placeID)
	if err != nil {
		return nil, a.fail(ctx, placeID, StageResolve, err)
	}

	var (
		meta  *upstream.Metadata
		votes upstream.Votes
		icon  *string
	)

	// Votes and icon never return an error; only metadata can fail the group.
	var g errgroup.Group
	g.Go(func() error {
		m, err := a.client.FetchMetadata(ctx, universeID)
		if err != nil {
			return err
		}
		meta = m
		return nil
	})
	g.Go(func() error {
		votes = a.client.FetchVotes(ctx, universeID)
		return nil
	})
	g.Go(func() error {
		icon = a.client.FetchIcon(ctx, universeID)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, a.fail(ctx, placeID, StageMetadata, err)
	}

	rec := merge(placeID, universeID, meta, votes, icon)

	metrics.AggregationsTotal.WithLabelValues("success").Inc()
	logger.Debug("aggregation completed",
		zap.String("place_id", placeID),
		zap.String("universe_id", universeID),
		zap.Bool("votes_present", votes.UpVotes != nil || votes.DownVotes != nil),
		zap.Bool("icon_present", icon != nil),
		zap.Duration("duration", time.Since(start)),
	)

	return rec, nil
}

func merge(placeID, universeID string, meta *upstream.Metadata, votes upstream.Votes, icon *string) *Record {
	rec := &Record{
		PlaceID:    placeID,
		UniverseID: universeID,
		GameURL:    GameURL(placeID),
		UpVotes:    votes.UpVotes,
		DownVotes:  votes.DownVotes,
		IconURL:    icon,
	}
	if meta != nil {
		rec.Name = meta.Name
		rec.Description = meta.Description
		rec.CreatorName = meta.CreatorName
		rec.CreatorType = meta.CreatorType
		rec.Playing = meta.Playing
		rec.Visits = meta.Visits
		rec.FavoritedCount = meta.FavoritedCount
		rec.MaxPlayers = meta.MaxPlayers
		rec.Created = meta.Created
		rec.Updated = meta.Updated
	}
	return rec
}

func (a *Aggregator) fail(ctx context.Context, placeID, stage string, err error) *Failure {
	metrics.AggregationsTotal.WithLabelValues("failure").Inc()

	fields := []zap.Field{
		zap.String("place_id", placeID),
		zap.String("stage", stage),
		zap.Error(err),
	}
	var uerr *upstream.Error
	if errors.As(err, &uerr) {
		fields = append(fields,
			zap.String("endpoint", uerr.Endpoint),
			zap.String("error_class", string(uerr.Class)),
			zap.Int("upstream_status", uerr.StatusCode),
		)
	}
	logging.L(ctx).Warn("aggregation failed", fields...)

	return &Failure{Code: CodeUpstreamFailure, Stage: stage, Err: err}
}
