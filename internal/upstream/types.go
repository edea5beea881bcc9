package upstream

import "context"

// Metadata is the subset of the games endpoint payload the service uses.
// Every field is nil when the upstream omitted it or sent null.
type Metadata struct {
	Name           *string
	Description    *string
	CreatorName    *string
	CreatorType    *string
	Playing        *int64
	Visits         *int64
	FavoritedCount *int64
	MaxPlayers     *int64
	Created        *string
	Updated        *string
}

// Votes holds the up/down tallies. Both are nil when the lookup failed.
type Votes struct {
	UpVotes   *int64
	DownVotes *int64
}

// Client is the set of upstream reads the aggregator depends on.
//
// ResolveUniverse and FetchMetadata fail hard: any problem comes back as
// an *Error. FetchVotes and FetchIcon fail soft: problems are logged and
// collapse to empty values.
type Client interface {
	ResolveUniverse(ctx context.Context, placeID string) (string, error)
	FetchMetadata(ctx context.Context, universeID string) (*Metadata, error)
	FetchVotes(ctx context.Context, universeID string) Votes
	FetchIcon(ctx context.Context, universeID string) *string
}
