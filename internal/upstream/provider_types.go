package upstream

import "encoding/json"

// GET /universes/v1/places/{placeId}/universe
type providerUniverseResponse struct {
	UniverseID *json.Number `json:"universeId"`
}

type providerCreator struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

type providerGame struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Creator        *providerCreator `json:"creator"`
	Playing        *int64           `json:"playing"`
	Visits         *int64           `json:"visits"`
	FavoritedCount *int64           `json:"favoritedCount"`
	MaxPlayers     *int64           `json:"maxPlayers"`
	Created        *string          `json:"created"`
	Updated        *string          `json:"updated"`
}

// GET /v1/games?universeIds={id}
type providerGamesResponse struct {
	Data []*providerGame `json:"data"`
}

type providerVote struct {
	UpVotes   *int64 `json:"upVotes"`
	DownVotes *int64 `json:"downVotes"`
}

// GET /v1/games/votes?universeIds={id}
type providerVotesResponse struct {
	Data []*providerVote `json:"data"`
}

type providerIcon struct {
	TargetID int64   `json:"targetId"`
	State    string  `json:"state"`
	ImageURL *string `json:"imageUrl"`
}

// GET /v1/games/icons?universeIds={id}&size=512x512&format=Png&isCircular=false
type providerIconsResponse struct {
	Data []*providerIcon `json:"data"`
}
