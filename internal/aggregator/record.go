package aggregator

import "fmt"

// GameURLBase is the public page prefix for a place.
const GameURLBase = "https://www.roblox.com/games/"

// Record is the merged stats document served to the dashboard.
// No field carries omitempty: absent data is encoded as null so the
// schema is identical for every response.
type Record struct {
	PlaceID        string  `json:"placeId"`
	UniverseID     string  `json:"universeId"`
	GameURL        string  `json:"gameUrl"`
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	CreatorName    *string `json:"creatorName"`
	CreatorType    *string `json:"creatorType"`
	Playing        *int64  `json:"playing"`
	Visits         *int64  `json:"visits"`
	FavoritedCount *int64  `json:"favoritedCount"`
	MaxPlayers     *int64  `json:"maxPlayers"`
	Created        *string `json:"created"`
	Updated        *string `json:"updated"`
	UpVotes        *int64  `json:"upVotes"`
	DownVotes      *int64  `json:"downVotes"`
	IconURL        *string `json:"iconUrl"`
}

// GameURL returns the public page for placeID.
func GameURL(placeID string) string {
	return fmt.Sprintf("%s%s", GameURLBase, placeID)
}
