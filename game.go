package bggcrawl

import (
	"context"
	"strconv"
	"time"
)

// EntityID is the primary key of a game in the upstream system.
type EntityID int64

// ParseEntityID parses a positive decimal ID. Anything else reports false.
func ParseEntityID(s string) (EntityID, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return EntityID(n), true
}

// String returns the decimal form of the ID.
func (id EntityID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Game represents a single board game record.
// Zero values mean "absent" and are omitted from exported feeds.
type Game struct {
	ID          EntityID `json:"bggId"`
	Name        string   `json:"name"`
	AltNames    []string `json:"altName,omitempty"`
	Year        int      `json:"year,omitempty"`
	GameTypes   []string `json:"gameType,omitempty"`
	Description string   `json:"description,omitempty"`

	Designers  []string `json:"designer,omitempty"`
	Artists    []string `json:"artist,omitempty"`
	Publishers []string `json:"publisher,omitempty"`

	URL       string   `json:"url,omitempty"`
	ImageURLs []string `json:"imageUrl,omitempty"`
	VideoURLs []string `json:"videoUrl,omitempty"`

	MinPlayers     int     `json:"minPlayers,omitempty"`
	MaxPlayers     int     `json:"maxPlayers,omitempty"`
	MinPlayersRec  int     `json:"minPlayersRec,omitempty"`
	MaxPlayersRec  int     `json:"maxPlayersRec,omitempty"`
	MinPlayersBest int     `json:"minPlayersBest,omitempty"`
	MaxPlayersBest int     `json:"maxPlayersBest,omitempty"`
	MinAge         int     `json:"minAge,omitempty"`
	MaxAge         int     `json:"maxAge,omitempty"`
	MinAgeRec      float64 `json:"minAgeRec,omitempty"`
	MinTime        int     `json:"minTime,omitempty"`
	MaxTime        int     `json:"maxTime,omitempty"`

	Categories      []string   `json:"category,omitempty"`
	Mechanics       []string   `json:"mechanic,omitempty"`
	Cooperative     bool       `json:"cooperative,omitempty"`
	Compilation     bool       `json:"compilation,omitempty"`
	CompilationOf   []EntityID `json:"compilationOf,omitempty"`
	Families        []string   `json:"family,omitempty"`
	Expansions      []string   `json:"expansion,omitempty"`
	Implementations []EntityID `json:"implementation,omitempty"`
	Integrations    []EntityID `json:"integration,omitempty"`

	Rank               int       `json:"rank,omitempty"`
	AddRanks           []Ranking `json:"addRank,omitempty"`
	NumVotes           int       `json:"numVotes,omitempty"`
	AvgRating          float64   `json:"avgRating,omitempty"`
	StddevRating       float64   `json:"stddevRating,omitempty"`
	BayesRating        float64   `json:"bayesRating,omitempty"`
	Complexity         float64   `json:"complexity,omitempty"`
	LanguageDependency float64   `json:"languageDependency,omitempty"`

	NumOwned    int `json:"numOwned,omitempty"`
	NumTrading  int `json:"numTrading,omitempty"`
	NumWanting  int `json:"numWanting,omitempty"`
	NumWishing  int `json:"numWishing,omitempty"`
	NumComments int `json:"numComments,omitempty"`
	NumWeights  int `json:"numWeights,omitempty"`

	ExternalIDs ExternalIDs `json:"externalIds,omitempty"`

	ScrapedAt time.Time `json:"scrapedAt"`
}

// Validate returns an error if the game contains invalid fields.
func (g *Game) Validate() error {
	if g.ID <= 0 {
		return Errorf(EINVALID, "game ID required")
	}
	return nil
}

// Ranking is a game's position within one ranking list (overall or family).
type Ranking struct {
	Type        string  `json:"rankingType"`
	ID          int     `json:"rankingId,omitempty"`
	Name        string  `json:"name,omitempty"`
	Rank        int     `json:"rank,omitempty"`
	BayesRating float64 `json:"bayesRating,omitempty"`
}

// GameService represents a service for managing game records.
// Upserts are keyed by game ID, so repeated writes of the same game are safe.
type GameService interface {
	// UpsertGame inserts the game or replaces the stored version.
	UpsertGame(ctx context.Context, game *Game) error

	// FindGameByID retrieves a game by ID.
	// Returns ENOTFOUND if the game does not exist.
	FindGameByID(ctx context.Context, id EntityID) (*Game, error)

	// CountGames returns the number of stored games.
	CountGames(ctx context.Context) (int, error)
}
