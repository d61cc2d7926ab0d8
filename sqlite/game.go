package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fwojciec/bggcrawl"
)

// Compile-time interface verification.
var _ bggcrawl.GameService = (*GameService)(nil)

// rankingOverall is the ranking type of the overall board game rank.
const rankingOverall = "boardgame"

// GameService implements bggcrawl.GameService using SQLite.
//
// Games are stored as JSON payloads next to an xxHash of their content.
// Rankings live in their own table so they can be queried across games.
type GameService struct {
	db  *DB
	now func() time.Time
}

// NewGameService creates a new GameService.
func NewGameService(db *DB) *GameService {
	return &GameService{db: db, now: time.Now}
}

// UpsertGame inserts the game or replaces the stored version. The stored
// update time only moves when the content hash changes.
func (s *GameService) UpsertGame(ctx context.Context, game *bggcrawl.Game) error {
	if err := game.Validate(); err != nil {
		return err
	}

	content := *game
	content.ScrapedAt = time.Time{}
	full, err := encodePayload(&content)
	if err != nil {
		return err
	}
	hash := hashContent(full)

	content.Rank = 0
	content.AddRanks = nil
	payload, err := encodePayload(&content)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (id, name, year, payload, content_hash, scraped_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			year = excluded.year,
			payload = excluded.payload,
			updated_at = CASE WHEN games.content_hash = excluded.content_hash
				THEN games.updated_at ELSE excluded.updated_at END,
			content_hash = excluded.content_hash,
			scraped_at = excluded.scraped_at
	`, int64(game.ID), game.Name, game.Year, string(payload), hash,
		formatTime(game.ScrapedAt), formatTime(s.now()))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM game_rankings WHERE game_id = ?", int64(game.ID)); err != nil {
		return err
	}

	rankings := game.AddRanks
	if game.Rank > 0 {
		overall := bggcrawl.Ranking{Type: rankingOverall, Rank: game.Rank}
		rankings = append([]bggcrawl.Ranking{overall}, rankings...)
	}
	for _, r := range rankings {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO game_rankings (game_id, ranking_type, ranking_id, name, rank, bayes_rating)
			VALUES (?, ?, ?, ?, ?, ?)
		`, int64(game.ID), r.Type, r.ID, r.Name, r.Rank, r.BayesRating)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindGameByID retrieves a game by ID.
func (s *GameService) FindGameByID(ctx context.Context, id bggcrawl.EntityID) (*bggcrawl.Game, error) {
	var payload, scrapedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT payload, scraped_at
		FROM games
		WHERE id = ?
	`, int64(id)).Scan(&payload, &scrapedAt)

	if err == sql.ErrNoRows {
		return nil, bggcrawl.Errorf(bggcrawl.ENOTFOUND, "game not found")
	}
	if err != nil {
		return nil, err
	}

	var game bggcrawl.Game
	if err := decodePayload(payload, &game); err != nil {
		return nil, err
	}
	if scrapedAt != "" {
		game.ScrapedAt, err = parseRFC3339(scrapedAt, "scraped_at")
		if err != nil {
			return nil, err
		}
	}

	if err := s.loadRankings(ctx, &game); err != nil {
		return nil, err
	}

	return &game, nil
}

func (s *GameService) loadRankings(ctx context.Context, game *bggcrawl.Game) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ranking_type, ranking_id, name, rank, bayes_rating
		FROM game_rankings
		WHERE game_id = ?
		ORDER BY rowid
	`, int64(game.ID))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r bggcrawl.Ranking
		if err := rows.Scan(&r.Type, &r.ID, &r.Name, &r.Rank, &r.BayesRating); err != nil {
			return err
		}
		if r.Type == rankingOverall {
			game.Rank = r.Rank
			continue
		}
		game.AddRanks = append(game.AddRanks, r)
	}

	return rows.Err()
}

// CountGames returns the number of stored games.
func (s *GameService) CountGames(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&n)
	return n, err
}
