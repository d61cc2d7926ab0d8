package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/fwojciec/bggcrawl"
)

// Compile-time interface verification.
var (
	_ bggcrawl.CollectionService = (*CollectionService)(nil)
	_ bggcrawl.UserService       = (*UserService)(nil)
)

// CollectionService implements bggcrawl.CollectionService using SQLite.
type CollectionService struct {
	db *DB
}

// NewCollectionService creates a new CollectionService.
func NewCollectionService(db *DB) *CollectionService {
	return &CollectionService{db: db}
}

// UpsertCollectionItem inserts the item or replaces the stored version.
// User names are stored lowercased.
func (s *CollectionService) UpsertCollectionItem(ctx context.Context, item *bggcrawl.CollectionItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	stored := *item
	stored.UserName = strings.ToLower(stored.UserName)
	if stored.ID == "" {
		stored.ID = bggcrawl.CollectionItemID(stored.UserName, stored.GameID)
	}

	payload, err := encodePayload(&stored)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO collection_items (id, game_id, user_name, rating, payload, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			game_id = excluded.game_id,
			user_name = excluded.user_name,
			rating = excluded.rating,
			payload = excluded.payload,
			scraped_at = excluded.scraped_at
	`, stored.ID, int64(stored.GameID), stored.UserName, stored.Rating, string(payload),
		formatTime(stored.ScrapedAt))

	return err
}

// FindCollection retrieves all items of one user, ordered by game ID.
func (s *CollectionService) FindCollection(ctx context.Context, userName string) ([]*bggcrawl.CollectionItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload
		FROM collection_items
		WHERE user_name = ?
		ORDER BY game_id, id
	`, strings.ToLower(userName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*bggcrawl.CollectionItem
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var item bggcrawl.CollectionItem
		if err := decodePayload(payload, &item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// UserService implements bggcrawl.UserService using SQLite.
type UserService struct {
	db *DB
}

// NewUserService creates a new UserService.
func NewUserService(db *DB) *UserService {
	return &UserService{db: db}
}

// UpsertUser inserts the user or replaces the stored version. Users are
// keyed by their lowercased name.
func (s *UserService) UpsertUser(ctx context.Context, user *bggcrawl.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	payload, err := encodePayload(user)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (name, payload, scraped_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			scraped_at = excluded.scraped_at
	`, strings.ToLower(user.Name), string(payload), formatTime(user.ScrapedAt))

	return err
}

// FindUserByName retrieves a user by name, ignoring case.
func (s *UserService) FindUserByName(ctx context.Context, name string) (*bggcrawl.User, error) {
	var payload string

	err := s.db.QueryRowContext(ctx, `
		SELECT payload
		FROM users
		WHERE name = ?
	`, strings.ToLower(name)).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, bggcrawl.Errorf(bggcrawl.ENOTFOUND, "user not found")
	}
	if err != nil {
		return nil, err
	}

	var user bggcrawl.User
	if err := decodePayload(payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
