package sqlite

import (
	"context"

	"github.com/fwojciec/bggcrawl"
)

// Compile-time interface verification.
var _ bggcrawl.ItemStore = (*Store)(nil)

// Store saves crawled records through the game, collection and user services.
type Store struct {
	Games       bggcrawl.GameService
	Collections bggcrawl.CollectionService
	Users       bggcrawl.UserService
}

// NewStore creates a Store backed by db.
func NewStore(db *DB) *Store {
	return &Store{
		Games:       NewGameService(db),
		Collections: NewCollectionService(db),
		Users:       NewUserService(db),
	}
}

// SaveGame upserts the game.
func (s *Store) SaveGame(ctx context.Context, game *bggcrawl.Game) error {
	return s.Games.UpsertGame(ctx, game)
}

// SaveCollectionItem upserts the collection item.
func (s *Store) SaveCollectionItem(ctx context.Context, item *bggcrawl.CollectionItem) error {
	return s.Collections.UpsertCollectionItem(ctx, item)
}

// SaveUser upserts the user.
func (s *Store) SaveUser(ctx context.Context, user *bggcrawl.User) error {
	return s.Users.UpsertUser(ctx, user)
}
