package slog

import (
	"context"
	"log/slog"

	"github.com/fwojciec/bggcrawl"
)

// Ensure LoggingItemStore implements bggcrawl.ItemStore.
var _ bggcrawl.ItemStore = (*LoggingItemStore)(nil)

// LoggingItemStore wraps an ItemStore, logging every stored record at debug
// level and every rejected one as a warning.
type LoggingItemStore struct {
	next   bggcrawl.ItemStore
	logger *slog.Logger
}

// NewLoggingItemStore creates a new LoggingItemStore.
func NewLoggingItemStore(next bggcrawl.ItemStore, logger *slog.Logger) *LoggingItemStore {
	return &LoggingItemStore{next: next, logger: logger}
}

// SaveGame delegates to the wrapped store.
func (s *LoggingItemStore) SaveGame(ctx context.Context, game *bggcrawl.Game) error {
	err := s.next.SaveGame(ctx, game)
	s.log(ctx, "save game", err, "id", game.ID, "name", game.Name)
	return err
}

// SaveCollectionItem delegates to the wrapped store.
func (s *LoggingItemStore) SaveCollectionItem(ctx context.Context, item *bggcrawl.CollectionItem) error {
	err := s.next.SaveCollectionItem(ctx, item)
	s.log(ctx, "save collection item", err, "user", item.UserName, "game", item.GameID)
	return err
}

// SaveUser delegates to the wrapped store.
func (s *LoggingItemStore) SaveUser(ctx context.Context, user *bggcrawl.User) error {
	err := s.next.SaveUser(ctx, user)
	s.log(ctx, "save user", err, "user", user.Name)
	return err
}

func (s *LoggingItemStore) log(ctx context.Context, msg string, err error, attrs ...any) {
	if err != nil {
		s.logger.WarnContext(ctx, msg, append(attrs, "err", err)...)
		return
	}
	s.logger.DebugContext(ctx, msg, attrs...)
}
