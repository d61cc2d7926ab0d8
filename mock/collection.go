package mock

import (
	"context"

	"github.com/fwojciec/bggcrawl"
)

var _ bggcrawl.CollectionService = (*CollectionService)(nil)

// CollectionService is a mock implementation of bggcrawl.CollectionService.
type CollectionService struct {
	UpsertCollectionItemFn func(ctx context.Context, item *bggcrawl.CollectionItem) error
	FindCollectionFn       func(ctx context.Context, userName string) ([]*bggcrawl.CollectionItem, error)
}

func (s *CollectionService) UpsertCollectionItem(ctx context.Context, item *bggcrawl.CollectionItem) error {
	return s.UpsertCollectionItemFn(ctx, item)
}

func (s *CollectionService) FindCollection(ctx context.Context, userName string) ([]*bggcrawl.CollectionItem, error) {
	return s.FindCollectionFn(ctx, userName)
}

var _ bggcrawl.UserService = (*UserService)(nil)

// UserService is a mock implementation of bggcrawl.UserService.
type UserService struct {
	UpsertUserFn     func(ctx context.Context, user *bggcrawl.User) error
	FindUserByNameFn func(ctx context.Context, name string) (*bggcrawl.User, error)
}

func (s *UserService) UpsertUser(ctx context.Context, user *bggcrawl.User) error {
	return s.UpsertUserFn(ctx, user)
}

func (s *UserService) FindUserByName(ctx context.Context, name string) (*bggcrawl.User, error) {
	return s.FindUserByNameFn(ctx, name)
}

var _ bggcrawl.ItemStore = (*ItemStore)(nil)

// ItemStore is a mock implementation of bggcrawl.ItemStore.
type ItemStore struct {
	SaveGameFn           func(ctx context.Context, game *bggcrawl.Game) error
	SaveCollectionItemFn func(ctx context.Context, item *bggcrawl.CollectionItem) error
	SaveUserFn           func(ctx context.Context, user *bggcrawl.User) error
}

func (s *ItemStore) SaveGame(ctx context.Context, game *bggcrawl.Game) error {
	return s.SaveGameFn(ctx, game)
}

func (s *ItemStore) SaveCollectionItem(ctx context.Context, item *bggcrawl.CollectionItem) error {
	return s.SaveCollectionItemFn(ctx, item)
}

func (s *ItemStore) SaveUser(ctx context.Context, user *bggcrawl.User) error {
	return s.SaveUserFn(ctx, user)
}
