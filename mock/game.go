package mock

import (
	"context"

	"github.com/fwojciec/bggcrawl"
)

var _ bggcrawl.GameService = (*GameService)(nil)

// GameService is a mock implementation of bggcrawl.GameService.
type GameService struct {
	UpsertGameFn   func(ctx context.Context, game *bggcrawl.Game) error
	FindGameByIDFn func(ctx context.Context, id bggcrawl.EntityID) (*bggcrawl.Game, error)
	CountGamesFn   func(ctx context.Context) (int, error)
}

func (s *GameService) UpsertGame(ctx context.Context, game *bggcrawl.Game) error {
	return s.UpsertGameFn(ctx, game)
}

func (s *GameService) FindGameByID(ctx context.Context, id bggcrawl.EntityID) (*bggcrawl.Game, error) {
	return s.FindGameByIDFn(ctx, id)
}

func (s *GameService) CountGames(ctx context.Context) (int, error) {
	return s.CountGamesFn(ctx)
}
