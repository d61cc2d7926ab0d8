package mock

import (
	"context"

	"github.com/fwojciec/bggcrawl"
)

var _ bggcrawl.RunService = (*RunService)(nil)

// RunService is a mock implementation of bggcrawl.RunService.
type RunService struct {
	CreateRunFn   func(ctx context.Context, run *bggcrawl.Run) error
	FinishRunFn   func(ctx context.Context, run *bggcrawl.Run) error
	FindRunByIDFn func(ctx context.Context, id string) (*bggcrawl.Run, error)
}

func (s *RunService) CreateRun(ctx context.Context, run *bggcrawl.Run) error {
	return s.CreateRunFn(ctx, run)
}

func (s *RunService) FinishRun(ctx context.Context, run *bggcrawl.Run) error {
	return s.FinishRunFn(ctx, run)
}

func (s *RunService) FindRunByID(ctx context.Context, id string) (*bggcrawl.Run, error) {
	return s.FindRunByIDFn(ctx, id)
}
