package mock

import (
	"context"

	"github.com/fwojciec/bggcrawl"
)

var _ bggcrawl.Frontier = (*Frontier)(nil)

// Frontier is a mock implementation of bggcrawl.Frontier.
type Frontier struct {
	CheckAndMarkFn func(id bggcrawl.EntityID) bool
	LenFn          func() int
}

func (f *Frontier) CheckAndMark(id bggcrawl.EntityID) bool {
	return f.CheckAndMarkFn(id)
}

func (f *Frontier) Len() int {
	return f.LenFn()
}

var _ bggcrawl.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of bggcrawl.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
