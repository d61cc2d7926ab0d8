package mock

import (
	"context"

	"github.com/fwojciec/bggcrawl"
)

var _ bggcrawl.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of bggcrawl.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, robotsURL string, filter *bggcrawl.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, robotsURL string, filter *bggcrawl.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, robotsURL, filter)
}
