package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/bggcrawl"
)

// Ensure LoggingSitemapService implements bggcrawl.SitemapService.
var _ bggcrawl.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with discovery logging.
type LoggingSitemapService struct {
	next   bggcrawl.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next bggcrawl.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs how many game
// pages were found.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, robotsURL string, filter *bggcrawl.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"robots", robotsURL,
			"count", len(urls),
			"duration", time.Since(begin),
		}
		if filter != nil {
			attrs = append(attrs, "follow", len(filter.Follow), "include", len(filter.Include))
		}
		if err != nil {
			s.logger.Error("sitemap discovery", append(attrs, "err", err)...)
			return
		}
		s.logger.Info("sitemap discovery", attrs...)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, robotsURL, filter)
}
