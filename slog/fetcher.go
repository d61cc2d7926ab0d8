package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/bggcrawl"
)

// Ensure LoggingFetcher implements bggcrawl.Fetcher.
var _ bggcrawl.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with request logging.
type LoggingFetcher struct {
	next   bggcrawl.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next bggcrawl.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
// Queued responses are logged at debug level since they are retried.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (body []byte, err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		if bggcrawl.ErrorCode(err) == bggcrawl.EUNAVAILABLE {
			level = slog.LevelDebug
		}
		f.logger.Log(ctx, level, "fetch",
			"url", url,
			"bytes", len(body),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
