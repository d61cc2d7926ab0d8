package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/fwojciec/bggcrawl"
	"github.com/fwojciec/bggcrawl/crawl"
	"github.com/fwojciec/bggcrawl/fs"
	bggslog "github.com/fwojciec/bggcrawl/slog"
)

// Sitemap patterns for game pages.
var (
	sitemapFollow  = regexp.MustCompile(`/sitemap_geekitems_boardgame(compilation|implementation)?_\d+`)
	sitemapInclude = regexp.MustCompile(`/boardgame(compilation|implementation)?/\d+`)
)

// progressURLWidth bounds the URL shown per completed request.
const progressURLWidth = 80

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	logger := orDiscard(deps.Logger)

	seeds, err := c.loadSeeds(deps.now(), logger)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	run := &bggcrawl.Run{}
	if err := deps.Runs.CreateRun(deps.Ctx, run); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bggcrawl.ErrorMessage(err))
		return err
	}
	logger = logger.With("run", run.ID)

	stores := multiStore{deps.Store}
	var feeds *fs.FeedWriter
	if c.Feeds != "" {
		feeds = fs.NewFeedWriter(c.Feeds, run.ID)
		stores = append(stores, feeds)
	}

	spider := crawl.NewSpider(crawl.SpiderConfig{
		APIURL:            c.APIURL,
		PageSize:          c.PageSize,
		BatchSize:         c.BatchSize,
		ScrapeRatings:     c.Ratings,
		ScrapeCollections: c.Collections,
		ScrapeUsers:       c.Users,
		Polls: bggcrawl.PollAggregator{
			MinVotes:   c.MinVotes,
			LocalFloor: c.LocalFloor,
		},
	}, crawl.NewFrontier(), logger)
	spider.Now = deps.Now

	crawler := &crawl.Crawler{
		Fetcher:     bggslog.NewLoggingFetcher(deps.Fetcher, logger),
		Parser:      deps.Parser,
		Spider:      spider,
		Store:       bggslog.NewLoggingItemStore(stores, logger),
		RateLimiter: crawl.NewDomainLimiter(c.RPS),
		Concurrency: c.Concurrency,
		Logger:      logger,
		MaxRequests: c.MaxRequests,
	}
	if !c.NoSitemap && deps.Sitemaps != nil {
		crawler.Sitemaps = bggslog.NewLoggingSitemapService(deps.Sitemaps, logger)
		crawler.RobotsURL = c.Robots
		crawler.SitemapFilter = &bggcrawl.URLFilter{
			Follow:  []*regexp.Regexp{sitemapFollow},
			Include: []*regexp.Regexp{sitemapInclude},
		}
	}

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Queued %d requests\n", event.Queued)
		case crawl.ProgressCompleted:
			fmt.Fprintf(deps.Stderr, "  [%d, %d queued] %s\n",
				event.Completed, event.Queued, crawl.TruncateURL(event.URL, progressURLWidth))
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", crawl.TruncateURL(event.URL, progressURLWidth), event.Error)
		}
	}

	result, crawlErr := crawler.Run(deps.Ctx, seeds, progress)
	if result == nil {
		result = &crawl.Result{}
	}

	run.FinishedAt = deps.now()
	run.Requests = result.Requests
	run.Games = result.Games
	run.Ratings = result.Ratings
	run.Users = result.Users
	run.Failed = result.Failed
	if err := deps.Runs.FinishRun(context.WithoutCancel(deps.Ctx), run); err != nil {
		logger.Error("recording run", "err", err)
	}

	if feeds != nil {
		if err := c.closeFeeds(feeds, crawlErr, deps); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			if crawlErr == nil {
				return err
			}
		}
	}

	fmt.Fprintf(deps.Stdout, "Run %s: %d requests (%s), %d games, %d ratings, %d users, %d failed\n",
		run.ID, result.Requests, crawl.FormatBytes(result.Bytes),
		result.Games, result.Ratings, result.Users, result.Failed)

	if crawlErr != nil {
		fmt.Fprintf(deps.Stderr, "error crawling: %v\n", crawlErr)
		return crawlErr
	}
	return nil
}

// closeFeeds commits the feeds of a finished or interrupted crawl and
// discards them otherwise.
func (c *CrawlCmd) closeFeeds(feeds *fs.FeedWriter, crawlErr error, deps *Dependencies) error {
	if crawlErr != nil && !errors.Is(crawlErr, context.Canceled) {
		return feeds.Abort()
	}
	if err := feeds.Commit(); err != nil {
		return fmt.Errorf("committing feeds: %w", err)
	}
	fmt.Fprintf(deps.Stdout, "Feeds written to %s\n", feeds.Dir())
	return nil
}

func (c *CrawlCmd) loadSeeds(now time.Time, logger *slog.Logger) (crawl.Seeds, error) {
	var seeds crawl.Seeds
	var err error

	if seeds.GameIDs, err = fs.ReadGameIDs(logger, c.GameFile...); err != nil {
		return seeds, fmt.Errorf("reading game files: %w", err)
	}
	if seeds.UserNames, err = fs.ReadUserNames(logger, c.UserFile...); err != nil {
		return seeds, fmt.Errorf("reading user files: %w", err)
	}
	if seeds.PremiumUsers, err = fs.LoadPremiumUsers(c.PremiumUsersDir, now, logger); err != nil {
		return seeds, fmt.Errorf("reading premium users: %w", err)
	}
	return seeds, nil
}

// multiStore hands every record to each store in order.
type multiStore []bggcrawl.ItemStore

var _ bggcrawl.ItemStore = multiStore(nil)

func (m multiStore) SaveGame(ctx context.Context, game *bggcrawl.Game) error {
	for _, s := range m {
		if err := s.SaveGame(ctx, game); err != nil {
			return err
		}
	}
	return nil
}

func (m multiStore) SaveCollectionItem(ctx context.Context, item *bggcrawl.CollectionItem) error {
	for _, s := range m {
		if err := s.SaveCollectionItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (m multiStore) SaveUser(ctx context.Context, user *bggcrawl.User) error {
	for _, s := range m {
		if err := s.SaveUser(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
