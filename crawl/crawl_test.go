package crawl_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/bggcrawl"
	"github.com/fwojciec/bggcrawl/crawl"
	"github.com/fwojciec/bggcrawl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMocks struct {
	Sitemaps *mock.SitemapService
	Fetcher  *mock.Fetcher
	Parser   *mock.ResponseParser
	Store    *mock.ItemStore

	mu    sync.Mutex
	games []*bggcrawl.Game
	items []*bggcrawl.CollectionItem
	users []*bggcrawl.User
}

// newTestCrawler returns a Crawler whose fetcher echoes the request URL and
// whose parser yields a game without comments for every requested ID.
func newTestCrawler(cfg crawl.SpiderConfig) (*crawl.Crawler, *testMocks) {
	m := &testMocks{}
	m.Sitemaps = &mock.SitemapService{
		DiscoverURLsFn: func(_ context.Context, _ string, _ *bggcrawl.URLFilter) ([]string, error) {
			return nil, nil
		},
	}
	m.Fetcher = &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) ([]byte, error) {
			return []byte(url), nil
		},
	}
	m.Parser = &mock.ResponseParser{
		ParseThingsFn: func(body []byte) (*bggcrawl.ThingResponse, error) {
			var ids []bggcrawl.EntityID
			for _, s := range strings.Split(bggcrawl.ExtractQueryParam(string(body), "id"), ",") {
				if id, ok := bggcrawl.ParseEntityID(s); ok {
					ids = append(ids, id)
				}
			}
			return thingResponse(1, 0, 0, ids...), nil
		},
		ParseCollectionFn: func(_ []byte) (*bggcrawl.CollectionResponse, error) {
			return &bggcrawl.CollectionResponse{}, nil
		},
		ParseUserFn: func(_ []byte) (*bggcrawl.User, error) {
			return &bggcrawl.User{}, nil
		},
	}
	m.Store = &mock.ItemStore{
		SaveGameFn: func(_ context.Context, g *bggcrawl.Game) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.games = append(m.games, g)
			return nil
		},
		SaveCollectionItemFn: func(_ context.Context, item *bggcrawl.CollectionItem) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.items = append(m.items, item)
			return nil
		},
		SaveUserFn: func(_ context.Context, u *bggcrawl.User) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.users = append(m.users, u)
			return nil
		},
	}

	spider := crawl.NewSpider(cfg, crawl.NewFrontier(), nil)
	spider.Now = func() time.Time { return scrapedAt }

	c := &crawl.Crawler{
		Sitemaps:    m.Sitemaps,
		Fetcher:     m.Fetcher,
		Parser:      m.Parser,
		Spider:      spider,
		Store:       m.Store,
		Concurrency: 4,
		RetryDelays: []time.Duration{0}, // no delay for tests
		RobotsURL:   "https://boardgamegeek.com/robots.txt",
	}
	return c, m
}

func TestCrawler_Run(t *testing.T) {
	t.Parallel()

	t.Run("requires a spider", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{}

		_, err := c.Run(context.Background(), crawl.Seeds{}, nil)

		assert.Equal(t, bggcrawl.EINVALID, bggcrawl.ErrorCode(err))
	})

	t.Run("returns zero result without seeds or sitemap URLs", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCrawler(crawl.SpiderConfig{})

		result, err := c.Run(context.Background(), crawl.Seeds{}, nil)

		require.NoError(t, err)
		assert.Equal(t, &crawl.Result{}, result)
	})

	t.Run("crawls every page of a batch", func(t *testing.T) {
		t.Parallel()

		c, m := newTestCrawler(crawl.SpiderConfig{ScrapeRatings: true})
		m.Sitemaps.DiscoverURLsFn = func(_ context.Context, robotsURL string, _ *bggcrawl.URLFilter) ([]string, error) {
			assert.Equal(t, "https://boardgamegeek.com/robots.txt", robotsURL)
			return []string{"https://boardgamegeek.com/boardgame/13/catan"}, nil
		}
		m.Parser.ParseThingsFn = func(body []byte) (*bggcrawl.ThingResponse, error) {
			if strings.Contains(string(body), "page=2") {
				return thingResponse(2, 150, 50, 13), nil
			}
			return thingResponse(1, 150, 100, 13), nil
		}

		result, err := c.Run(context.Background(), crawl.Seeds{}, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Requests)
		assert.Equal(t, 0, result.Failed)
		assert.Equal(t, 1, result.Games)
		assert.Equal(t, 150, result.Ratings)
		assert.Len(t, m.games, 1)
		assert.Len(t, m.items, 150)
	})

	t.Run("does not refetch seen games", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int32
		c, m := newTestCrawler(crawl.SpiderConfig{})
		m.Sitemaps.DiscoverURLsFn = func(_ context.Context, _ string, _ *bggcrawl.URLFilter) ([]string, error) {
			return []string{
				"https://boardgamegeek.com/boardgame/13/catan",
				"https://boardgamegeek.com/boardgame/822/carcassonne",
			}, nil
		}
		m.Fetcher.FetchFn = func(_ context.Context, url string) ([]byte, error) {
			fetches.Add(1)
			return []byte(url), nil
		}

		result, err := c.Run(context.Background(), crawl.Seeds{GameIDs: []bggcrawl.EntityID{13, 30549}}, nil)

		require.NoError(t, err)
		assert.Equal(t, int32(2), fetches.Load(), "seed batch and sitemap batch without 13")
		assert.Equal(t, 2, result.Requests)
	})

	t.Run("follows collections and users", func(t *testing.T) {
		t.Parallel()

		c, m := newTestCrawler(crawl.SpiderConfig{ScrapeRatings: true, ScrapeCollections: true, ScrapeUsers: true})
		m.Parser.ParseCollectionFn = func(_ []byte) (*bggcrawl.CollectionResponse, error) {
			return &bggcrawl.CollectionResponse{Items: []*bggcrawl.CollectionItem{{GameID: 822, Owned: true}}}, nil
		}

		result, err := c.Run(context.Background(), crawl.Seeds{UserNames: []string{"Alice"}}, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Requests, "collection, user, and the collected game")
		assert.Equal(t, 1, result.Users)
		assert.Equal(t, 1, result.Ratings)
		assert.Equal(t, 1, result.Games)
		require.Len(t, m.users, 1)
		assert.Equal(t, "alice", m.users[0].Name)
		require.Len(t, m.games, 1)
		assert.Equal(t, bggcrawl.EntityID(822), m.games[0].ID)
	})

	t.Run("returns error when sitemap discovery fails", func(t *testing.T) {
		t.Parallel()

		c, m := newTestCrawler(crawl.SpiderConfig{})
		m.Sitemaps.DiscoverURLsFn = func(_ context.Context, _ string, _ *bggcrawl.URLFilter) ([]string, error) {
			return nil, errors.New("robots.txt unreachable")
		}

		_, err := c.Run(context.Background(), crawl.Seeds{}, nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "sitemap discovery")
	})

	t.Run("skips sitemaps without robots URL", func(t *testing.T) {
		t.Parallel()

		c, m := newTestCrawler(crawl.SpiderConfig{})
		c.RobotsURL = ""
		m.Sitemaps.DiscoverURLsFn = nil

		result, err := c.Run(context.Background(), crawl.Seeds{GameIDs: []bggcrawl.EntityID{13}}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Games)
	})

	t.Run("counts failed requests and reports progress", func(t *testing.T) {
		t.Parallel()

		c, m := newTestCrawler(crawl.SpiderConfig{})
		m.Fetcher.FetchFn = func(_ context.Context, _ string) ([]byte, error) {
			return nil, errors.New("HTTP 404")
		}

		var events []crawl.ProgressEvent
		result, err := c.Run(context.Background(), crawl.Seeds{GameIDs: []bggcrawl.EntityID{13}}, func(e crawl.ProgressEvent) {
			events = append(events, e)
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Requests)
		assert.Equal(t, 1, result.Failed)
		assert.Empty(t, m.games)

		require.Len(t, events, 3)
		assert.Equal(t, crawl.ProgressStarted, events[0].Type)
		assert.Equal(t, 1, events[0].Queued)
		assert.Equal(t, crawl.ProgressFailed, events[1].Type)
		assert.Contains(t, events[1].URL, "id=13")
		require.Error(t, events[1].Error)
		assert.Equal(t, crawl.ProgressFinished, events[2].Type)
		assert.Equal(t, 1, events[2].Completed)
	})

	t.Run("counts store failures", func(t *testing.T) {
		t.Parallel()

		c, m := newTestCrawler(crawl.SpiderConfig{})
		m.Store.SaveGameFn = func(_ context.Context, _ *bggcrawl.Game) error {
			return errors.New("disk full")
		}

		result, err := c.Run(context.Background(), crawl.Seeds{GameIDs: []bggcrawl.EntityID{13}}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 0, result.Games)
	})

	t.Run("retries unavailable responses", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		c, m := newTestCrawler(crawl.SpiderConfig{})
		m.Fetcher.FetchFn = func(_ context.Context, url string) ([]byte, error) {
			if attempts.Add(1) == 1 {
				return nil, bggcrawl.Errorf(bggcrawl.EUNAVAILABLE, "request queued")
			}
			return []byte(url), nil
		}

		result, err := c.Run(context.Background(), crawl.Seeds{GameIDs: []bggcrawl.EntityID{13}}, nil)

		require.NoError(t, err)
		assert.Equal(t, int32(2), attempts.Load())
		assert.Equal(t, 1, result.Games)
	})

	t.Run("waits for the rate limiter per host", func(t *testing.T) {
		t.Parallel()

		var hosts []string
		var mu sync.Mutex
		c, _ := newTestCrawler(crawl.SpiderConfig{})
		c.RateLimiter = &mock.DomainLimiter{
			WaitFn: func(_ context.Context, domain string) error {
				mu.Lock()
				defer mu.Unlock()
				hosts = append(hosts, domain)
				return nil
			},
		}

		_, err := c.Run(context.Background(), crawl.Seeds{GameIDs: []bggcrawl.EntityID{13}}, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"boardgamegeek.com"}, hosts)
	})

	t.Run("stops at MaxRequests", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCrawler(crawl.SpiderConfig{BatchSize: 1})
		c.MaxRequests = 2

		result, err := c.Run(context.Background(), crawl.Seeds{GameIDs: []bggcrawl.EntityID{1, 2, 3, 4, 5}}, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Requests)
	})

	t.Run("processes requests in parallel", func(t *testing.T) {
		t.Parallel()

		var maxConcurrent atomic.Int32
		var currentConcurrent atomic.Int32

		const numGames = 10
		const concurrency = 3

		c, m := newTestCrawler(crawl.SpiderConfig{BatchSize: 1})
		c.Concurrency = concurrency
		m.Fetcher.FetchFn = func(_ context.Context, url string) ([]byte, error) {
			current := currentConcurrent.Add(1)
			for {
				max := maxConcurrent.Load()
				if current <= max || maxConcurrent.CompareAndSwap(max, current) {
					break
				}
			}

			// Simulate work to allow concurrency to build up
			time.Sleep(50 * time.Millisecond)

			currentConcurrent.Add(-1)
			return []byte(url), nil
		}

		var ids []bggcrawl.EntityID
		for i := 1; i <= numGames; i++ {
			ids = append(ids, bggcrawl.EntityID(i))
		}

		result, err := c.Run(context.Background(), crawl.Seeds{GameIDs: ids}, nil)

		require.NoError(t, err)
		assert.Equal(t, numGames, result.Games)
		assert.Greater(t, maxConcurrent.Load(), int32(1), "should process concurrently")
		assert.LessOrEqual(t, maxConcurrent.Load(), int32(concurrency), "should respect concurrency limit")
	})

	t.Run("returns partial result on cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		c, m := newTestCrawler(crawl.SpiderConfig{BatchSize: 1})
		c.Concurrency = 1
		m.Fetcher.FetchFn = func(ctx context.Context, url string) ([]byte, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}

		result, err := c.Run(ctx, crawl.Seeds{GameIDs: []bggcrawl.EntityID{1, 2, 3}}, nil)

		require.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, result)
		assert.Equal(t, 0, result.Games)
	})
}
