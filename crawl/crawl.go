// Package crawl provides the incremental harvesting engine.
// It coordinates sitemap discovery, request scheduling, fetching, parsing,
// and storage of games, ratings, collections, and users.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/bggcrawl"
	"golang.org/x/sync/errgroup"
)

// Queue configuration.
const (
	// queueExpectedRequests is the expected number of requests for Bloom filter sizing.
	queueExpectedRequests = 1_000_000
	// queueFalsePositiveRate is the acceptable false positive rate for deduplication.
	queueFalsePositiveRate = 0.001
)

// Crawler orchestrates an incremental crawl of the API.
type Crawler struct {
	Sitemaps    bggcrawl.SitemapService
	Fetcher     bggcrawl.Fetcher
	Parser      bggcrawl.ResponseParser
	Spider      *Spider
	Store       bggcrawl.ItemStore
	RateLimiter bggcrawl.DomainLimiter
	Concurrency int
	RetryDelays []time.Duration
	Logger      *slog.Logger

	// RobotsURL is where sitemap discovery starts. Empty skips the sitemaps.
	RobotsURL     string
	SitemapFilter *bggcrawl.URLFilter

	// MaxRequests caps the number of dispatched requests. Zero means no cap.
	MaxRequests int
}

// Result holds the outcome of a crawl.
type Result struct {
	Requests int
	Failed   int
	Games    int
	Ratings  int
	Users    int
	Bytes    int
}

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Queued    int
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// fetchResult holds the outcome of processing a single request.
type fetchResult struct {
	req        *bggcrawl.Request
	bytes      int
	things     *bggcrawl.ThingResponse
	collection *bggcrawl.CollectionResponse
	user       *bggcrawl.User
	err        error
}

func (c *Crawler) logger() *slog.Logger {
	return orDiscard(c.Logger)
}

// Run crawls from the seeds and, if RobotsURL is set, the sitemaps until no
// requests remain. The Spider is invoked synchronously on the calling
// goroutine for every response; fetching and parsing happen on a pool of
// workers. On cancellation Run returns the partial result with the context
// error.
func (c *Crawler) Run(ctx context.Context, seeds Seeds, progress ProgressFunc) (*Result, error) {
	if c.Spider == nil {
		return nil, bggcrawl.Errorf(bggcrawl.EINVALID, "crawler requires a spider")
	}

	queue := NewQueue(queueExpectedRequests, queueFalsePositiveRate)
	for _, req := range c.Spider.StartRequests(seeds) {
		queue.Push(req)
	}

	if c.Sitemaps != nil && c.RobotsURL != "" {
		urls, err := c.Sitemaps.DiscoverURLs(ctx, c.RobotsURL, c.SitemapFilter)
		if err != nil {
			return nil, fmt.Errorf("sitemap discovery: %w", err)
		}
		for _, req := range c.Spider.SitemapRequests(urls) {
			queue.Push(req)
		}
	}

	if progress != nil {
		progress(ProgressEvent{
			Type:   ProgressStarted,
			Queued: queue.Len(),
		})
	}

	var result Result
	err := c.walkQueue(ctx, queue, func(res *fetchResult) {
		c.handleResult(ctx, res, queue, &result, progress)
	})

	if progress != nil {
		progress(ProgressEvent{
			Type:      ProgressFinished,
			Completed: result.Requests,
			Queued:    queue.Len(),
		})
	}

	return &result, err
}

// walkQueue dispatches queued requests to a pool of workers and hands every
// result to handle on the calling goroutine. It returns once the queue is
// drained and no request is in flight.
func (c *Crawler) walkQueue(ctx context.Context, queue *Queue, handle func(*fetchResult)) error {
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	workCh := make(chan *bggcrawl.Request)
	resultCh := make(chan *fetchResult)

	g, gctx := errgroup.WithContext(ctx)
	for range concurrency {
		g.Go(func() error {
			for req := range workCh {
				res := c.process(gctx, req)
				select {
				case resultCh <- res:
				case <-gctx.Done():
					return nil
				}
			}
			return nil
		})
	}

	dispatched := 0
	pending := 0
	var next *bggcrawl.Request

coordinatorLoop:
	for {
		if next == nil && (c.MaxRequests <= 0 || dispatched < c.MaxRequests) {
			if req, ok := queue.Pop(); ok {
				next = req
			}
		}

		if next == nil && pending == 0 {
			break coordinatorLoop
		}

		if next != nil {
			select {
			case <-ctx.Done():
				break coordinatorLoop
			case workCh <- next:
				dispatched++
				pending++
				next = nil
			case res := <-resultCh:
				pending--
				handle(res)
			}
			continue
		}

		select {
		case <-ctx.Done():
			break coordinatorLoop
		case res := <-resultCh:
			pending--
			handle(res)
		}
	}

	close(workCh)
	_ = g.Wait()

	return ctx.Err()
}

// process fetches and parses a single request.
func (c *Crawler) process(ctx context.Context, req *bggcrawl.Request) *fetchResult {
	res := &fetchResult{req: req}

	if c.RateLimiter != nil {
		u, err := url.Parse(req.URL)
		if err != nil {
			res.err = err
			return res
		}
		if err := c.RateLimiter.Wait(ctx, u.Host); err != nil {
			res.err = err
			return res
		}
	}

	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	logf := func(format string, args ...any) {
		c.logger().Debug(fmt.Sprintf(format, args...))
	}
	body, err := FetchWithRetryDelays(ctx, req.URL, c.Fetcher.Fetch, logf, delays)
	if err != nil {
		res.err = err
		return res
	}
	res.bytes = len(body)

	switch req.Action {
	case bggcrawl.ActionThing:
		res.things, res.err = c.Parser.ParseThings(body)
	case bggcrawl.ActionCollection:
		res.collection, res.err = c.Parser.ParseCollection(body)
	case bggcrawl.ActionUser:
		res.user, res.err = c.Parser.ParseUser(body)
	default:
		res.err = bggcrawl.Errorf(bggcrawl.EINVALID, "unknown action %q", req.Action)
	}
	return res
}

// handleResult runs the Spider on a completed request, queues its
// follow-up requests, and stores its records.
func (c *Crawler) handleResult(ctx context.Context, res *fetchResult, queue *Queue, result *Result, progress ProgressFunc) {
	result.Requests++
	result.Bytes += res.bytes

	if res.err != nil {
		c.fail(res.req.URL, res.err, result, queue, progress)
		return
	}

	var out Output
	switch {
	case res.things != nil:
		out = c.Spider.ParseThings(res.req, res.things)
	case res.collection != nil:
		out = c.Spider.ParseCollection(res.req, res.collection)
	case res.user != nil:
		out = c.Spider.ParseUser(res.req, res.user)
	}

	for _, req := range out.Requests {
		queue.Push(req)
	}

	if err := c.store(ctx, out, result); err != nil {
		c.fail(res.req.URL, err, result, queue, progress)
		return
	}

	if progress != nil {
		progress(ProgressEvent{
			Type:      ProgressCompleted,
			Completed: result.Requests,
			Queued:    queue.Len(),
			URL:       res.req.URL,
		})
	}
}

func (c *Crawler) fail(rawURL string, err error, result *Result, queue *Queue, progress ProgressFunc) {
	result.Failed++
	c.logger().Warn("request failed", "url", rawURL, "error", err)
	if progress != nil {
		progress(ProgressEvent{
			Type:      ProgressFailed,
			Completed: result.Requests,
			Queued:    queue.Len(),
			URL:       rawURL,
			Error:     err,
		})
	}
}

// store hands the records of one response to the ItemStore. It stops at
// the first error.
func (c *Crawler) store(ctx context.Context, out Output, result *Result) error {
	if c.Store == nil {
		return nil
	}
	for _, g := range out.Games {
		if err := c.Store.SaveGame(ctx, g); err != nil {
			return fmt.Errorf("save game %d: %w", g.ID, err)
		}
		result.Games++
	}
	for _, item := range out.CollectionItems {
		if err := c.Store.SaveCollectionItem(ctx, item); err != nil {
			return fmt.Errorf("save collection item %s: %w", item.ID, err)
		}
		result.Ratings++
	}
	for _, u := range out.Users {
		if err := c.Store.SaveUser(ctx, u); err != nil {
			return fmt.Errorf("save user %s: %w", u.Name, err)
		}
		result.Users++
	}
	return nil
}
