// Package http provides HTTP implementations of bggcrawl.Fetcher and
// bggcrawl.SitemapService.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/bggcrawl"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// DefaultUserAgent identifies the crawler to the API.
const DefaultUserAgent = "bggcrawl (+https://github.com/fwojciec/bggcrawl)"

// Ensure Fetcher implements bggcrawl.Fetcher at compile time.
var _ bggcrawl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves API responses using HTTP requests.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
// Defaults to DefaultUserAgent if not specified.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the body of the given URL.
//
// The API answers 202 Accepted while it prepares a response; that, 429 and
// 5xx responses, and transport failures are reported as EUNAVAILABLE so the
// caller can retry. Any other non-200 status is EINVALID.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, bggcrawl.Errorf(bggcrawl.EINVALID, "creating request: %v", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &bggcrawl.Error{Code: bggcrawl.EUNAVAILABLE, Message: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case retryable(resp.StatusCode):
		return nil, bggcrawl.Errorf(bggcrawl.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	default:
		return nil, bggcrawl.Errorf(bggcrawl.EINVALID, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, bggcrawl.Errorf(bggcrawl.EUNAVAILABLE, "reading body of %s: %v", url, err)
	}

	return body, nil
}

func retryable(status int) bool {
	return status == http.StatusAccepted ||
		status == http.StatusTooManyRequests ||
		status >= http.StatusInternalServerError
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

