package bggcrawl

import "context"

// Fetcher retrieves raw response bodies from URLs.
type Fetcher interface {
	// Fetch returns the body of a successful response.
	// Responses that should be retried later (e.g. the API's "request
	// queued" status) fail with EUNAVAILABLE.
	Fetch(ctx context.Context, url string) ([]byte, error)

	// Close releases resources.
	Close() error
}
