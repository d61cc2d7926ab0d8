package bggcrawl

import "context"

// Frontier records which game IDs already had a primary fetch scheduled
// during one crawl run.
type Frontier interface {
	// CheckAndMark reports whether id was already seen and marks it as seen.
	// The check and the mark happen atomically.
	CheckAndMark(id EntityID) bool

	// Len returns the number of distinct IDs seen.
	Len() int
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
