package crawl

import (
	"sync"

	"github.com/fwojciec/bggcrawl"
)

// Compile-time interface verification.
var _ bggcrawl.Frontier = (*Frontier)(nil)

// Frontier is the exact set of game IDs whose primary fetch was scheduled
// during one run. It is safe for concurrent use by multiple goroutines.
//
// A nil *Frontier treats every ID as unseen.
type Frontier struct {
	mu   sync.Mutex
	seen map[bggcrawl.EntityID]struct{}
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{seen: make(map[bggcrawl.EntityID]struct{})}
}

// CheckAndMark reports whether id was seen before and marks it as seen.
// Concurrent callers racing on the same ID observe exactly one false.
func (f *Frontier) CheckAndMark(id bggcrawl.EntityID) bool {
	if f == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[id]; ok {
		return true
	}
	f.seen[id] = struct{}{}
	return false
}

// Len returns the number of distinct IDs seen.
func (f *Frontier) Len() int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
