package bggcrawl

import (
	"context"
	"regexp"
)

// SitemapService discovers page URLs from a site's sitemaps.
type SitemapService interface {
	// DiscoverURLs reads the Sitemap: directives of the given robots.txt,
	// falling back to /sitemap.xml on the same host. Sitemap indexes are
	// resolved recursively, following only locs accepted by the filter.
	// If filter is nil, every sitemap is followed and every URL returned.
	DiscoverURLs(ctx context.Context, robotsURL string, filter *URLFilter) ([]string, error)
}

// URLFilter specifies patterns for following sitemaps and including URLs.
type URLFilter struct {
	// Follow patterns - if set, only sitemap index locs matching at least
	// one pattern are followed.
	Follow []*regexp.Regexp

	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}
	if len(f.Include) > 0 && !matchAny(f.Include, url) {
		return false
	}
	return !matchAny(f.Exclude, url)
}

// Follows returns true if the sitemap at url should be followed.
// If the filter is nil, all sitemaps are followed.
func (f *URLFilter) Follows(url string) bool {
	if f == nil || len(f.Follow) == 0 {
		return true
	}
	return matchAny(f.Follow, url)
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
