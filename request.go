package bggcrawl

import (
	"net/url"
	"strings"
)

// DefaultAPIURL is the base URL of the BoardGameGeek XML API2.
const DefaultAPIURL = "https://boardgamegeek.com/xmlapi2"

// SiteURL is the public website the API belongs to.
const SiteURL = "https://boardgamegeek.com"

// GameURL returns the public page of a game.
func GameURL(id EntityID) string {
	return SiteURL + "/boardgame/" + id.String() + "/"
}

// UserURL returns the public profile page of a user.
func UserURL(name string) string {
	return SiteURL + "/user/" + url.PathEscape(name)
}

// Action identifies an API endpoint.
type Action string

// Supported API actions.
const (
	ActionThing      Action = "thing"
	ActionCollection Action = "collection"
	ActionUser       Action = "user"
)

// Priority orders requests in the crawl queue (higher = earlier).
type Priority int

// Request priorities used by the discovery paths.
// Continuation pages use -(page), always below PrioritySitemap.
const (
	PrioritySitemap        Priority = -1
	PriorityCollectionGame Priority = -1
	PriorityDiscovered     Priority = 0
	PriorityGameFile       Priority = 1
	PriorityUserFromRating Priority = 1
	PriorityCollectionFile Priority = 2
	PriorityUserFile       Priority = 3
	PriorityPremiumCollect Priority = 3
	PriorityPremiumUser    Priority = 4
)

// BatchContext travels with a thing request and comes back with its response.
// MaxPage is zero when unknown.
type BatchContext struct {
	IDs     []EntityID
	Page    int
	MaxPage int
}

// Request is a fetch descriptor handed to the transport layer.
type Request struct {
	URL      string
	Action   Action
	Priority Priority

	// Batch is set for thing requests.
	Batch *BatchContext

	// UserName is set for collection and user requests.
	UserName string

	// DontFilter bypasses request deduplication.
	DontFilter bool
}

// APIURL builds "<base>/<action>?<query>" with the query parameters sorted by
// key. Empty values are dropped.
func APIURL(base string, action Action, params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		if k == "" || v == "" {
			continue
		}
		values.Set(k, v)
	}
	u := strings.TrimSuffix(base, "/") + "/" + string(action)
	if q := values.Encode(); q != "" {
		u += "?" + q
	}
	return u
}

// JoinIDs joins IDs with commas, as the thing endpoint expects.
func JoinIDs(ids []EntityID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}
