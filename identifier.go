package bggcrawl

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Namespace identifies an external identifier scheme.
type Namespace string

// Known identifier namespaces, in resolution order.
const (
	NamespaceBGG       Namespace = "bgg"
	NamespaceBGGUser   Namespace = "bgg_user"
	NamespaceFreebase  Namespace = "freebase"
	NamespaceWikidata  Namespace = "wikidata"
	NamespaceWikipedia Namespace = "wikipedia"
	NamespaceDBpedia   Namespace = "dbpedia"
	NamespaceLuding    Namespace = "luding"
	NamespaceSpielen   Namespace = "spielen"
)

// ExternalID is an identifier within one namespace. Numeric namespaces hold
// the canonical decimal form.
type ExternalID struct {
	Namespace Namespace
	Value     string
}

// ExternalIDs maps a namespace to its identifiers in discovery order.
type ExternalIDs map[Namespace][]string

// First returns the first identifier of the namespace, or "".
func (ids ExternalIDs) First(ns Namespace) string {
	if v := ids[ns]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// identifierRule describes how one namespace is recognized.
type identifierRule struct {
	namespace Namespace
	hosts     []string
	hostRegex *regexp.Regexp
	path      *regexp.Regexp
	group     int
	// format builds the value from the path submatches; nil uses the
	// unescaped capture group.
	format func(m []string) string
	param  string
	// numeric values must parse as integers.
	numeric bool
	// reject drops a path-derived value in favour of the query parameter.
	reject func(v string) bool
	lower  bool
}

var identifierRules = []identifierRule{
	{
		namespace: NamespaceBGG,
		hosts:     []string{"boardgamegeek.com", "www.boardgamegeek.com"},
		path:      regexp.MustCompile(`^/(board)?game/(\d+).*$`),
		group:     2,
		param:     "id",
		numeric:   true,
	},
	{
		namespace: NamespaceBGGUser,
		hosts:     []string{"boardgamegeek.com", "www.boardgamegeek.com"},
		path:      regexp.MustCompile(`^/user/([^/]+).*$`),
		group:     1,
		param:     "username",
		lower:     true,
	},
	{
		namespace: NamespaceFreebase,
		hosts:     []string{"rdf.freebase.com", "freebase.com"},
		path:      regexp.MustCompile(`^/ns/(g|m)\.([^/]+).*$`),
		format:    func(m []string) string { return "/" + m[1] + "/" + m[2] },
		param:     "id",
	},
	{
		namespace: NamespaceWikidata,
		hosts:     []string{"wikidata.org", "www.wikidata.org", "wikidata.dbpedia.org"},
		path:      regexp.MustCompile(`^/(wiki|entity|resource)/Q(\d+).*$`),
		format:    func(m []string) string { return "Q" + m[2] },
		param:     "id",
	},
	{
		namespace: NamespaceWikipedia,
		hosts:     []string{"en.wikipedia.org", "en.m.wikipedia.org"},
		path:      regexp.MustCompile(`^/wiki/(.*)$`),
		group:     1,
	},
	{
		namespace: NamespaceDBpedia,
		hosts:     []string{"dbpedia.org", "www.dbpedia.org"},
		hostRegex: regexp.MustCompile(`^[a-z]{2}\.dbpedia\.org$`),
		path:      regexp.MustCompile(`^/(resource|page)/(.+)$`),
		group:     2,
		param:     "id",
	},
	{
		namespace: NamespaceLuding,
		hosts:     []string{"luding.org", "www.luding.org"},
		path:      regexp.MustCompile(`^.*gameid/(\d+).*$`),
		group:     1,
		param:     "gameid",
		numeric:   true,
	},
	{
		namespace: NamespaceSpielen,
		hosts:     []string{"gesellschaftsspiele.spielen.de", "www.gesellschaftsspiele.spielen.de"},
		path:      regexp.MustCompile(`^/(alle-brettspiele|messeneuheiten|ausgezeichnet-\d+)/(\w[^/]*).*$`),
		group:     2,
		param:     "id",
		reject:    isInteger,
	},
}

// ResolveURL returns the identifiers the URL carries, at most one per
// namespace, in namespace order. Unparseable URLs yield nothing.
func ResolveURL(raw string) []ExternalID {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" || u.Path == "" {
		return nil
	}
	var ids []ExternalID
	for i := range identifierRules {
		if v, ok := identifierRules[i].resolve(u); ok {
			ids = append(ids, ExternalID{Namespace: identifierRules[i].namespace, Value: v})
		}
	}
	return ids
}

// ResolveURLs resolves every URL and collects, per namespace, the unique
// identifiers in the order they were first found.
func ResolveURLs(urls ...string) ExternalIDs {
	result := make(ExternalIDs)
	seen := make(map[ExternalID]bool)
	for _, raw := range urls {
		for _, id := range ResolveURL(raw) {
			if seen[id] {
				continue
			}
			seen[id] = true
			result[id.Namespace] = append(result[id.Namespace], id.Value)
		}
	}
	return result
}

// ExtractQueryParam returns the first non-empty value of a query parameter.
func ExtractQueryParam(raw, name string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return queryParam(u, name)
}

func queryParam(u *url.URL, name string) string {
	for _, v := range u.Query()[name] {
		if v != "" {
			return v
		}
	}
	return ""
}

func (r *identifierRule) matchesHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range r.hosts {
		if h == host {
			return true
		}
	}
	return r.hostRegex != nil && r.hostRegex.MatchString(host)
}

func (r *identifierRule) resolve(u *url.URL) (string, bool) {
	if !r.matchesHost(u.Hostname()) {
		return "", false
	}
	if v, ok := r.normalize(r.fromPath(u.EscapedPath())); ok {
		if r.reject == nil || !r.reject(v) {
			return v, true
		}
	}
	if r.param == "" {
		return "", false
	}
	return r.normalize(queryParam(u, r.param))
}

func (r *identifierRule) fromPath(path string) string {
	m := r.path.FindStringSubmatch(path)
	if m == nil {
		return ""
	}
	if r.format != nil {
		return r.format(m)
	}
	v, err := url.QueryUnescape(m[r.group])
	if err != nil {
		return ""
	}
	return v
}

func (r *identifierRule) normalize(v string) (string, bool) {
	if v == "" {
		return "", false
	}
	if r.numeric {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatInt(n, 10), true
	}
	if r.lower {
		v = strings.ToLower(v)
	}
	return v, true
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}
