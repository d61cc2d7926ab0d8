package crawl

import (
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/bggcrawl"
)

// DefaultBatchSize is the number of game IDs requested per thing request.
const DefaultBatchSize = 20

// boardgameURL matches game pages listed in the sitemaps.
var boardgameURL = regexp.MustCompile(`/boardgame(compilation|implementation)?/(\d+)`)

// SpiderConfig configures which data a Spider harvests.
type SpiderConfig struct {
	// APIURL is the API base URL. Empty means bggcrawl.DefaultAPIURL.
	APIURL string

	// PageSize is the number of rating comments per page.
	PageSize int

	// BatchSize is the number of game IDs per thing request.
	BatchSize int

	ScrapeRatings     bool
	ScrapeCollections bool
	ScrapeUsers       bool

	Polls bggcrawl.PollAggregator
}

// Seeds are the externally supplied starting points of a crawl.
type Seeds struct {
	GameIDs      []bggcrawl.EntityID
	UserNames    []string
	PremiumUsers []string
}

// Output is everything a Spider yields for one response.
type Output struct {
	Requests        []*bggcrawl.Request
	Games           []*bggcrawl.Game
	CollectionItems []*bggcrawl.CollectionItem
	Users           []*bggcrawl.User
}

func (o *Output) merge(other Output) {
	o.Requests = append(o.Requests, other.Requests...)
	o.Games = append(o.Games, other.Games...)
	o.CollectionItems = append(o.CollectionItems, other.CollectionItems...)
	o.Users = append(o.Users, other.Users...)
}

// Spider turns API responses into records and follow-up requests.
// It performs no I/O. Its methods are called from a single goroutine.
type Spider struct {
	SpiderConfig

	// Frontier deduplicates primary game fetches. Nil treats every game
	// as unseen.
	Frontier bggcrawl.Frontier

	Logger *slog.Logger

	// Now returns the scrape timestamp. Nil means time.Now.
	Now func() time.Time

	paginator  *Paginator
	noFrontier sync.Once
}

// NewSpider creates a Spider. Collections and users are only reachable
// through ratings, so enabling them without ratings is logged and undone.
func NewSpider(cfg SpiderConfig, frontier bggcrawl.Frontier, logger *slog.Logger) *Spider {
	logger = orDiscard(logger)

	if cfg.APIURL == "" {
		cfg.APIURL = bggcrawl.DefaultAPIURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.ScrapeCollections && !cfg.ScrapeRatings {
		logger.Warn("scraping collections requires scraping ratings, disabling collections")
		cfg.ScrapeCollections = false
	}
	if cfg.ScrapeUsers && !cfg.ScrapeRatings {
		logger.Warn("scraping users requires scraping ratings, disabling users")
		cfg.ScrapeUsers = false
	}

	logger.Info("spider configured",
		"ratings", cfg.ScrapeRatings,
		"collections", cfg.ScrapeCollections,
		"users", cfg.ScrapeUsers,
		"min_votes", cfg.Polls.MinVotes,
	)

	return &Spider{
		SpiderConfig: cfg,
		Frontier:     frontier,
		Logger:       logger,
		paginator:    &Paginator{PageSize: cfg.PageSize, Logger: logger},
	}
}

func (s *Spider) logger() *slog.Logger {
	return orDiscard(s.Logger)
}

func (s *Spider) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

func (s *Spider) apiURL() string {
	if s.APIURL == "" {
		return bggcrawl.DefaultAPIURL
	}
	return s.APIURL
}

func (s *Spider) getPaginator() *Paginator {
	if s.paginator == nil {
		s.paginator = &Paginator{PageSize: s.PageSize, Logger: s.Logger}
	}
	return s.paginator
}

// StartRequests returns the requests derived from seeds: premium users
// first, then seeded users, then seeded games.
func (s *Spider) StartRequests(seeds Seeds) []*bggcrawl.Request {
	var reqs []*bggcrawl.Request

	premium := uniqueNames(seeds.PremiumUsers)
	if s.ScrapeCollections {
		for _, name := range premium {
			req := s.CollectionRequest(name, bggcrawl.PriorityPremiumCollect)
			req.DontFilter = true
			reqs = append(reqs, req)
		}
	}
	if s.ScrapeUsers {
		for _, name := range premium {
			req := s.UserRequest(name, bggcrawl.PriorityPremiumUser)
			req.DontFilter = true
			reqs = append(reqs, req)
		}
	}

	users := uniqueNames(seeds.UserNames)
	if s.ScrapeCollections {
		for _, name := range users {
			reqs = append(reqs, s.CollectionRequest(name, bggcrawl.PriorityCollectionFile))
		}
	}
	if s.ScrapeUsers {
		for _, name := range users {
			reqs = append(reqs, s.UserRequest(name, bggcrawl.PriorityUserFile))
		}
	}

	s.logger().Info("seeded start requests",
		"premium_users", len(premium),
		"users", len(users),
		"games", len(seeds.GameIDs),
	)

	return append(reqs, s.GameRequests(seeds.GameIDs, 1, 0, bggcrawl.PriorityGameFile)...)
}

// SitemapRequests returns game requests for the game pages among urls.
func (s *Spider) SitemapRequests(urls []string) []*bggcrawl.Request {
	var ids []bggcrawl.EntityID
	for _, u := range urls {
		m := boardgameURL.FindStringSubmatch(u)
		if m == nil {
			continue
		}
		if id, ok := bggcrawl.ParseEntityID(m[2]); ok {
			ids = append(ids, id)
		}
	}
	return s.GameRequests(ids, 1, 0, bggcrawl.PrioritySitemap)
}

// GameRequests returns thing requests for ids in sorted batches. First page
// requests skip IDs the frontier has already seen; later pages bypass it.
func (s *Spider) GameRequests(ids []bggcrawl.EntityID, page, maxPage int, priority bggcrawl.Priority) []*bggcrawl.Request {
	if page <= 0 {
		page = 1
	}

	unique := slices.DeleteFunc(slices.Clone(ids), func(id bggcrawl.EntityID) bool { return id <= 0 })
	slices.Sort(unique)
	unique = slices.Compact(unique)

	if page == 1 {
		if s.Frontier == nil {
			s.noFrontier.Do(func() {
				s.logger().Warn("no frontier configured, games may be requested more than once")
			})
		}
		unique = slices.DeleteFunc(unique, func(id bggcrawl.EntityID) bool {
			return s.Frontier != nil && s.Frontier.CheckAndMark(id)
		})
	}
	if len(unique) == 0 {
		return nil
	}

	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var reqs []*bggcrawl.Request
	for chunk := range slices.Chunk(unique, batchSize) {
		params := map[string]string{
			"id":       bggcrawl.JoinIDs(chunk),
			"type":     "boardgame",
			"videos":   "1",
			"page":     strconv.Itoa(page),
			"pagesize": strconv.Itoa(pageSize),
		}
		if page == 1 {
			params["stats"] = "1"
		}
		if s.ScrapeRatings {
			params["ratingcomments"] = "1"
		}

		reqs = append(reqs, &bggcrawl.Request{
			URL:      bggcrawl.APIURL(s.apiURL(), bggcrawl.ActionThing, params),
			Action:   bggcrawl.ActionThing,
			Priority: priority,
			Batch: &bggcrawl.BatchContext{
				IDs:     slices.Clone(chunk),
				Page:    page,
				MaxPage: maxPage,
			},
		})
	}
	return reqs
}

// CollectionRequest returns the request for a user's board game collection.
func (s *Spider) CollectionRequest(userName string, priority bggcrawl.Priority) *bggcrawl.Request {
	userName = strings.ToLower(userName)
	return &bggcrawl.Request{
		URL: bggcrawl.APIURL(s.apiURL(), bggcrawl.ActionCollection, map[string]string{
			"username":       userName,
			"subtype":        "boardgame",
			"excludesubtype": "boardgameexpansion",
			"stats":          "1",
			"version":        "0",
		}),
		Action:   bggcrawl.ActionCollection,
		Priority: priority,
		UserName: userName,
	}
}

// UserRequest returns the request for a user's profile.
func (s *Spider) UserRequest(userName string, priority bggcrawl.Priority) *bggcrawl.Request {
	userName = strings.ToLower(userName)
	return &bggcrawl.Request{
		URL:      bggcrawl.APIURL(s.apiURL(), bggcrawl.ActionUser, map[string]string{"name": userName}),
		Action:   bggcrawl.ActionUser,
		Priority: priority,
		UserName: userName,
	}
}

// ParseThings handles a thing response: the next page of the batch, games
// on the first page, and ratings on every page.
func (s *Spider) ParseThings(req *bggcrawl.Request, resp *bggcrawl.ThingResponse) Output {
	var out Output
	if resp == nil {
		return out
	}

	var batch *bggcrawl.BatchContext
	if req != nil {
		batch = req.Batch
	}
	paginator := s.getPaginator()
	state := paginator.Resolve(batch, resp.PageSignals())

	if paginator.Continue(state, resp.CommentCount(), s.ScrapeRatings) {
		ids := batchIDs(batch, resp)
		out.Requests = append(out.Requests,
			s.GameRequests(ids, state.Page+1, state.MaxPage, bggcrawl.Priority(-state.Page-1))...)
	}

	now := s.now()
	for _, item := range resp.Items {
		if item.Type != "boardgame" {
			s.logger().Warn("skipping item", "type", item.Type, "id", item.ID)
			continue
		}
		if item.ID <= 0 {
			s.logger().Warn("skipping item without id")
			continue
		}

		if state.Page == 1 {
			out.Games = append(out.Games, s.game(item, now))
		}

		if !s.ScrapeRatings || item.Comments == nil {
			continue
		}
		out.merge(s.ratings(item, now))
	}
	return out
}

func (s *Spider) ratings(item *bggcrawl.ThingItem, now time.Time) Output {
	var out Output
	for _, c := range item.Comments.Comments {
		userName := strings.ToLower(strings.TrimSpace(c.UserName))
		if userName == "" {
			s.logger().Warn("skipping rating without user name", "id", item.ID)
			continue
		}

		if s.ScrapeCollections {
			out.Requests = append(out.Requests, s.CollectionRequest(userName, bggcrawl.PriorityDiscovered))
		} else {
			out.CollectionItems = append(out.CollectionItems, &bggcrawl.CollectionItem{
				ID:        bggcrawl.CollectionItemID(userName, item.ID),
				GameID:    item.ID,
				UserName:  userName,
				Rating:    c.Rating,
				Comment:   c.Text,
				ScrapedAt: now,
			})
		}

		if s.ScrapeUsers {
			out.Requests = append(out.Requests, s.UserRequest(userName, bggcrawl.PriorityUserFromRating))
		}
	}
	return out
}

// game completes the directly mapped fields of an item with poll
// summaries, identifiers and the scrape time.
func (s *Spider) game(item *bggcrawl.ThingItem, now time.Time) *bggcrawl.Game {
	var g bggcrawl.Game
	if item.Game != nil {
		g = *item.Game
	}
	g.ID = item.ID
	if g.URL == "" {
		g.URL = bggcrawl.GameURL(g.ID)
	}

	players := s.Polls.PlayerCount(item.Polls[bggcrawl.PollPlayerCount], g.MinPlayers, g.MaxPlayers)
	g.MinPlayersRec = players.RecommendedMin
	g.MaxPlayersRec = players.RecommendedMax
	g.MinPlayersBest = players.BestMin
	g.MaxPlayersBest = players.BestMax

	g.MinAgeRec = s.Polls.SuggestedAge(item.Polls[bggcrawl.PollPlayerAge])
	if g.MinAgeRec == 0 {
		g.MinAgeRec = float64(g.MinAge)
	}
	g.LanguageDependency = s.Polls.LanguageDependency(item.Polls[bggcrawl.PollLanguageDependence])

	if ids := bggcrawl.ResolveURLs(g.URL); len(ids) > 0 {
		g.ExternalIDs = ids
	}
	g.ScrapedAt = now
	return &g
}

// ParseCollection handles a collection response: first page requests for
// every listed game and the user's collection items.
func (s *Spider) ParseCollection(req *bggcrawl.Request, resp *bggcrawl.CollectionResponse) Output {
	var out Output
	if resp == nil {
		return out
	}

	ids := make([]bggcrawl.EntityID, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.GameID > 0 {
			ids = append(ids, item.GameID)
		}
	}
	out.Requests = s.GameRequests(ids, 1, 0, bggcrawl.PriorityCollectionGame)

	userName := requestUserName(req, "username")
	now := s.now()
	for _, item := range resp.Items {
		c := *item
		if userName != "" {
			c.UserName = userName
		}
		c.UserName = strings.ToLower(c.UserName)
		if c.GameID <= 0 || c.UserName == "" {
			s.logger().Warn("skipping collection item without game id or user name", "id", c.ID)
			continue
		}
		if c.ID == "" {
			c.ID = bggcrawl.CollectionItemID(c.UserName, c.GameID)
		}
		c.ScrapedAt = now
		out.CollectionItems = append(out.CollectionItems, &c)
	}
	return out
}

// ParseUser handles a user response.
func (s *Spider) ParseUser(req *bggcrawl.Request, user *bggcrawl.User) Output {
	var out Output
	if user == nil {
		return out
	}

	u := *user
	if name := requestUserName(req, "name"); name != "" {
		u.Name = name
	}
	u.Name = strings.ToLower(u.Name)
	if u.Name == "" {
		s.logger().Warn("skipping user without name")
		return out
	}

	if ids := bggcrawl.ResolveURLs(bggcrawl.UserURL(u.Name), u.ExternalURL); len(ids) > 0 {
		u.ExternalIDs = ids
	}
	u.ScrapedAt = s.now()
	out.Users = append(out.Users, &u)
	return out
}

// requestUserName returns the user name a request was made for, falling
// back to the given query parameter of its URL.
func requestUserName(req *bggcrawl.Request, param string) string {
	if req == nil {
		return ""
	}
	if req.UserName != "" {
		return strings.ToLower(req.UserName)
	}
	return strings.ToLower(bggcrawl.ExtractQueryParam(req.URL, param))
}

func batchIDs(batch *bggcrawl.BatchContext, resp *bggcrawl.ThingResponse) []bggcrawl.EntityID {
	if batch != nil && len(batch.IDs) > 0 {
		return batch.IDs
	}
	var ids []bggcrawl.EntityID
	for _, item := range resp.Items {
		if item.ID > 0 {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

func uniqueNames(names []string) []string {
	var out []string
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
