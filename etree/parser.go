// Package etree parses BoardGameGeek XML API2 documents.
package etree

import (
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/fwojciec/bggcrawl"
	"golang.org/x/net/html/charset"
)

// Ensure Parser implements bggcrawl.ResponseParser.
var _ bggcrawl.ResponseParser = (*Parser)(nil)

// mechanicCooperative is the ID of the "Cooperative Game" mechanic.
const mechanicCooperative = "2023"

// Timestamp layouts used by the API.
const (
	lastModifiedLayout = "2006-01-02 15:04:05"
	lastLoginLayout    = "2006-01-02"
)

// Parser turns XML API2 responses into domain values.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseThings parses a thing response.
func (p *Parser) ParseThings(body []byte) (*bggcrawl.ThingResponse, error) {
	root, err := readRoot(body, "items")
	if err != nil {
		return nil, err
	}

	resp := &bggcrawl.ThingResponse{}
	for _, el := range root.SelectElements("item") {
		resp.Items = append(resp.Items, parseThing(el))
	}
	return resp, nil
}

// ParseCollection parses a collection response.
func (p *Parser) ParseCollection(body []byte) (*bggcrawl.CollectionResponse, error) {
	root, err := readRoot(body, "items")
	if err != nil {
		return nil, err
	}

	resp := &bggcrawl.CollectionResponse{}
	for _, el := range root.SelectElements("item") {
		resp.Items = append(resp.Items, parseCollectionItem(el))
	}
	return resp, nil
}

// ParseUser parses a user response.
func (p *Parser) ParseUser(body []byte) (*bggcrawl.User, error) {
	root, err := readRoot(body, "user")
	if err != nil {
		return nil, err
	}

	user := &bggcrawl.User{
		Name:        strings.TrimSpace(root.SelectAttrValue("name", "")),
		FirstName:   value(root, "firstname"),
		LastName:    value(root, "lastname"),
		Registered:  intValue(root, "yearregistered"),
		Country:     value(root, "country"),
		Region:      value(root, "stateorprovince"),
		ExternalURL: value(root, "webaddress"),
		ImageURL:    value(root, "avatarlink"),
	}
	if id, err := strconv.ParseInt(root.SelectAttrValue("id", ""), 10, 64); err == nil && id > 0 {
		user.ID = id
	}
	if t, err := time.Parse(lastLoginLayout, value(root, "lastlogin")); err == nil {
		user.LastLogin = t
	}
	if user.ImageURL == "N/A" {
		user.ImageURL = ""
	}
	return user, nil
}

// readRoot parses body and checks the root element. An <errors> document
// reports its first message.
func readRoot(body []byte, tag string) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, bggcrawl.Errorf(bggcrawl.EINVALID, "parsing XML: %v", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, bggcrawl.Errorf(bggcrawl.EINVALID, "empty XML document")
	}
	if root.Tag == "errors" || root.Tag == "error" {
		msg := "unknown error"
		if el := root.FindElement(".//message"); el != nil {
			msg = strings.TrimSpace(el.Text())
		}
		return nil, bggcrawl.Errorf(bggcrawl.EINVALID, "API error: %s", msg)
	}
	if root.Tag != tag {
		return nil, bggcrawl.Errorf(bggcrawl.EINVALID, "unexpected root element <%s>, want <%s>", root.Tag, tag)
	}
	return root, nil
}

func parseThing(el *etree.Element) *bggcrawl.ThingItem {
	id, _ := bggcrawl.ParseEntityID(el.SelectAttrValue("id", ""))
	item := &bggcrawl.ThingItem{
		ID:    id,
		Type:  el.SelectAttrValue("type", ""),
		Polls: make(map[string]*bggcrawl.Poll),
	}

	g := &bggcrawl.Game{
		ID:          id,
		Year:        intValue(el, "yearpublished"),
		Description: text(el, "description"),
		MinPlayers:  intValue(el, "minplayers"),
		MaxPlayers:  intValue(el, "maxplayers"),
		MinAge:      intValue(el, "minage"),
		MaxAge:      intValue(el, "maxage"),
		MinTime:     firstInt(el, "minplaytime", "playingtime", "maxplaytime"),
		MaxTime:     firstInt(el, "maxplaytime", "playingtime", "minplaytime"),
	}

	for _, name := range el.SelectElements("name") {
		v := strings.TrimSpace(name.SelectAttrValue("value", ""))
		if v == "" {
			continue
		}
		if name.SelectAttrValue("type", "") == "primary" && g.Name == "" {
			g.Name = v
		}
		g.AltNames = append(g.AltNames, v)
	}

	for _, tag := range []string{"image", "thumbnail"} {
		if u := text(el, tag); u != "" {
			g.ImageURLs = append(g.ImageURLs, u)
		}
	}
	for _, video := range el.FindElements("videos/video") {
		if u := strings.TrimSpace(video.SelectAttrValue("link", "")); u != "" {
			g.VideoURLs = append(g.VideoURLs, u)
		}
	}

	parseLinks(el, g)
	parseStatistics(el, g)

	for _, poll := range el.SelectElements("poll") {
		p := parsePoll(poll)
		if _, ok := item.Polls[p.Name]; !ok {
			item.Polls[p.Name] = p
		}
	}

	if comments := el.SelectElement("comments"); comments != nil {
		item.Comments = parseComments(comments)
	}

	item.Game = g
	return item
}

func parseLinks(el *etree.Element, g *bggcrawl.Game) {
	for _, link := range el.SelectElements("link") {
		id := link.SelectAttrValue("id", "")
		inbound := link.SelectAttrValue("inbound", "") == "true"
		switch link.SelectAttrValue("type", "") {
		case "boardgamedesigner":
			g.Designers = appendValueID(g.Designers, link)
		case "boardgameartist":
			g.Artists = appendValueID(g.Artists, link)
		case "boardgamepublisher":
			g.Publishers = appendValueID(g.Publishers, link)
		case "boardgamecategory":
			g.Categories = appendValueID(g.Categories, link)
		case "boardgamemechanic":
			g.Mechanics = appendValueID(g.Mechanics, link)
			if id == mechanicCooperative {
				g.Cooperative = true
			}
		case "boardgamefamily":
			g.Families = appendValueID(g.Families, link)
		case "boardgameexpansion":
			g.Expansions = appendValueID(g.Expansions, link)
		case "boardgamecompilation":
			if inbound {
				g.Compilation = true
				g.CompilationOf = appendID(g.CompilationOf, id)
			}
		case "boardgameimplementation":
			if inbound {
				g.Implementations = appendID(g.Implementations, id)
			}
		case "boardgameintegration":
			g.Integrations = appendID(g.Integrations, id)
		}
	}
}

func parseStatistics(el *etree.Element, g *bggcrawl.Game) {
	ratings := el.FindElement("statistics/ratings")
	if ratings == nil {
		return
	}

	g.NumVotes = intValue(ratings, "usersrated")
	g.AvgRating = floatValue(ratings, "average")
	g.StddevRating = floatValue(ratings, "stddev")
	g.BayesRating = floatValue(ratings, "bayesaverage")
	g.Complexity = floatValue(ratings, "averageweight")
	g.NumOwned = intValue(ratings, "owned")
	g.NumTrading = intValue(ratings, "trading")
	g.NumWanting = intValue(ratings, "wanting")
	g.NumWishing = intValue(ratings, "wishing")
	g.NumComments = intValue(ratings, "numcomments")
	g.NumWeights = intValue(ratings, "numweights")

	for _, rank := range ratings.FindElements("ranks/rank") {
		value, _ := strconv.Atoi(rank.SelectAttrValue("value", ""))
		if rank.SelectAttrValue("name", "") == "boardgame" {
			g.Rank = value
		}
		if rank.SelectAttrValue("type", "") != "family" {
			continue
		}

		id, _ := strconv.Atoi(rank.SelectAttrValue("id", ""))
		name := friendlyName(rank.SelectAttrValue("friendlyname", ""))
		if name != "" {
			if id > 0 {
				g.GameTypes = append(g.GameTypes, name+":"+strconv.Itoa(id))
			} else {
				g.GameTypes = append(g.GameTypes, name)
			}
		}
		bayes, _ := strconv.ParseFloat(rank.SelectAttrValue("bayesaverage", ""), 64)
		g.AddRanks = append(g.AddRanks, bggcrawl.Ranking{
			Type:        rank.SelectAttrValue("name", ""),
			ID:          id,
			Name:        name,
			Rank:        value,
			BayesRating: bayes,
		})
	}
}

// parsePoll reads a poll. The player count poll yields per-count tallies;
// every other poll yields its ballots in document order.
func parsePoll(el *etree.Element) *bggcrawl.Poll {
	poll := &bggcrawl.Poll{
		Name: el.SelectAttrValue("name", ""),
	}
	poll.TotalVotes, _ = strconv.Atoi(el.SelectAttrValue("totalvotes", ""))

	if poll.Name == bggcrawl.PollPlayerCount {
		for _, results := range el.SelectElements("results") {
			players, ok := bggcrawl.ParsePlayerCount(results.SelectAttrValue("numplayers", ""))
			if !ok {
				continue
			}
			votes := bggcrawl.PlayerCountVotes{Players: players}
			for _, result := range results.SelectElements("result") {
				n := numVotes(result)
				switch result.SelectAttrValue("value", "") {
				case "Best":
					votes.Best = n
				case "Recommended":
					votes.Recommended = n
				case "Not Recommended":
					votes.NotRecommended = n
				}
			}
			poll.PlayerCounts = append(poll.PlayerCounts, votes)
		}
		return poll
	}

	for _, result := range el.FindElements("results/result") {
		label := strings.TrimSpace(result.SelectAttrValue("value", ""))
		ballot := bggcrawl.Ballot{Label: label, Votes: numVotes(result)}
		if v, ok := bggcrawl.ParseLenientInt(label); ok {
			ballot.Value = float64(v)
		}
		poll.Ballots = append(poll.Ballots, ballot)
	}
	return poll
}

func parseComments(el *etree.Element) *bggcrawl.CommentPage {
	page := &bggcrawl.CommentPage{}
	page.Page, _ = strconv.Atoi(el.SelectAttrValue("page", ""))
	page.TotalItems, _ = strconv.Atoi(el.SelectAttrValue("totalitems", ""))

	for _, c := range el.SelectElements("comment") {
		rating, _ := strconv.ParseFloat(c.SelectAttrValue("rating", ""), 64)
		page.Comments = append(page.Comments, bggcrawl.Comment{
			UserName: strings.TrimSpace(c.SelectAttrValue("username", "")),
			Rating:   rating,
			Text:     strings.TrimSpace(c.SelectAttrValue("value", "")),
		})
	}
	return page
}

func parseCollectionItem(el *etree.Element) *bggcrawl.CollectionItem {
	gameID, _ := bggcrawl.ParseEntityID(el.SelectAttrValue("objectid", ""))
	item := &bggcrawl.CollectionItem{
		ID:      strings.TrimSpace(el.SelectAttrValue("collid", "")),
		GameID:  gameID,
		Comment: text(el, "comment"),
	}
	item.PlayCount, _ = strconv.Atoi(text(el, "numplays"))

	if rating := el.FindElement("stats/rating"); rating != nil {
		item.Rating, _ = strconv.ParseFloat(rating.SelectAttrValue("value", ""), 64)
	}

	if status := el.SelectElement("status"); status != nil {
		flag := func(attr string) bool { return status.SelectAttrValue(attr, "0") == "1" }
		item.Owned = flag("own")
		item.PrevOwned = flag("prevowned")
		item.ForTrade = flag("fortrade")
		item.WantInTrade = flag("want")
		item.WantToPlay = flag("wanttoplay")
		item.WantToBuy = flag("wanttobuy")
		item.Preordered = flag("preordered")
		if flag("wishlist") {
			item.Wishlist, _ = strconv.Atoi(status.SelectAttrValue("wishlistpriority", ""))
		}
		if t, err := time.Parse(lastModifiedLayout, status.SelectAttrValue("lastmodified", "")); err == nil {
			item.UpdatedAt = t
		}
	}
	return item
}

// value returns the trimmed value attribute of the named child.
func value(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.SelectAttrValue("value", ""))
}

func intValue(el *etree.Element, tag string) int {
	n, _ := strconv.Atoi(value(el, tag))
	return n
}

func floatValue(el *etree.Element, tag string) float64 {
	f, _ := strconv.ParseFloat(value(el, tag), 64)
	return f
}

// firstInt returns the first positive value attribute among the tags.
func firstInt(el *etree.Element, tags ...string) int {
	for _, tag := range tags {
		if n := intValue(el, tag); n > 0 {
			return n
		}
	}
	return 0
}

func text(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

func numVotes(el *etree.Element) int {
	n, _ := strconv.Atoi(el.SelectAttrValue("numvotes", ""))
	return n
}

// appendValueID appends "<value>:<id>", or just the value when the link has
// no ID.
func appendValueID(values []string, link *etree.Element) []string {
	v := strings.TrimSpace(link.SelectAttrValue("value", ""))
	if v == "" {
		return values
	}
	if id := link.SelectAttrValue("id", ""); id != "" {
		v += ":" + id
	}
	return append(values, v)
}

func appendID(ids []bggcrawl.EntityID, s string) []bggcrawl.EntityID {
	if id, ok := bggcrawl.ParseEntityID(s); ok {
		return append(ids, id)
	}
	return ids
}

func friendlyName(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 5 && strings.EqualFold(s[len(s)-5:], " rank") {
		return s[:len(s)-5]
	}
	return s
}
