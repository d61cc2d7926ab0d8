package bggcrawl

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DefaultLocalFloor is the share of the poll-wide vote threshold a single
// player count must reach before it may be classified.
const DefaultLocalFloor = 0.5

// Poll is a crowd-sourced set of weighted ballots attached to one game.
type Poll struct {
	Name       string
	TotalVotes int

	// PlayerCounts holds three-way ballots, one per player count.
	PlayerCounts []PlayerCountVotes

	// Ballots holds single-choice ballots in document order.
	Ballots []Ballot
}

// PlayerCountVotes is the tally of a single player count category.
type PlayerCountVotes struct {
	Players        int
	Best           int
	Recommended    int
	NotRecommended int
}

// Total returns the number of votes cast for the category.
func (v PlayerCountVotes) Total() int {
	return v.Best + v.Recommended + v.NotRecommended
}

// Ballot is one answer of a single-choice poll with the votes it received.
// Label is the raw answer text; Value is its numeric reading, zero if none.
type Ballot struct {
	Label string
	Value float64
	Votes int
}

// PlayerCountSummary is the aggregate of a player count poll.
type PlayerCountSummary struct {
	RecommendedMin int
	RecommendedMax int
	BestMin        int
	BestMax        int
}

// PollAggregator reduces polls to summaries once enough votes were cast.
// The zero value aggregates every poll.
type PollAggregator struct {
	// MinVotes is the poll-wide vote threshold.
	MinVotes int

	// LocalFloor is the fraction of MinVotes a single category needs.
	// Zero means DefaultLocalFloor.
	LocalFloor float64
}

func (a PollAggregator) localFloor() float64 {
	if a.LocalFloor <= 0 {
		return DefaultLocalFloor
	}
	return a.LocalFloor
}

func (a PollAggregator) sufficient(poll *Poll) bool {
	return poll != nil && poll.TotalVotes >= a.MinVotes
}

// PlayerCount summarizes a player count poll. Without enough evidence, every
// field falls back to the declared player range.
func (a PollAggregator) PlayerCount(poll *Poll, declaredMin, declaredMax int) PlayerCountSummary {
	summary := PlayerCountSummary{
		RecommendedMin: declaredMin,
		RecommendedMax: declaredMax,
		BestMin:        declaredMin,
		BestMax:        declaredMax,
	}
	if !a.sufficient(poll) {
		return summary
	}

	votes := make([]PlayerCountVotes, len(poll.PlayerCounts))
	copy(votes, poll.PlayerCounts)
	sort.SliceStable(votes, func(i, j int) bool { return votes[i].Players < votes[j].Players })

	var recommended, best []int
	for _, v := range votes {
		if v.Players <= 0 {
			continue
		}
		if a.passes(v, false) {
			recommended = append(recommended, v.Players)
		}
		if a.passes(v, true) {
			best = append(best, v.Players)
		}
	}

	if len(recommended) > 0 {
		summary.RecommendedMin = recommended[0]
		summary.RecommendedMax = recommended[len(recommended)-1]
	}
	if len(best) > 0 {
		summary.BestMin = best[0]
		summary.BestMax = best[len(best)-1]
	}
	return summary
}

// passes classifies one category. Ties exclude.
func (a PollAggregator) passes(v PlayerCountVotes, best bool) bool {
	if float64(v.Total()) < float64(a.MinVotes)*a.localFloor() {
		return false
	}
	yes, no := v.Best, v.NotRecommended
	if best {
		no += v.Recommended
	} else {
		yes += v.Recommended
	}
	return yes > no
}

// MedianGrouped returns the grouped median (interval 1) of the ballot values
// weighted by votes, or def if the poll lacks evidence or ballots.
func (a PollAggregator) MedianGrouped(poll *Poll, def float64) float64 {
	if !a.sufficient(poll) {
		return def
	}
	return medianGrouped(poll.Ballots, def)
}

// LanguageDependency ranks the ballots by position (1 for the first answer)
// and returns their grouped median, or 0 without enough evidence.
func (a PollAggregator) LanguageDependency(poll *Poll) float64 {
	if !a.sufficient(poll) {
		return 0
	}
	ranked := make([]Ballot, len(poll.Ballots))
	for i, b := range poll.Ballots {
		ranked[i] = Ballot{Label: b.Label, Value: float64(i + 1), Votes: b.Votes}
	}
	return medianGrouped(ranked, 0)
}

// SuggestedAge returns the grouped median of a player age poll, or 0
// without enough evidence.
func (a PollAggregator) SuggestedAge(poll *Poll) float64 {
	return a.MedianGrouped(poll, 0)
}

func medianGrouped(ballots []Ballot, def float64) float64 {
	type group struct {
		value float64
		votes int
	}
	byValue := make(map[float64]int)
	var n int
	for _, b := range ballots {
		if b.Votes <= 0 {
			continue
		}
		byValue[b.Value] += b.Votes
		n += b.Votes
	}
	if n == 0 {
		return def
	}

	groups := make([]group, 0, len(byValue))
	for v, c := range byValue {
		groups = append(groups, group{value: v, votes: c})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].value < groups[j].value })

	// x is the element at index n/2 of the expanded, sorted data; cf counts
	// the elements strictly below it.
	mid := n / 2
	var cf int
	for _, g := range groups {
		if mid < cf+g.votes {
			lower := g.value - 0.5
			return lower + (float64(n)/2-float64(cf))/float64(g.votes)
		}
		cf += g.votes
	}
	return def
}

var leadingDigits = regexp.MustCompile(`^\D*(\d+)`)

// ParseLenientInt parses an integer, falling back to the first run of
// digits in s ("21 and up" → 21).
func ParseLenientInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	m := leadingDigits.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParsePlayerCount parses a player count label. "N+" stands for N+1.
// Labels that do not name a positive count report false.
func ParsePlayerCount(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if n, err := strconv.Atoi(label); err == nil {
		return n, n > 0
	}
	if rest, ok := strings.CutSuffix(label, "+"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil || n == 0 {
			n = -1
		}
		n++
		return n, n > 0
	}
	return 0, false
}
