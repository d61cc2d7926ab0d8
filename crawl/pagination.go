package crawl

import (
	"log/slog"

	"github.com/fwojciec/bggcrawl"
)

// DefaultPageSize is the number of rating comments the API returns per page.
const DefaultPageSize = 100

// PageState is the reconciled position of a thing response within its batch.
type PageState struct {
	Page    int
	MaxPage int
}

// ReconcilePage determines the page of a response. A page carried by the
// request wins over the pages the response reports; among those, the first
// non-zero one wins. Without any hint the page is 1. The conflict result
// reports disagreeing or missing hints.
func ReconcilePage(fromContext int, signals []bggcrawl.PageSignal) (page int, conflict bool) {
	var fromResponse int
	for _, s := range signals {
		if s.Page <= 0 {
			continue
		}
		if fromResponse == 0 {
			fromResponse = s.Page
		} else if s.Page != fromResponse {
			conflict = true
		}
	}

	switch {
	case fromContext > 0:
		if fromResponse > 0 && fromResponse != fromContext {
			conflict = true
		}
		return fromContext, conflict
	case fromResponse > 0:
		return fromResponse, conflict
	default:
		return 1, true
	}
}

// ReconcileMaxPage estimates the last page of a batch. The response estimate
// is the largest total item count divided by the page size, rounded up. When
// both the request and the response provide an estimate the larger one
// wins; without either the result is page.
func ReconcileMaxPage(fromContext int, signals []bggcrawl.PageSignal, pageSize, page int) int {
	var fromResponse int
	if pageSize > 0 {
		var totalItems int
		for _, s := range signals {
			totalItems = max(totalItems, s.TotalItems)
		}
		if totalItems > 0 {
			fromResponse = (totalItems + pageSize - 1) / pageSize
		}
	}

	switch {
	case fromContext > 0 && fromResponse > 0:
		return max(fromContext, fromResponse)
	case fromContext > 0:
		return fromContext
	case fromResponse > 0:
		return fromResponse
	default:
		return page
	}
}

// Paginator decides where a thing response sits in its batch and whether
// another page should be requested.
type Paginator struct {
	PageSize int
	Logger   *slog.Logger
}

func (p *Paginator) pageSize() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}

func (p *Paginator) logger() *slog.Logger {
	return orDiscard(p.Logger)
}

// orDiscard returns l, or a logger that drops every record if l is nil.
func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

// Resolve reconciles the request's batch context with the response signals.
// Batch may be nil.
func (p *Paginator) Resolve(batch *bggcrawl.BatchContext, signals []bggcrawl.PageSignal) PageState {
	var fromPage, fromMaxPage int
	if batch != nil {
		fromPage, fromMaxPage = batch.Page, batch.MaxPage
	}

	page, conflict := ReconcilePage(fromPage, signals)
	if conflict {
		p.logger().Warn("ambiguous page number",
			"page", page,
			"request_page", fromPage,
			"signals", len(signals),
		)
	}

	maxPage := ReconcileMaxPage(fromMaxPage, signals, p.pageSize(), page)
	if fromMaxPage > 0 && maxPage != fromMaxPage {
		p.logger().Info("max page changed",
			"max_page", maxPage,
			"request_max_page", fromMaxPage,
		)
	}

	return PageState{Page: page, MaxPage: maxPage}
}

// Continue reports whether the next page of the batch should be requested.
func (p *Paginator) Continue(state PageState, comments int, enabled bool) bool {
	return enabled && state.Page < state.MaxPage && comments > 0
}
