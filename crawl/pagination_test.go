package crawl_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/fwojciec/bggcrawl"
	"github.com/fwojciec/bggcrawl/crawl"
	"github.com/stretchr/testify/assert"
)

func TestReconcilePage(t *testing.T) {
	t.Parallel()

	t.Run("request page wins", func(t *testing.T) {
		t.Parallel()

		page, conflict := crawl.ReconcilePage(3, []bggcrawl.PageSignal{{Page: 3}})

		assert.Equal(t, 3, page)
		assert.False(t, conflict)
	})

	t.Run("request page wins over disagreeing response", func(t *testing.T) {
		t.Parallel()

		page, conflict := crawl.ReconcilePage(3, []bggcrawl.PageSignal{{Page: 2}})

		assert.Equal(t, 3, page)
		assert.True(t, conflict)
	})

	t.Run("first response page wins", func(t *testing.T) {
		t.Parallel()

		page, conflict := crawl.ReconcilePage(0, []bggcrawl.PageSignal{{Page: 0}, {Page: 2}, {Page: 4}})

		assert.Equal(t, 2, page)
		assert.True(t, conflict)
	})

	t.Run("agreeing response pages", func(t *testing.T) {
		t.Parallel()

		page, conflict := crawl.ReconcilePage(0, []bggcrawl.PageSignal{{Page: 2}, {Page: 2}})

		assert.Equal(t, 2, page)
		assert.False(t, conflict)
	})

	t.Run("no hint defaults to first page", func(t *testing.T) {
		t.Parallel()

		page, conflict := crawl.ReconcilePage(0, nil)

		assert.Equal(t, 1, page)
		assert.True(t, conflict)
	})
}

func TestReconcileMaxPage(t *testing.T) {
	t.Parallel()

	signals := []bggcrawl.PageSignal{{TotalItems: 150}, {TotalItems: 420}}

	assert.Equal(t, 5, crawl.ReconcileMaxPage(0, signals, 100, 1), "ceil(420/100)")
	assert.Equal(t, 7, crawl.ReconcileMaxPage(7, signals, 100, 1), "larger request estimate")
	assert.Equal(t, 5, crawl.ReconcileMaxPage(3, signals, 100, 1), "larger response estimate")
	assert.Equal(t, 3, crawl.ReconcileMaxPage(3, nil, 100, 1), "request estimate only")
	assert.Equal(t, 2, crawl.ReconcileMaxPage(0, nil, 100, 2), "defaults to page")
	assert.Equal(t, 1, crawl.ReconcileMaxPage(0, []bggcrawl.PageSignal{{TotalItems: 100}}, 100, 1), "exact multiple")
}

func TestPaginator(t *testing.T) {
	t.Parallel()

	t.Run("resolves first page of a batch", func(t *testing.T) {
		t.Parallel()

		p := &crawl.Paginator{PageSize: 100}

		state := p.Resolve(&bggcrawl.BatchContext{Page: 1}, []bggcrawl.PageSignal{{Page: 1, TotalItems: 150}})

		assert.Equal(t, crawl.PageState{Page: 1, MaxPage: 2}, state)
		assert.True(t, p.Continue(state, 100, true))
	})

	t.Run("stops on last page", func(t *testing.T) {
		t.Parallel()

		p := &crawl.Paginator{PageSize: 100}

		state := p.Resolve(&bggcrawl.BatchContext{Page: 2, MaxPage: 2}, []bggcrawl.PageSignal{{Page: 2, TotalItems: 150}})

		assert.Equal(t, crawl.PageState{Page: 2, MaxPage: 2}, state)
		assert.False(t, p.Continue(state, 50, true))
	})

	t.Run("stops without comments", func(t *testing.T) {
		t.Parallel()

		p := &crawl.Paginator{}

		assert.False(t, p.Continue(crawl.PageState{Page: 1, MaxPage: 3}, 0, true))
	})

	t.Run("stops when ratings are disabled", func(t *testing.T) {
		t.Parallel()

		p := &crawl.Paginator{}

		assert.False(t, p.Continue(crawl.PageState{Page: 1, MaxPage: 3}, 10, false))
	})

	t.Run("uses default page size", func(t *testing.T) {
		t.Parallel()

		p := &crawl.Paginator{}

		state := p.Resolve(nil, []bggcrawl.PageSignal{{Page: 1, TotalItems: 250}})

		assert.Equal(t, crawl.PageState{Page: 1, MaxPage: 3}, state)
	})

	t.Run("logs ambiguous page", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		p := &crawl.Paginator{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

		state := p.Resolve(nil, nil)

		assert.Equal(t, crawl.PageState{Page: 1, MaxPage: 1}, state)
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "ambiguous page number")
	})

	t.Run("logs changed max page", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		p := &crawl.Paginator{PageSize: 100, Logger: slog.New(slog.NewTextHandler(&buf, nil))}

		state := p.Resolve(&bggcrawl.BatchContext{Page: 2, MaxPage: 2}, []bggcrawl.PageSignal{{Page: 2, TotalItems: 310}})

		assert.Equal(t, 4, state.MaxPage)
		assert.Contains(t, buf.String(), "max page changed")
		assert.Contains(t, buf.String(), "max_page=4")
	})
}
