package bggcrawl_test

import (
	"testing"

	"github.com/fwojciec/bggcrawl"
	"github.com/stretchr/testify/assert"
)

func TestResolveURL(t *testing.T) {
	t.Parallel()

	t.Run("bgg game path", func(t *testing.T) {
		t.Parallel()

		got := bggcrawl.ResolveURL("https://boardgamegeek.com/boardgame/13/catan")

		assert.Equal(t, []bggcrawl.ExternalID{{Namespace: bggcrawl.NamespaceBGG, Value: "13"}}, got)
	})

	t.Run("bgg falls back to id query parameter", func(t *testing.T) {
		t.Parallel()

		got := bggcrawl.ResolveURL("https://www.boardgamegeek.com/geekitem.php?id=042")

		assert.Equal(t, []bggcrawl.ExternalID{{Namespace: bggcrawl.NamespaceBGG, Value: "42"}}, got)
	})

	t.Run("bgg user is lowercased", func(t *testing.T) {
		t.Parallel()

		got := bggcrawl.ResolveURL("https://boardgamegeek.com/user/SomeUser")

		assert.Equal(t, []bggcrawl.ExternalID{{Namespace: bggcrawl.NamespaceBGGUser, Value: "someuser"}}, got)
	})

	t.Run("freebase", func(t *testing.T) {
		t.Parallel()

		got := bggcrawl.ResolveURL("http://rdf.freebase.com/ns/m.0d_h9")

		assert.Equal(t, []bggcrawl.ExternalID{{Namespace: bggcrawl.NamespaceFreebase, Value: "/m/0d_h9"}}, got)
	})

	t.Run("wikidata", func(t *testing.T) {
		t.Parallel()

		got := bggcrawl.ResolveURL("https://www.wikidata.org/wiki/Q17271")

		assert.Equal(t, []bggcrawl.ExternalID{{Namespace: bggcrawl.NamespaceWikidata, Value: "Q17271"}}, got)
	})

	t.Run("wikipedia title is unescaped", func(t *testing.T) {
		t.Parallel()

		got := bggcrawl.ResolveURL("https://en.wikipedia.org/wiki/Catan_%28board_game%29")

		assert.Equal(t, []bggcrawl.ExternalID{{Namespace: bggcrawl.NamespaceWikipedia, Value: "Catan_(board_game)"}}, got)
	})

	t.Run("dbpedia accepts language subdomains", func(t *testing.T) {
		t.Parallel()

		got := bggcrawl.ResolveURL("https://de.dbpedia.org/resource/Catan")

		assert.Equal(t, []bggcrawl.ExternalID{{Namespace: bggcrawl.NamespaceDBpedia, Value: "Catan"}}, got)
	})

	t.Run("dbpedia rejects unknown subdomains", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, bggcrawl.ResolveURL("https://live.dbpedia.org/resource/Catan"))
	})

	t.Run("luding", func(t *testing.T) {
		t.Parallel()

		got := bggcrawl.ResolveURL("http://www.luding.org/Skripte/GameData.py/DEgameid/1508")

		assert.Equal(t, []bggcrawl.ExternalID{{Namespace: bggcrawl.NamespaceLuding, Value: "1508"}}, got)
	})

	t.Run("spielen slug", func(t *testing.T) {
		t.Parallel()

		got := bggcrawl.ResolveURL("https://gesellschaftsspiele.spielen.de/alle-brettspiele/catan-die-siedler/")

		assert.Equal(t, []bggcrawl.ExternalID{{Namespace: bggcrawl.NamespaceSpielen, Value: "catan-die-siedler"}}, got)
	})

	t.Run("spielen numeric slug falls back to id query parameter", func(t *testing.T) {
		t.Parallel()

		got := bggcrawl.ResolveURL("https://gesellschaftsspiele.spielen.de/alle-brettspiele/12345/?id=catan")

		assert.Equal(t, []bggcrawl.ExternalID{{Namespace: bggcrawl.NamespaceSpielen, Value: "catan"}}, got)
	})

	t.Run("spielen numeric slug without fallback yields nothing", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, bggcrawl.ResolveURL("https://gesellschaftsspiele.spielen.de/alle-brettspiele/12345/"))
	})

	t.Run("unknown host", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, bggcrawl.ResolveURL("https://example.com/boardgame/13"))
	})

	t.Run("invalid input is absent", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, bggcrawl.ResolveURL(""))
		assert.Empty(t, bggcrawl.ResolveURL("not a url"))
		assert.Empty(t, bggcrawl.ResolveURL("https://boardgamegeek.com"))
		assert.Empty(t, bggcrawl.ResolveURL("http://%zz"))
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		const raw = "https://boardgamegeek.com/boardgame/822/carcassonne?id=99"

		assert.Equal(t, bggcrawl.ResolveURL(raw), bggcrawl.ResolveURL(raw))
		assert.Equal(t, "822", bggcrawl.ResolveURL(raw)[0].Value)
	})
}

func TestResolveURLs(t *testing.T) {
	t.Parallel()

	got := bggcrawl.ResolveURLs(
		"https://boardgamegeek.com/boardgame/13/catan",
		"https://en.wikipedia.org/wiki/Catan",
		"https://boardgamegeek.com/boardgame/13/catan-again",
		"https://boardgamegeek.com/geekitem.php?id=42",
		"garbage",
	)

	assert.Equal(t, bggcrawl.ExternalIDs{
		bggcrawl.NamespaceBGG:       {"13", "42"},
		bggcrawl.NamespaceWikipedia: {"Catan"},
	}, got)
	assert.Equal(t, "13", got.First(bggcrawl.NamespaceBGG))
	assert.Empty(t, got.First(bggcrawl.NamespaceLuding))
}

func TestExtractQueryParam(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Bob", bggcrawl.ExtractQueryParam("https://example.com/user?name=&name=Bob", "name"))
	assert.Empty(t, bggcrawl.ExtractQueryParam("https://example.com/user", "name"))
	assert.Empty(t, bggcrawl.ExtractQueryParam("http://%zz", "name"))
}
