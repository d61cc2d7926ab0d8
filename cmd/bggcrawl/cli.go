package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/bggcrawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Games    bggcrawl.GameService
	Runs     bggcrawl.RunService
	Store    bggcrawl.ItemStore
	Fetcher  bggcrawl.Fetcher
	Sitemaps bggcrawl.SitemapService
	Parser   bggcrawl.ResponseParser

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

func (d *Dependencies) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now()
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB       string `env:"BGGCRAWL_DB" default:"${db}" help:"SQLite database path"`
	LogLevel string `env:"BGGCRAWL_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`

	Crawl   CrawlCmd   `cmd:"" help:"Harvest games, ratings, collections and users"`
	Resolve ResolveCmd `cmd:"" help:"Print the external identifiers found in URLs"`
	Game    GameCmd    `cmd:"" help:"Print a stored game as JSON"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Ratings     bool `help:"Scrape user ratings from game comments"`
	Collections bool `help:"Scrape the collections of rating users (requires --ratings)"`
	Users       bool `help:"Scrape the profiles of rating users (requires --ratings)"`

	MinVotes   int     `default:"0" help:"Minimum poll votes before a poll is summarized"`
	LocalFloor float64 `default:"0.5" help:"Fraction of --min-votes a single player count needs"`

	GameFile        []string `name:"game-file" help:"Seed file of game IDs (.jl or .csv, repeatable)"`
	UserFile        []string `name:"user-file" help:"Seed file of user names (.jl or .csv, repeatable)"`
	PremiumUsersDir string   `type:"path" help:"Directory of YAML files mapping premium users to their expiry date"`

	NoSitemap bool   `help:"Skip sitemap discovery and crawl only the seeds"`
	Robots    string `default:"https://boardgamegeek.com/robots.txt" help:"robots.txt where sitemap discovery starts"`
	APIURL    string `name:"api-url" default:"${api}" help:"Base URL of the XML API"`

	PageSize    int           `default:"100" help:"Comments per thing page"`
	BatchSize   int           `default:"20" help:"Game IDs per thing request"`
	RPS         float64       `name:"rps" default:"0.5" help:"Requests per second per host"`
	Concurrency int           `short:"c" default:"4" help:"Concurrent fetch limit"`
	Timeout     time.Duration `default:"30s" help:"Per-request timeout"`
	MaxRequests int           `default:"0" help:"Stop after this many requests (0 for no limit)"`

	Feeds string `env:"BGGCRAWL_FEEDS" type:"path" help:"Directory to export JSON-lines feeds to"`
}

// ResolveCmd is the "resolve" subcommand.
type ResolveCmd struct {
	URLs []string `arg:"" name:"url" help:"URLs to resolve"`
}

// GameCmd is the "game" subcommand.
type GameCmd struct {
	ID int64 `arg:"" help:"BoardGameGeek game ID"`
}
