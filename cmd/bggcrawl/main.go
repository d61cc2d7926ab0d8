package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/bggcrawl"
	"github.com/fwojciec/bggcrawl/etree"
	bgghttp "github.com/fwojciec/bggcrawl/http"
	"github.com/fwojciec/bggcrawl/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Default database path. The --db flag and BGGCRAWL_DB override it.
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Network services for end-to-end testing. Nil uses the HTTP
	// implementations.
	Fetcher  bggcrawl.Fetcher
	Sitemaps bggcrawl.SitemapService

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Now:    m.Now,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("bggcrawl"),
		kong.Description("Incrementally harvest BoardGameGeek games, ratings, collections and users."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Vars{
			"db":  m.DBPath,
			"api": bggcrawl.DefaultAPIURL,
		},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'bggcrawl --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd = strings.Fields(kongCtx.Command())[0]

	deps.Logger = newLogger(stderr, cli.LogLevel)

	if cmd == "crawl" || cmd == "game" {
		m.DB = sqlite.NewDB(cli.DB)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set BGGCRAWL_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
		}
		defer m.Close()

		deps.Games = sqlite.NewGameService(m.DB)
		deps.Runs = sqlite.NewRunService(m.DB)
		deps.Store = sqlite.NewStore(m.DB)
	}

	if cmd == "crawl" {
		deps.Fetcher = m.Fetcher
		if deps.Fetcher == nil {
			deps.Fetcher = bgghttp.NewFetcher(bgghttp.WithTimeout(cli.Crawl.Timeout))
		}
		defer deps.Fetcher.Close()

		deps.Sitemaps = m.Sitemaps
		if deps.Sitemaps == nil {
			deps.Sitemaps = bgghttp.NewSitemapService(&http.Client{Timeout: cli.Crawl.Timeout})
		}
		deps.Parser = etree.NewParser()
	}

	return kongCtx.Run(deps)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bggcrawl.db"
	}
	dir := filepath.Join(home, ".bggcrawl")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "bggcrawl.db")
}
