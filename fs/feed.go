// Package fs provides file-based feeds and seed inputs for the crawler.
package fs

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/bggcrawl"
)

// Feed names, one JSON lines file per record type.
const (
	FeedGames       = "GameItem"
	FeedCollections = "CollectionItem"
	FeedUsers       = "UserItem"
)

// feedExt is the extension of feed files.
const feedExt = ".jl"

// Ensure FeedWriter implements bggcrawl.ItemStore at compile time.
var _ bggcrawl.ItemStore = (*FeedWriter)(nil)

// FeedWriter writes records as JSON lines with atomic update semantics.
// Records are written to a temporary directory, then moved atomically on
// Commit. Empty fields are omitted.
type FeedWriter struct {
	baseDir string
	name    string

	mu    sync.Mutex
	feeds map[string]*feed
}

type feed struct {
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// NewFeedWriter creates a new FeedWriter.
// baseDir is the parent directory, name is the output directory name.
// Files are written to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewFeedWriter(baseDir, name string) *FeedWriter {
	return &FeedWriter{
		baseDir: baseDir,
		name:    name,
		feeds:   make(map[string]*feed),
	}
}

func (w *FeedWriter) tempDir() string {
	return filepath.Join(w.baseDir, w.name+".tmp")
}

// Dir returns the directory the feeds are moved to on Commit.
func (w *FeedWriter) Dir() string {
	return filepath.Join(w.baseDir, w.name)
}

// SaveGame appends the game to the game feed.
func (w *FeedWriter) SaveGame(ctx context.Context, game *bggcrawl.Game) error {
	if err := game.Validate(); err != nil {
		return err
	}
	return w.write(FeedGames, game)
}

// SaveCollectionItem appends the item to the collection feed.
func (w *FeedWriter) SaveCollectionItem(ctx context.Context, item *bggcrawl.CollectionItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return w.write(FeedCollections, item)
}

// SaveUser appends the user to the user feed.
func (w *FeedWriter) SaveUser(ctx context.Context, user *bggcrawl.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	return w.write(FeedUsers, user)
}

func (w *FeedWriter) write(name string, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.feeds[name]
	if !ok {
		if err := os.MkdirAll(w.tempDir(), 0755); err != nil {
			return err
		}
		file, err := os.Create(filepath.Join(w.tempDir(), name+feedExt))
		if err != nil {
			return err
		}
		buf := bufio.NewWriter(file)
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		f = &feed{file: file, buf: buf, enc: enc}
		w.feeds[name] = f
	}

	return f.enc.Encode(v)
}

// close flushes and closes every open feed file.
func (w *FeedWriter) close() error {
	var firstErr error
	for name, f := range w.feeds {
		if err := f.buf.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := f.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(w.feeds, name)
	}
	return firstErr
}

// Commit flushes the feeds and moves them into place. Without any record
// written, Commit does nothing.
func (w *FeedWriter) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.close(); err != nil {
		return err
	}

	if _, err := os.Stat(w.tempDir()); os.IsNotExist(err) {
		return nil
	}

	// Remove existing final directory if present
	if err := os.RemoveAll(w.Dir()); err != nil {
		return err
	}

	return os.Rename(w.tempDir(), w.Dir())
}

// Abort discards everything written so far.
func (w *FeedWriter) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	closeErr := w.close()
	if err := os.RemoveAll(w.tempDir()); err != nil {
		return err
	}
	return closeErr
}
