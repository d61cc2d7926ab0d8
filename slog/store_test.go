package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/bggcrawl"
	"github.com/fwojciec/bggcrawl/mock"
	bggslog "github.com/fwojciec/bggcrawl/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingItemStore(t *testing.T) {
	t.Parallel()

	newStore := func(buf *bytes.Buffer, err error) (*bggslog.LoggingItemStore, *int) {
		calls := 0
		inner := &mock.ItemStore{
			SaveGameFn: func(ctx context.Context, game *bggcrawl.Game) error {
				calls++
				return err
			},
			SaveCollectionItemFn: func(ctx context.Context, item *bggcrawl.CollectionItem) error {
				calls++
				return err
			},
			SaveUserFn: func(ctx context.Context, user *bggcrawl.User) error {
				calls++
				return err
			},
		}
		logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		return bggslog.NewLoggingItemStore(inner, logger), &calls
	}

	t.Run("logs saved records at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		store, calls := newStore(&buf, nil)
		ctx := context.Background()

		require.NoError(t, store.SaveGame(ctx, &bggcrawl.Game{ID: 13, Name: "CATAN"}))
		require.NoError(t, store.SaveCollectionItem(ctx, &bggcrawl.CollectionItem{GameID: 13, UserName: "alice"}))
		require.NoError(t, store.SaveUser(ctx, &bggcrawl.User{Name: "alice"}))

		assert.Equal(t, 3, *calls)
		output := buf.String()
		assert.Contains(t, output, `level=DEBUG msg="save game" id=13 name=CATAN`)
		assert.Contains(t, output, `msg="save collection item" user=alice game=13`)
		assert.Contains(t, output, `msg="save user" user=alice`)
		assert.NotContains(t, output, "level=WARN")
	})

	t.Run("logs rejected records as warnings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		store, _ := newStore(&buf, bggcrawl.Errorf(bggcrawl.EINVALID, "Game ID required."))

		err := store.SaveGame(context.Background(), &bggcrawl.Game{Name: "No ID"})

		assert.Equal(t, bggcrawl.EINVALID, bggcrawl.ErrorCode(err))
		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "Game ID required.")
	})
}
