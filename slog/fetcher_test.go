package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/bggcrawl"
	"github.com/fwojciec/bggcrawl/mock"
	bggslog "github.com/fwojciec/bggcrawl/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const thingURL = "https://boardgamegeek.com/xmlapi2/thing?id=13&stats=1"

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("logs fetch with bytes and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) ([]byte, error) {
				return []byte("<items></items>"), nil
			},
		}

		fetcher := bggslog.NewLoggingFetcher(inner, logger)
		body, err := fetcher.Fetch(context.Background(), thingURL)

		require.NoError(t, err)
		assert.Equal(t, "<items></items>", string(body))
		output := buf.String()
		assert.Contains(t, output, "level=INFO")
		assert.Contains(t, output, "msg=fetch")
		assert.Contains(t, output, "url=\""+thingURL+"\"")
		assert.Contains(t, output, "bytes=15")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) ([]byte, error) {
				return nil, errors.New("network error")
			},
		}

		fetcher := bggslog.NewLoggingFetcher(inner, logger)
		_, err := fetcher.Fetch(context.Background(), thingURL)

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "msg=fetch")
		assert.Contains(t, output, "err=\"network error\"")
	})

	t.Run("logs queued responses at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) ([]byte, error) {
				return nil, bggcrawl.Errorf(bggcrawl.EUNAVAILABLE, "request queued")
			},
		}

		fetcher := bggslog.NewLoggingFetcher(inner, logger)
		_, err := fetcher.Fetch(context.Background(), thingURL)

		require.Error(t, err)
		assert.Contains(t, buf.String(), "level=DEBUG")
	})
}

func TestLoggingFetcher_Close(t *testing.T) {
	t.Parallel()

	t.Run("delegates to inner fetcher", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		closeCalled := false
		inner := &mock.Fetcher{
			CloseFn: func() error {
				closeCalled = true
				return nil
			},
		}

		fetcher := bggslog.NewLoggingFetcher(inner, logger)
		err := fetcher.Close()

		require.NoError(t, err)
		assert.True(t, closeCalled)
	})
}
