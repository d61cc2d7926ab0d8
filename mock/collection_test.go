package mock_test

import (
	"context"
	"testing"

	"github.com/fwojciec/bggcrawl"
	"github.com/fwojciec/bggcrawl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemStore_ImplementsInterface(t *testing.T) {
	t.Parallel()

	var _ bggcrawl.ItemStore = &mock.ItemStore{}
}

func TestItemStore_SaveCollectionItem(t *testing.T) {
	t.Parallel()

	t.Run("delegates to SaveCollectionItemFn", func(t *testing.T) {
		t.Parallel()

		var calledWith *bggcrawl.CollectionItem
		s := &mock.ItemStore{
			SaveCollectionItemFn: func(_ context.Context, item *bggcrawl.CollectionItem) error {
				calledWith = item
				return nil
			},
		}

		item := &bggcrawl.CollectionItem{
			ID:       "alice:13",
			GameID:   13,
			UserName: "alice",
			Rating:   8,
		}

		err := s.SaveCollectionItem(context.Background(), item)

		require.NoError(t, err)
		assert.Equal(t, item, calledWith)
	})
}
