package store

import (
	"context"
	"testing"

	"github.com/pbanos/pfpgrowth/itemset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	first := []itemset.RankPattern{{Ranks: []itemset.Rank{1, 0}, Support: 2}}
	require.NoError(t, s.Put(ctx, 0, first))
	require.NoError(t, s.Put(ctx, 1, []itemset.RankPattern{{Ranks: []itemset.Rank{2, 1}, Support: 2}}))
	require.NoError(t, s.Put(ctx, 0, []itemset.RankPattern{{Ranks: []itemset.Rank{2, 0}, Support: 3}}))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int][]itemset.RankPattern{
		0: {{Ranks: []itemset.Rank{2, 0}, Support: 3}},
		1: {{Ranks: []itemset.Rank{2, 1}, Support: 2}},
	}, all)
}

func TestMemoryStoreEmpty(t *testing.T) {
	all, err := NewMemoryStore().All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	assert.ErrorIs(t, s.Put(ctx, 0, nil), context.Canceled)
	_, err := s.All(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
