package itemset

import (
	"testing"

	"github.com/pbanos/pfpgrowth/support"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(labels ...string) []Item {
	result := make([]Item, len(labels))
	for i, l := range labels {
		result[i] = Item(l)
	}
	return result
}

func exampleTransactions() [][]Item {
	return [][]Item{
		items("a", "b", "c"),
		items("a", "b"),
		items("a", "c"),
		items("a"),
		items("b", "c"),
	}
}

func TestRankTransactions(t *testing.T) {
	rt, err := RankTransactions(exampleTransactions(), support.AbsoluteCount(2))
	require.NoError(t, err)

	assert.Equal(t, 3, rt.Len())
	assert.Equal(t, 2, rt.MinCount())
	assert.Equal(t, 5, rt.Transactions())
	for rank, expected := range []struct {
		item  Item
		count int
	}{{"a", 4}, {"b", 3}, {"c", 3}} {
		assert.Equal(t, expected.item, rt.Item(Rank(rank)))
		assert.Equal(t, expected.count, rt.Count(Rank(rank)))
		r, ok := rt.Rank(expected.item)
		assert.True(t, ok)
		assert.Equal(t, Rank(rank), r)
	}
	assert.Equal(t, []Pattern{
		{Items: items("a"), Support: 4},
		{Items: items("b"), Support: 3},
		{Items: items("c"), Support: 3},
	}, rt.Singletons())
}

func TestRankTransactionsThresholdBoundary(t *testing.T) {
	transactions := [][]Item{
		items("a", "b"),
		items("a", "b"),
		items("a", "c"),
	}
	rt, err := RankTransactions(transactions, support.AbsoluteCount(2))
	require.NoError(t, err)
	_, ok := rt.Rank("b")
	assert.True(t, ok, "an item with support equal to the threshold is frequent")
	_, ok = rt.Rank("c")
	assert.False(t, ok, "an item with support below the threshold is not frequent")
}

func TestRankTransactionsFraction(t *testing.T) {
	rt, err := RankTransactions(exampleTransactions(), support.FractionOfTotal(0.7))
	require.NoError(t, err)
	// 0.7 * 5 = 3.5, so only items in at least 4 transactions survive
	assert.Equal(t, 4, rt.MinCount())
	assert.Equal(t, 1, rt.Len())
	assert.Equal(t, Item("a"), rt.Item(0))
}

func TestRankTransactionsTieBreakIsFirstSeen(t *testing.T) {
	transactions := [][]Item{
		items("y"),
		items("x", "z"),
		items("x", "y"),
		items("z", "w"),
	}
	rt, err := RankTransactions(transactions, support.AbsoluteCount(1))
	require.NoError(t, err)
	ranked := make([]Item, rt.Len())
	for i := range ranked {
		ranked[i] = rt.Item(Rank(i))
	}
	assert.Equal(t, items("y", "x", "z", "w"), ranked)
}

func TestRankTransactionsCountsRepeatedItemsOnce(t *testing.T) {
	transactions := [][]Item{
		items("a", "a", "a"),
		items("b"),
		items("b"),
	}
	rt, err := RankTransactions(transactions, support.AbsoluteCount(2))
	require.NoError(t, err)
	assert.Equal(t, 1, rt.Len())
	assert.Equal(t, Item("b"), rt.Item(0))
}

func TestRankTransactionsEmpty(t *testing.T) {
	rt, err := RankTransactions(nil, support.FractionOfTotal(0.5))
	require.NoError(t, err)
	assert.Equal(t, 0, rt.Len())
	assert.Empty(t, rt.Singletons())
}

func TestRankTransactionsInvalidSupport(t *testing.T) {
	_, err := RankTransactions(exampleTransactions(), support.MinSupport{})
	require.Error(t, err)
	assert.ErrorIs(t, err, support.ErrInvalidConfiguration)
}

func TestItemsOutOfRange(t *testing.T) {
	rt, err := RankTransactions(exampleTransactions(), support.AbsoluteCount(2))
	require.NoError(t, err)
	_, err = rt.Items([]Rank{0, 3})
	assert.Error(t, err)
	labels, err := rt.Items([]Rank{2, 0})
	require.NoError(t, err)
	assert.Equal(t, items("c", "a"), labels)
}
