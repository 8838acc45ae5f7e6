package miner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pbanos/pfpgrowth/itemset"
	"github.com/pbanos/pfpgrowth/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// example transactions [[a,b,c],[a,b],[a,c],[a],[b,c]] with a=0, b=1, c=2
func exampleTransactions() []itemset.Transaction {
	return []itemset.Transaction{
		{0, 1, 2},
		{0, 1},
		{0, 2},
		{0},
		{1, 2},
	}
}

func TestMiningOrder(t *testing.T) {
	tr := tree.Build(exampleTransactions())
	assert.Equal(t, []itemset.Rank{2, 1, 0}, MiningOrder(tr))
}

func TestCollectSinglePartition(t *testing.T) {
	tr := tree.Build(exampleTransactions())
	patterns, err := Collect(context.Background(), tr, 0, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []itemset.RankPattern{
		{Ranks: []itemset.Rank{2, 0}, Support: 2},
		{Ranks: []itemset.Rank{2, 1}, Support: 2},
		{Ranks: []itemset.Rank{1, 0}, Support: 2},
	}, patterns)
}

func TestCollectRecursesIntoConditionalTrees(t *testing.T) {
	tr := tree.Build(exampleTransactions())
	patterns, err := Collect(context.Background(), tr, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []itemset.RankPattern{
		{Ranks: []itemset.Rank{2, 0}, Support: 2},
		{Ranks: []itemset.Rank{2, 1}, Support: 2},
		{Ranks: []itemset.Rank{2, 1, 0}, Support: 1},
		{Ranks: []itemset.Rank{1, 0}, Support: 2},
	}, patterns)
}

func TestCollectAboveEverySupport(t *testing.T) {
	tr := tree.Build(exampleTransactions())
	patterns, err := Collect(context.Background(), tr, 0, 1, 3)
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestPartitionsOnlyMineOwnedRanks(t *testing.T) {
	single, err := Collect(context.Background(), tree.Build(exampleTransactions()), 0, 1, 1)
	require.NoError(t, err)
	expected := patternSet(single)

	for partitions := 1; partitions <= 4; partitions++ {
		t.Run(fmt.Sprintf("%d partitions", partitions), func(t *testing.T) {
			groups := make([][]itemset.Transaction, partitions)
			for _, tr := range exampleTransactions() {
				for _, p := range itemset.ProjectTransaction(tr, partitions) {
					groups[p.Partition] = append(groups[p.Partition], p.Transaction)
				}
			}
			got := make(map[string]int)
			for p, transactions := range groups {
				patterns, err := Collect(context.Background(), tree.Build(transactions), p, partitions, 1)
				require.NoError(t, err)
				for _, rp := range patterns {
					assert.Equal(t, p, itemset.Owner(rp.Ranks[0], partitions), "pattern %v mined outside its owner", rp.Ranks)
					key := fmt.Sprint(rp.Ranks)
					_, dup := got[key]
					require.False(t, dup, "pattern %v emitted twice", rp.Ranks)
					got[key] = rp.Support
				}
			}
			assert.Equal(t, expected, got)
		})
	}
}

func TestMineStopsOnEmitError(t *testing.T) {
	tr := tree.Build(exampleTransactions())
	boom := errors.New("boom")
	calls := 0
	err := Mine(context.Background(), tr, 0, 1, 1, func(itemset.RankPattern) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestMineHonoursCancellation(t *testing.T) {
	tr := tree.Build(exampleTransactions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Mine(ctx, tr, 0, 1, 1, func(itemset.RankPattern) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMinePatternsDeepChain(t *testing.T) {
	// a single long transaction yields every subset ending in its last rank
	var long itemset.Transaction
	for r := 0; r < 12; r++ {
		long = append(long, itemset.Rank(r))
	}
	tr := tree.Build([]itemset.Transaction{long, long})
	count := 0
	err := MinePatterns(context.Background(), 11, []itemset.Rank{11}, tr, 2, func(p itemset.RankPattern) error {
		assert.Equal(t, 2, p.Support)
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1<<11-1, count)
}

func patternSet(patterns []itemset.RankPattern) map[string]int {
	result := make(map[string]int)
	for _, p := range patterns {
		result[fmt.Sprint(p.Ranks)] = p.Support
	}
	return result
}
