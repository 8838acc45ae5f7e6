/*
Package miner enumerates the frequent itemsets of an FP-tree by growing
conditional pattern bases, without generating candidates.

A partition only mines the ranks it owns, so the patterns of every rank are
emitted exactly once across all partitions even though a rank may appear
as context in the trees of several of them.
*/
package miner

import (
	"context"
	"sort"

	"github.com/pbanos/pfpgrowth/itemset"
	"github.com/pbanos/pfpgrowth/tree"
)

// EmitFunc receives every pattern found. Returning an error stops mining.
type EmitFunc func(itemset.RankPattern) error

type frame struct {
	rank itemset.Rank
	path []itemset.Rank
	tree *tree.Tree
}

/*
Mine takes a context, the tree of a partition, the partition number, the
total number of partitions and the minimum count, and emits every frequent
pattern of two or more items whose least frequent item is owned by the
partition. Ranks are mined in MiningOrder.

It returns the error of the emit function or the context, if any.
*/
func Mine(ctx context.Context, t *tree.Tree, partition, partitions, minCount int, emit EmitFunc) error {
	for _, r := range MiningOrder(t) {
		if itemset.Owner(r, partitions) != partition {
			continue
		}
		err := MinePatterns(ctx, r, []itemset.Rank{r}, t, minCount, emit)
		if err != nil {
			return err
		}
	}
	return nil
}

// MiningOrder returns the ranks of the tree by ascending aggregated count,
// breaking ties by descending rank.
func MiningOrder(t *tree.Tree) []itemset.Rank {
	ranks := t.Ranks()
	sort.SliceStable(ranks, func(i, j int) bool {
		ci, cj := t.ItemCount(ranks[i]), t.ItemCount(ranks[j])
		if ci != cj {
			return ci < cj
		}
		return ranks[i] > ranks[j]
	})
	return ranks
}

/*
MinePatterns takes a rank, the pattern path ending with it and the tree the
rank belongs to, and emits every frequent extension of the path: for each
rank reaching minCount in the conditional tree of the given rank, the path
extended with it, followed by the frequent extensions of that new path.

Work is kept on an explicit stack of (rank, path, tree) frames so deep
conditional chains do not grow the goroutine stack. The context is checked
between frames.
*/
func MinePatterns(ctx context.Context, rank itemset.Rank, path []itemset.Rank, t *tree.Tree, minCount int, emit EmitFunc) error {
	stack := []frame{{rank: rank, path: path, tree: t}}
	var next []frame
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ct := f.tree.Conditional(f.rank)
		next = next[:0]
		for _, r := range frequentRanks(ct, minCount) {
			p := make([]itemset.Rank, len(f.path)+1)
			copy(p, f.path)
			p[len(f.path)] = r
			err := emit(itemset.RankPattern{Ranks: p, Support: ct.ItemCount(r)})
			if err != nil {
				return err
			}
			next = append(next, frame{rank: r, path: p, tree: ct})
		}
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}
	return nil
}

func frequentRanks(t *tree.Tree, minCount int) []itemset.Rank {
	ranks := t.Ranks()
	n := 0
	for _, r := range ranks {
		if t.ItemCount(r) >= minCount {
			ranks[n] = r
			n++
		}
	}
	return ranks[:n]
}

// Collect mines the tree like Mine and returns all emitted patterns in
// emission order.
func Collect(ctx context.Context, t *tree.Tree, partition, partitions, minCount int) ([]itemset.RankPattern, error) {
	var patterns []itemset.RankPattern
	err := Mine(ctx, t, partition, partitions, minCount, func(p itemset.RankPattern) error {
		patterns = append(patterns, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patterns, nil
}
