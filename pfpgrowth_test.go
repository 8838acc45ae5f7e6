package pfpgrowth

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/pbanos/pfpgrowth/itemset"
	"github.com/pbanos/pfpgrowth/queue"
	"github.com/pbanos/pfpgrowth/store"
	"github.com/pbanos/pfpgrowth/support"
	"github.com/pbanos/pfpgrowth/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func exampleDataset() transaction.Dataset {
	return transaction.FromStrings(
		[]string{"a", "b", "c"},
		[]string{"a", "b"},
		[]string{"a", "c"},
		[]string{"a"},
		[]string{"b", "c"},
	)
}

func options(t *testing.T, ms support.MinSupport, partitions int) Options {
	return Options{
		MinSupport:      ms,
		Partitions:      partitions,
		Workers:         2,
		Logger:          zaptest.NewLogger(t),
		EmptyQueueSleep: time.Millisecond,
	}
}

func TestMineExample(t *testing.T) {
	expected := map[string]int{"a": 4, "b": 3, "c": 3, "b-a": 2, "c-a": 2, "c-b": 2}
	for _, partitions := range []int{1, 2, 3, 4} {
		t.Run(fmt.Sprintf("%d partitions", partitions), func(t *testing.T) {
			r, err := Mine(context.Background(), exampleDataset(), options(t, support.AbsoluteCount(2), partitions))
			require.NoError(t, err)
			assert.Equal(t, expected, r.Map("-"))
			assert.Equal(t, 5, r.Transactions())
			assert.Equal(t, 2, r.MinCount())
			assert.Equal(t, partitions, r.Partitions())
			assert.NotEmpty(t, r.RunID())
			s, ok := r.Support("c", "a")
			assert.True(t, ok)
			assert.Equal(t, 2, s)
			_, ok = r.Support("a", "b", "c")
			assert.False(t, ok)
		})
	}
}

func TestMineDefaultOptions(t *testing.T) {
	opts := DefaultOptions(support.AbsoluteCount(2))
	assert.Equal(t, runtime.GOMAXPROCS(0), opts.Partitions)
	assert.Equal(t, runtime.GOMAXPROCS(0), opts.Workers)
	require.NoError(t, opts.Validate())
	r, err := Mine(context.Background(), exampleDataset(), opts)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 4, "b": 3, "c": 3, "b-a": 2, "c-a": 2, "c-b": 2}, r.Map("-"))
}

func TestMineFractionalSupport(t *testing.T) {
	r, err := Mine(context.Background(), exampleDataset(), options(t, support.FractionOfTotal(0.3), 2))
	require.NoError(t, err)
	assert.Equal(t, 2, r.MinCount())
	assert.Equal(t, 6, r.Len())
}

func TestMineThresholdBoundary(t *testing.T) {
	ds := transaction.FromStrings(
		[]string{"x", "y"},
		[]string{"x", "y"},
		[]string{"x", "y"},
		[]string{"x", "z"},
		[]string{"x", "z"},
	)
	r, err := Mine(context.Background(), ds, options(t, support.AbsoluteCount(3), 2))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"x": 5, "y": 3, "y-x": 3}, r.Map("-"))

	r, err = Mine(context.Background(), ds, options(t, support.AbsoluteCount(4), 2))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"x": 5}, r.Map("-"))
}

func TestMineEmptyInput(t *testing.T) {
	r, err := Mine(context.Background(), transaction.New(nil), options(t, support.FractionOfTotal(0.5), 3))
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Patterns())
}

func TestMineInvalidConfiguration(t *testing.T) {
	for name, opts := range map[string]Options{
		"no support":           {Partitions: 2, Workers: 1},
		"negative support":     {MinSupport: support.AbsoluteCount(-1), Partitions: 2, Workers: 1},
		"zero partitions":      {MinSupport: support.AbsoluteCount(2), Workers: 1},
		"negative workers":     {MinSupport: support.AbsoluteCount(2), Partitions: 1, Workers: -1},
		"no workers nor queue": {MinSupport: support.AbsoluteCount(2), Partitions: 1},
		"negative sleep":       {MinSupport: support.AbsoluteCount(2), Partitions: 1, Workers: 1, EmptyQueueSleep: -time.Second},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Mine(context.Background(), exampleDataset(), opts)
			assert.ErrorIs(t, err, support.ErrInvalidConfiguration)
		})
	}
}

func TestMineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Mine(ctx, exampleDataset(), options(t, support.AbsoluteCount(2), 2))
	assert.Error(t, err)
}

type failingStore struct {
	store.Store
}

func (failingStore) Put(context.Context, int, []itemset.RankPattern) error {
	return errors.New("disk full")
}

func TestMineFailsFast(t *testing.T) {
	opts := options(t, support.AbsoluteCount(1), 3)
	opts.Store = failingStore{store.NewMemoryStore()}
	_, err := Mine(context.Background(), randomDataset(rand.New(rand.NewSource(3)), 50), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestMineMatchesBruteForce(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		ds := randomDataset(rnd, 40+rnd.Intn(40))
		transactions, err := transaction.ReadAll(context.Background(), ds)
		require.NoError(t, err)
		for _, minCount := range []int{1, 3, 8} {
			expected := bruteForce(transactions, minCount)
			var digest uint64
			for _, partitions := range []int{1, 2, 3, 7} {
				name := fmt.Sprintf("dataset %d minCount %d partitions %d", i, minCount, partitions)
				r, err := Mine(context.Background(), ds, options(t, support.AbsoluteCount(minCount), partitions))
				require.NoError(t, err, name)
				got := canonical(r)
				assert.Equal(t, expected, got, name)
				assertAntiMonotone(t, got, name)
				if digest == 0 {
					digest = r.Digest()
				}
				assert.Equal(t, digest, r.Digest(), name)
			}
		}
	}
}

func TestMineIsIdempotent(t *testing.T) {
	ds := randomDataset(rand.New(rand.NewSource(7)), 60)
	opts := options(t, support.AbsoluteCount(2), 3)
	first, err := Mine(context.Background(), ds, opts)
	require.NoError(t, err)
	second, err := Mine(context.Background(), ds, opts)
	require.NoError(t, err)
	assert.Equal(t, first.Digest(), second.Digest())
	assert.Equal(t, first.Sorted(), second.Sorted())
	assert.NotEqual(t, first.RunID(), second.RunID())
}

func TestSeedAndWorkersOfAnotherProcess(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	ds := exampleDataset()
	rt, err := RankItems(ctx, ds, support.AbsoluteCount(2))
	require.NoError(t, err)

	q := queue.New()
	defer q.Stop(ctx)
	s := store.NewMemoryStore()
	tasks, err := Seed(ctx, ds, rt, 3, q)
	require.NoError(t, err)
	assert.Equal(t, 3, tasks)

	errs := make(chan error, 1)
	go func() {
		errs <- Work(ctx, q, s, logger, time.Millisecond)
	}()
	require.NoError(t, RunWorkers(ctx, q, s, 0, logger, time.Millisecond))
	require.NoError(t, <-errs)

	patterns, err := s.All(ctx)
	require.NoError(t, err)
	r, err := Assemble(rt, patterns)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 4, "b": 3, "c": 3, "b-a": 2, "c-a": 2, "c-b": 2}, r.Map("-"))
}

func TestSeedSkipsEmptyPartitions(t *testing.T) {
	ctx := context.Background()
	ds := transaction.FromStrings([]string{"a"}, []string{"a"})
	rt, err := RankItems(ctx, ds, support.AbsoluteCount(1))
	require.NoError(t, err)
	q := queue.New()
	tasks, err := Seed(ctx, ds, rt, 4, q)
	require.NoError(t, err)
	assert.Equal(t, 1, tasks)
	pending, _, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestAssembleDuplicatePattern(t *testing.T) {
	rt, err := itemset.RankTransactions([][]itemset.Item{{"a", "b"}, {"a", "b"}}, support.AbsoluteCount(1))
	require.NoError(t, err)
	_, err = Assemble(rt, map[int][]itemset.RankPattern{
		0: {{Ranks: []itemset.Rank{1, 0}, Support: 2}},
		1: {{Ranks: []itemset.Rank{0, 1}, Support: 2}},
	})
	assert.ErrorIs(t, err, ErrDuplicatePattern)

	_, err = Assemble(rt, map[int][]itemset.RankPattern{0: {{Ranks: []itemset.Rank{5, 0}, Support: 2}}})
	assert.Error(t, err)
}

func TestResultSorted(t *testing.T) {
	r, err := Mine(context.Background(), exampleDataset(), options(t, support.AbsoluteCount(2), 2))
	require.NoError(t, err)
	var got []string
	for _, p := range r.Sorted() {
		got = append(got, p.String())
	}
	assert.Equal(t, []string{"a:4", "b:3", "c:3", "b-a:2", "c-a:2", "c-b:2"}, got)
}

func randomDataset(rnd *rand.Rand, n int) transaction.Dataset {
	labels := []string{"milk", "bread", "eggs", "beer", "chips", "salsa", "apples", "rice", "tea"}
	transactions := make([][]string, n)
	for i := range transactions {
		size := rnd.Intn(7)
		t := make([]string, size)
		for j := range t {
			// skew towards the first labels
			t[j] = labels[rnd.Intn(1+rnd.Intn(len(labels)))]
		}
		transactions[i] = t
	}
	return transaction.FromStrings(transactions...)
}

func canonicalKey(items []string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

func canonical(r *Result) map[string]int {
	m := make(map[string]int, r.Len())
	for _, p := range r.Patterns() {
		m[p.CanonicalKey()] = p.Support
	}
	return m
}

// bruteForce counts every itemset contained in any transaction.
func bruteForce(transactions [][]itemset.Item, minCount int) map[string]int {
	counts := make(map[string]int)
	for _, t := range transactions {
		seen := make(map[itemset.Item]bool)
		var items []string
		for _, item := range t {
			if !seen[item] {
				seen[item] = true
				items = append(items, string(item))
			}
		}
		for mask := 1; mask < 1<<len(items); mask++ {
			var subset []string
			for i, item := range items {
				if mask&(1<<i) != 0 {
					subset = append(subset, item)
				}
			}
			counts[canonicalKey(subset)]++
		}
	}
	for k, c := range counts {
		if c < minCount {
			delete(counts, k)
		}
	}
	return counts
}

func assertAntiMonotone(t *testing.T, patterns map[string]int, name string) {
	t.Helper()
	for key, s := range patterns {
		items := strings.Split(key, "\x00")
		if len(items) < 2 {
			continue
		}
		for i := range items {
			subset := append(append([]string(nil), items[:i]...), items[i+1:]...)
			sub, ok := patterns[canonicalKey(subset)]
			if assert.True(t, ok, "%s: subset of %q missing", name, key) {
				assert.GreaterOrEqual(t, sub, s, "%s: subset of %q", name, key)
			}
		}
	}
}
