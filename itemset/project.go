package itemset

import "sort"

// Transaction is a set of frequent items in rank space, sorted by ascending
// rank, that is, most frequent item first.
type Transaction []Rank

// Projection is the part of a transaction a partition needs to mine the
// ranks it owns.
type Projection struct {
	Partition   int
	Transaction Transaction
}

// Ranked takes the items of a transaction and returns it rewritten in rank
// space: infrequent items are dropped, duplicates removed and ranks sorted.
func (rt *RankTable) Ranked(items []Item) Transaction {
	t := make(Transaction, 0, len(items))
	for _, item := range items {
		if r, ok := rt.ranks[item]; ok {
			t = append(t, r)
		}
	}
	sort.Slice(t, func(i, j int) bool { return t[i] < t[j] })
	n := 0
	for i, r := range t {
		if i > 0 && r == t[n-1] {
			continue
		}
		t[n] = r
		n++
	}
	return t[:n]
}

// Project takes the items of a transaction and the number of partitions and
// returns the projections of the ranked transaction, as described in
// ProjectTransaction.
func (rt *RankTable) Project(items []Item, partitions int) []Projection {
	return ProjectTransaction(rt.Ranked(items), partitions)
}

/*
ProjectTransaction takes a ranked transaction and the number of partitions
and returns at most one projection per partition. A partition gets a
projection if and only if it owns some rank in the transaction, and the
projection is the prefix of the transaction ending at the highest rank the
partition owns.

Projections share the backing array of the given transaction and must be
treated as read-only.
*/
func ProjectTransaction(t Transaction, partitions int) []Projection {
	want := partitions
	if len(t) < want {
		want = len(t)
	}
	if want == 0 {
		return nil
	}
	projections := make([]Projection, 0, want)
	seen := make(map[int]struct{}, want)
	for i := len(t) - 1; i >= 0 && len(projections) < want; i-- {
		p := Owner(t[i], partitions)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		end := i + 1
		projections = append(projections, Projection{Partition: p, Transaction: t[:end:end]})
	}
	return projections
}
