package pfpgrowth

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pbanos/pfpgrowth/itemset"
)

// ErrDuplicatePattern is returned by Assemble when two partitions report
// the same itemset, which means the partitions did not mine disjoint ranks.
var ErrDuplicatePattern = errors.New("duplicate pattern")

/*
Result holds the frequent itemsets of a mining run with their supports,
along with statistics of the run. A Result is not modified once returned.

The items of a pattern keep the order they were mined in: least frequent
item first, followed by the items that extend it by descending rank.
*/
type Result struct {
	patterns     []itemset.Pattern
	index        map[string]int
	transactions int
	minCount     int
	partitions   int
	runID        string
	duration     time.Duration
}

/*
Assemble takes the RankTable of a run and the patterns mined by each
partition and returns the Result holding the length-1 patterns of the table
followed by the patterns of every partition, in ascending partition order.

It returns an error wrapping ErrDuplicatePattern if an itemset is found
more than once, or an error if a pattern holds a rank not in the table.
*/
func Assemble(rt *itemset.RankTable, byPartition map[int][]itemset.RankPattern) (*Result, error) {
	r := &Result{
		transactions: rt.Transactions(),
		minCount:     rt.MinCount(),
		partitions:   len(byPartition),
	}
	singletons := rt.Singletons()
	total := len(singletons)
	partitions := make([]int, 0, len(byPartition))
	for p, patterns := range byPartition {
		partitions = append(partitions, p)
		total += len(patterns)
	}
	sort.Ints(partitions)
	r.patterns = make([]itemset.Pattern, 0, total)
	r.index = make(map[string]int, total)
	for _, p := range singletons {
		r.add(p)
	}
	for _, partition := range partitions {
		for _, rp := range byPartition[partition] {
			p, err := rt.Translate(rp)
			if err != nil {
				return nil, fmt.Errorf("assembling partition %d: %v", partition, err)
			}
			if !r.add(p) {
				return nil, fmt.Errorf("assembling partition %d: %w: %v", partition, ErrDuplicatePattern, p)
			}
		}
	}
	return r, nil
}

func (r *Result) add(p itemset.Pattern) bool {
	key := p.CanonicalKey()
	if _, ok := r.index[key]; ok {
		return false
	}
	r.index[key] = len(r.patterns)
	r.patterns = append(r.patterns, p)
	return true
}

// Len returns the number of frequent itemsets.
func (r *Result) Len() int {
	return len(r.patterns)
}

// Support returns the support of the itemset with the given items, in any
// order, and whether it is frequent.
func (r *Result) Support(items ...itemset.Item) (int, bool) {
	i, ok := r.index[itemset.Pattern{Items: items}.CanonicalKey()]
	if !ok {
		return 0, false
	}
	return r.patterns[i].Support, true
}

// Patterns returns the frequent itemsets in the order they were assembled.
func (r *Result) Patterns() []itemset.Pattern {
	return append([]itemset.Pattern(nil), r.patterns...)
}

// Sorted returns the frequent itemsets by ascending length, then descending
// support, then items.
func (r *Result) Sorted() []itemset.Pattern {
	sorted := r.Patterns()
	sort.Slice(sorted, func(i, j int) bool {
		pi, pj := sorted[i], sorted[j]
		if len(pi.Items) != len(pj.Items) {
			return len(pi.Items) < len(pj.Items)
		}
		if pi.Support != pj.Support {
			return pi.Support > pj.Support
		}
		return pi.CanonicalKey() < pj.CanonicalKey()
	})
	return sorted
}

// Map returns the supports of the frequent itemsets keyed by their items
// joined with the given separator.
func (r *Result) Map(sep string) map[string]int {
	m := make(map[string]int, len(r.patterns))
	for _, p := range r.patterns {
		m[p.Key(sep)] = p.Support
	}
	return m
}

// Digest returns a fingerprint of the itemsets and their supports that does
// not depend on the order they were mined in.
func (r *Result) Digest() uint64 {
	d := xxhash.New()
	for _, p := range r.Sorted() {
		d.WriteString(p.CanonicalKey())
		d.WriteString("\x01")
		d.WriteString(strconv.Itoa(p.Support))
		d.WriteString("\n")
	}
	return d.Sum64()
}

// Transactions returns the number of transactions mined.
func (r *Result) Transactions() int {
	return r.transactions
}

// MinCount returns the absolute support threshold of the run.
func (r *Result) MinCount() int {
	return r.minCount
}

// Partitions returns the number of partitions of the run.
func (r *Result) Partitions() int {
	return r.partitions
}

// RunID returns the identifier of the run.
func (r *Result) RunID() string {
	return r.runID
}

// Duration returns the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.duration
}

func (r *Result) String() string {
	return fmt.Sprintf("{Result run: %s patterns: %d transactions: %d minCount: %d}", r.runID, len(r.patterns), r.transactions, r.minCount)
}
