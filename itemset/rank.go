/*
Package itemset maps the items of a transactional dataset into a dense rank
space ordered by descending frequency, and rewrites transactions into that
space so they can be routed to the partitions that mine them.
*/
package itemset

import (
	"fmt"
	"sort"

	"github.com/pbanos/pfpgrowth/support"
)

// Item is the original label of an item in a transaction.
type Item string

// Rank identifies a frequent item. Rank 0 is the most frequent item.
type Rank int

// Owner returns the partition that mines the given rank when the work is
// split among the given number of partitions.
func Owner(r Rank, partitions int) int {
	return int(r) % partitions
}

/*
Counter counts, for every item, the number of transactions containing it.
An item repeated inside a transaction is only counted once for it.
Counter is not safe for concurrent use.
*/
type Counter struct {
	counts       map[Item]int
	order        []Item
	transactions int
	seen         map[Item]struct{}
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{
		counts: make(map[Item]int),
		seen:   make(map[Item]struct{}),
	}
}

// Add counts the items of one transaction.
func (c *Counter) Add(items []Item) {
	c.transactions++
	for k := range c.seen {
		delete(c.seen, k)
	}
	for _, item := range items {
		if _, ok := c.seen[item]; ok {
			continue
		}
		c.seen[item] = struct{}{}
		if _, ok := c.counts[item]; !ok {
			c.order = append(c.order, item)
		}
		c.counts[item]++
	}
}

// Transactions returns the number of transactions added to the counter.
func (c *Counter) Transactions() int {
	return c.transactions
}

/*
RankTable takes a minimum support and returns the RankTable of the counted
items that reach it, or an error matching support.ErrInvalidConfiguration
if the minimum support is not valid.

Frequent items are ranked by descending count. Items with the same count
keep the order in which they were first seen.
*/
func (c *Counter) RankTable(ms support.MinSupport) (*RankTable, error) {
	minCount, err := ms.Resolve(c.transactions)
	if err != nil {
		return nil, err
	}
	frequent := make([]Item, 0, len(c.order))
	for _, item := range c.order {
		if c.counts[item] >= minCount {
			frequent = append(frequent, item)
		}
	}
	sort.SliceStable(frequent, func(i, j int) bool {
		return c.counts[frequent[i]] > c.counts[frequent[j]]
	})
	rt := &RankTable{
		items:        frequent,
		counts:       make([]int, len(frequent)),
		ranks:        make(map[Item]Rank, len(frequent)),
		minCount:     minCount,
		transactions: c.transactions,
	}
	for i, item := range frequent {
		rt.counts[i] = c.counts[item]
		rt.ranks[item] = Rank(i)
	}
	return rt, nil
}

// RankTransactions counts the given transactions and returns their RankTable.
func RankTransactions(transactions [][]Item, ms support.MinSupport) (*RankTable, error) {
	c := NewCounter()
	for _, t := range transactions {
		c.Add(t)
	}
	return c.RankTable(ms)
}

/*
RankTable holds the frequent items of a dataset with their ranks and counts,
together with the absolute minimum count used to select them.
A RankTable is never modified once built, so it can be shared by
concurrent goroutines.
*/
type RankTable struct {
	items        []Item
	counts       []int
	ranks        map[Item]Rank
	minCount     int
	transactions int
}

// Len returns the number of frequent items.
func (rt *RankTable) Len() int {
	return len(rt.items)
}

// MinCount returns the absolute support an itemset needs to be frequent.
func (rt *RankTable) MinCount() int {
	return rt.minCount
}

// Transactions returns the number of transactions the table was built from.
func (rt *RankTable) Transactions() int {
	return rt.transactions
}

// Rank returns the rank of the given item and whether it is frequent.
func (rt *RankTable) Rank(item Item) (Rank, bool) {
	r, ok := rt.ranks[item]
	return r, ok
}

// Item returns the item with the given rank. It panics if the rank is out
// of range.
func (rt *RankTable) Item(r Rank) Item {
	return rt.items[r]
}

// Count returns the support of the item with the given rank.
func (rt *RankTable) Count(r Rank) int {
	return rt.counts[r]
}

// Items returns the labels for the given ranks, in the same order.
func (rt *RankTable) Items(ranks []Rank) ([]Item, error) {
	items := make([]Item, len(ranks))
	for i, r := range ranks {
		if r < 0 || int(r) >= len(rt.items) {
			return nil, fmt.Errorf("rank %d out of range [0, %d)", r, len(rt.items))
		}
		items[i] = rt.items[r]
	}
	return items, nil
}

// Singletons returns the length-1 frequent patterns in rank order.
func (rt *RankTable) Singletons() []Pattern {
	patterns := make([]Pattern, len(rt.items))
	for i, item := range rt.items {
		patterns[i] = Pattern{Items: []Item{item}, Support: rt.counts[i]}
	}
	return patterns
}

func (rt *RankTable) String() string {
	return fmt.Sprintf("{RankTable items: %d minCount: %d transactions: %d}", len(rt.items), rt.minCount, rt.transactions)
}
