package itemset

import (
	"fmt"
	"sort"
	"strings"
)

// RankPattern is a frequent itemset in rank space with its support.
type RankPattern struct {
	Ranks   []Rank
	Support int
}

// Pattern is a frequent itemset of original items with its support.
type Pattern struct {
	Items   []Item
	Support int
}

// Translate returns the Pattern for the given RankPattern, keeping the
// order of its ranks.
func (rt *RankTable) Translate(rp RankPattern) (Pattern, error) {
	items, err := rt.Items(rp.Ranks)
	if err != nil {
		return Pattern{}, fmt.Errorf("translating pattern %v: %v", rp.Ranks, err)
	}
	return Pattern{Items: items, Support: rp.Support}, nil
}

// Key returns the pattern items joined by the separator, in their order.
func (p Pattern) Key(sep string) string {
	var b strings.Builder
	for i, item := range p.Items {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(string(item))
	}
	return b.String()
}

// CanonicalKey returns a key that identifies the itemset regardless of the
// order of its items.
func (p Pattern) CanonicalKey() string {
	items := make([]string, len(p.Items))
	for i, item := range p.Items {
		items[i] = string(item)
	}
	sort.Strings(items)
	return strings.Join(items, "\x00")
}

func (p Pattern) String() string {
	return fmt.Sprintf("%s:%d", p.Key("-"), p.Support)
}
