/*
Package tree implements the FP-tree: a prefix tree over ranked transactions
where transactions sharing a prefix share the nodes for it, and every node
counts the transactions going through it.

Nodes live in an arena owned by the Tree and are addressed by NodeID. The
node links that index all nodes of a rank hold IDs, never references, so
they cannot outlive the tree they point into.
*/
package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pbanos/pfpgrowth/itemset"
)

// Tree is an FP-tree. It is not safe for concurrent modification, but once
// built it can be read concurrently.
type Tree struct {
	nodes     []node
	nodeLink  map[itemset.Rank][]NodeID
	itemCount map[itemset.Rank]int
}

// New returns a tree with only its root node.
func New() *Tree {
	return &Tree{
		nodes:     []node{{rank: noRank, parent: noParent}},
		nodeLink:  make(map[itemset.Rank][]NodeID),
		itemCount: make(map[itemset.Rank]int),
	}
}

// Build takes the projected transactions of a partition and returns the
// tree with all of them added with a count of 1.
func Build(transactions []itemset.Transaction) *Tree {
	t := New()
	for _, tr := range transactions {
		t.AddTransaction(tr, 1)
	}
	return t
}

/*
AddTransaction takes a ranked transaction and a count and adds it to the
tree: the path for the transaction is followed from the root, creating the
nodes that do not exist yet, and every node on it has its count increased by
the given count.
*/
func (t *Tree) AddTransaction(tr itemset.Transaction, count int) {
	current := Root
	for _, r := range tr {
		id, ok := t.nodes[current].child(r)
		if !ok {
			id = t.addNode(current, r)
		}
		t.nodes[id].count += count
		t.itemCount[r] += count
		current = id
	}
}

func (t *Tree) addNode(parent NodeID, r itemset.Rank) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{rank: r, parent: parent})
	p := &t.nodes[parent]
	if p.children == nil {
		p.children = make(map[itemset.Rank]NodeID)
	}
	p.children[r] = id
	t.nodeLink[r] = append(t.nodeLink[r], id)
	return id
}

/*
Conditional takes a rank and returns a new tree built from the conditional
pattern base of the rank: the prefix of every node for that rank, added with
the count of the node. The receiver is not modified.
*/
func (t *Tree) Conditional(r itemset.Rank) *Tree {
	ct := New()
	var prefix itemset.Transaction
	for _, id := range t.nodeLink[r] {
		prefix = t.appendPrefix(prefix[:0], id)
		if len(prefix) == 0 {
			continue
		}
		ct.AddTransaction(prefix, t.nodes[id].count)
	}
	return ct
}

// Prefix returns the ranks on the path from the root to the parent of the
// node with the given ID.
func (t *Tree) Prefix(id NodeID) itemset.Transaction {
	return t.appendPrefix(nil, id)
}

func (t *Tree) appendPrefix(dst itemset.Transaction, id NodeID) itemset.Transaction {
	start := len(dst)
	for p := t.nodes[id].parent; p != noParent && p != Root; p = t.nodes[p].parent {
		dst = append(dst, t.nodes[p].rank)
	}
	for i, j := start, len(dst)-1; i < j; i, j = i+1, j-1 {
		dst[i], dst[j] = dst[j], dst[i]
	}
	return dst
}

// Rank returns the rank of the node with the given ID.
func (t *Tree) Rank(id NodeID) itemset.Rank {
	return t.nodes[id].rank
}

// Count returns the count of the node with the given ID.
func (t *Tree) Count(id NodeID) int {
	return t.nodes[id].count
}

// Parent returns the ID of the parent of the node with the given ID and
// false if the node is the root.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	p := t.nodes[id].parent
	return p, p != noParent
}

// Child returns the ID of the child of the given node for the given rank
// and whether it exists.
func (t *Tree) Child(id NodeID, r itemset.Rank) (NodeID, bool) {
	return t.nodes[id].child(r)
}

// NodeLink returns the IDs of all nodes for the given rank in creation
// order. The returned slice must not be modified.
func (t *Tree) NodeLink(r itemset.Rank) []NodeID {
	return t.nodeLink[r]
}

// ItemCount returns the sum of the counts of all nodes for the given rank.
func (t *Tree) ItemCount(r itemset.Rank) int {
	return t.itemCount[r]
}

// Ranks returns the ranks present in the tree in ascending order.
func (t *Tree) Ranks() []itemset.Rank {
	ranks := make([]itemset.Rank, 0, len(t.itemCount))
	for r := range t.itemCount {
		ranks = append(ranks, r)
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] < ranks[j] })
	return ranks
}

// Len returns the number of nodes in the tree, excluding the root.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

func (t *Tree) String() string {
	var b strings.Builder
	t.writeSubtree(&b, Root, "")
	return b.String()
}

func (t *Tree) writeSubtree(b *strings.Builder, id NodeID, indent string) {
	n := t.nodes[id]
	if id == Root {
		b.WriteString("[root]\n")
	} else {
		fmt.Fprintf(b, "%s|__%d:%d\n", indent, n.rank, n.count)
		indent += "   "
	}
	children := make([]itemset.Rank, 0, len(n.children))
	for r := range n.children {
		children = append(children, r)
	}
	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	for _, r := range children {
		t.writeSubtree(b, n.children[r], indent)
	}
}
