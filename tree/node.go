package tree

import "github.com/pbanos/pfpgrowth/itemset"

// NodeID addresses a node inside the Tree that holds it. IDs are only
// meaningful for the tree that issued them.
type NodeID int32

const (
	// Root is the ID of the root node of every tree. The root carries
	// no rank.
	Root NodeID = 0

	noParent NodeID = -1
	noRank          = itemset.Rank(-1)
)

/*
node is a node of the tree, owned by the tree's arena.
*/
type node struct {
	// The rank the node represents
	rank itemset.Rank
	// The sum of the counts of the transactions going through the node
	count int
	// The node right above this one, whose path from the root is the
	// prefix of this node
	parent NodeID
	// The nodes directly under this node by rank
	children map[itemset.Rank]NodeID
}

func (n *node) child(r itemset.Rank) (NodeID, bool) {
	if n.children == nil {
		return 0, false
	}
	id, ok := n.children[r]
	return id, ok
}
