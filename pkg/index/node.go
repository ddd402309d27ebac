//go:build go1.22

package index

import (
	"github.com/arcbound/scmword/pkg/xunsafe"
	"github.com/arcbound/scmword/pkg/xunsafe/layout"
	"github.com/arcbound/scmword/pkg/zc"
)

// state is the index's root allocation (spec.md §3.2), always the arena's
// first allocation and therefore always at offset 0. No live node can start
// at offset 0, so a zero root field unambiguously means an empty tree.
type state struct {
	items  uint64
	unique uint64
	root   uint64
}

var stateSize = layout.Size[state]()

// node is a tree node (spec.md §3.3). left and right are arena-relative
// offsets; 0 means no child. depth follows the recurrence
// depth(null) = -1, depth = 1 + max(depth(left), depth(right)).
type node struct {
	depth int32
	count uint32
	item  zc.View
	left  uint64
	right uint64
}

var nodeSize = layout.Size[node]()

func (x *Index) state() *state {
	return xunsafe.Cast[state](&x.arena.At(0, stateSize)[0])
}

func (x *Index) nodeAt(off uint64) *node {
	return xunsafe.Cast[node](&x.arena.At(off, nodeSize)[0])
}

func (x *Index) keyOf(n *node) string {
	return n.item.String(x.arena.Base())
}

// newNode allocates a leaf node holding one occurrence of word.
func (x *Index) newNode(word string) (uint64, error) {
	str, err := x.arena.Strdup(word)
	if err != nil {
		return 0, err
	}

	off, err := x.arena.Alloc(nodeSize)
	if err != nil {
		return 0, err
	}

	n := x.nodeAt(off)
	n.depth = 0
	n.count = 1
	n.item = zc.Raw(int(str), len(word))
	n.left = 0
	n.right = 0

	return off, nil
}
