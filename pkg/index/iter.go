//go:build go1.23

package index

import "iter"

// All returns an in-order iterator over the index — the same walk
// [Index.Traverse] does, exposed as an [iter.Seq2] so host code can write
// `for item, count := range idx.All()` and stop early with break, without
// writing a callback (spec.md's own traversal primitive is the
// callback-based Traverse; this supplements it).
func (x *Index) All() iter.Seq2[string, uint32] {
	return func(yield func(string, uint32) bool) {
		x.walkSeq(x.state().root, yield)
	}
}

func (x *Index) walkSeq(off uint64, yield func(string, uint32) bool) bool {
	if off == 0 {
		return true
	}
	n := x.nodeAt(off)
	if !x.walkSeq(n.left, yield) {
		return false
	}
	if !yield(x.keyOf(n), n.count) {
		return false
	}
	return x.walkSeq(n.right, yield)
}
