//go:build go1.22

// Package index implements a persistent, arena-resident AVL tree of counted
// strings (spec.md §3.3, §4.2).
package index

import (
	"github.com/arcbound/scmword/internal/debug"
	"github.com/arcbound/scmword/pkg/arena"
)

// Index is a height-balanced binary search tree, keyed by lexicographic byte
// order, whose nodes and item strings all live inside an [arena.Arena].
//
// A zero Index is not usable; construct one with [Open].
type Index struct {
	arena *arena.Arena
}

// Open opens an Arena over path and adopts or initializes the index state
// record at its base (spec.md §4.2).
//
// If the Arena already holds data (truncate is false and it was not empty),
// the pre-existing state record at offset 0 is used as-is. Otherwise a
// zeroed state record is allocated as the Arena's first allocation.
func Open(path string, truncate bool) (*Index, error) {
	a, err := arena.Open(path, truncate)
	if err != nil {
		return nil, err
	}

	x := &Index{arena: a}

	if a.Utilized() == 0 {
		off, err := a.Alloc(stateSize)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		debug.Assert(off == 0, "index state record must be the arena's first allocation, got %d", off)
	}

	return x, nil
}

// Close closes the underlying Arena.
func (x *Index) Close() error {
	return x.arena.Close()
}

// Insert inserts one occurrence of word. word must be non-empty.
func (x *Index) Insert(word string) error {
	if word == "" {
		return newError(arena.KindInvalidArgument, "Insert", errEmptyWord)
	}

	st := x.state()

	newRoot, created, err := x.insertNode(st.root, word)
	if err != nil {
		return err
	}

	st.root = newRoot
	st.items++
	if created {
		st.unique++
	}

	debug.Log(nil, "insert", "%q created=%v items=%d unique=%d", word, created, st.items, st.unique)
	debug.Assert(!debug.Enabled || x.balanced(st.root), "AVL balance violated after inserting %q", word)

	return nil
}

func (x *Index) insertNode(off uint64, word string) (uint64, bool, error) {
	if off == 0 {
		newOff, err := x.newNode(word)
		if err != nil {
			return 0, false, err
		}
		return newOff, true, nil
	}

	n := x.nodeAt(off)
	key := x.keyOf(n)

	switch {
	case word == key:
		n.count++
		return off, false, nil

	case word < key:
		childOff, created, err := x.insertNode(n.left, word)
		if err != nil {
			return 0, false, err
		}
		n.left = childOff
		return x.rebalance(off), created, nil

	default:
		childOff, created, err := x.insertNode(n.right, word)
		if err != nil {
			return 0, false, err
		}
		n.right = childOff
		return x.rebalance(off), created, nil
	}
}

// Exists returns word's current occurrence count, or 0 if absent.
func (x *Index) Exists(word string) uint32 {
	off := x.state().root
	for off != 0 {
		n := x.nodeAt(off)
		key := x.keyOf(n)
		switch {
		case word == key:
			return n.count
		case word < key:
			off = n.left
		default:
			off = n.right
		}
	}
	return 0
}

// Delete removes every occurrence of word. It fails with KindNotFound if
// word is absent, leaving the index unchanged.
func (x *Index) Delete(word string) error {
	if word == "" {
		return newError(arena.KindInvalidArgument, "Delete", errEmptyWord)
	}

	st := x.state()

	newRoot, removed, found, err := x.deleteNode(st.root, word)
	if err != nil {
		return err
	}
	if !found {
		return newError(arena.KindNotFound, "Delete", errWordAbsent)
	}

	st.root = newRoot
	st.items -= uint64(removed)
	st.unique--

	debug.Log(nil, "delete", "%q removed=%d items=%d unique=%d", word, removed, st.items, st.unique)
	debug.Assert(!debug.Enabled || x.balanced(st.root), "AVL balance violated after deleting %q", word)

	return nil
}

func (x *Index) deleteNode(off uint64, word string) (newOff uint64, removed uint32, found bool, err error) {
	if off == 0 {
		return 0, 0, false, nil
	}

	n := x.nodeAt(off)
	key := x.keyOf(n)

	switch {
	case word < key:
		childOff, removed, found, err := x.deleteNode(n.left, word)
		if err != nil || !found {
			return off, removed, found, err
		}
		n.left = childOff
		return x.rebalance(off), removed, true, nil

	case word > key:
		childOff, removed, found, err := x.deleteNode(n.right, word)
		if err != nil || !found {
			return off, removed, found, err
		}
		n.right = childOff
		return x.rebalance(off), removed, true, nil

	default:
		removed := n.count

		if n.left == 0 || n.right == 0 {
			child := n.left
			if child == 0 {
				child = n.right
			}
			return child, removed, true, nil
		}

		// Two children: copy the in-order successor's item and count into
		// this node, then delete the successor from the right subtree
		// (spec.md §4.2 deletion step 3). The successor's old storage is
		// left unreclaimed — the arena is append-only (spec.md §9).
		succOff := x.min(n.right)
		succ := x.nodeAt(succOff)
		succKey := x.keyOf(succ)

		n.item = succ.item
		n.count = succ.count

		newRight, _, _, err := x.deleteNode(n.right, succKey)
		if err != nil {
			return 0, 0, false, err
		}
		n.right = newRight
		return x.rebalance(off), removed, true, nil
	}
}

func (x *Index) min(off uint64) uint64 {
	n := x.nodeAt(off)
	for n.left != 0 {
		off = n.left
		n = x.nodeAt(off)
	}
	return off
}

// Traverse invokes fn once per node in ascending lexicographic order.
// fn must not mutate the index.
func (x *Index) Traverse(fn func(item string, count uint32)) {
	x.walk(x.state().root, fn)
}

func (x *Index) walk(off uint64, fn func(string, uint32)) {
	if off == 0 {
		return
	}
	n := x.nodeAt(off)
	x.walk(n.left, fn)
	fn(x.keyOf(n), n.count)
	x.walk(n.right, fn)
}

// Items returns the total number of inserted words, counting duplicates.
func (x *Index) Items() uint64 { return x.state().items }

// Unique returns the number of distinct words currently present.
func (x *Index) Unique() uint64 { return x.state().unique }

// Utilized and Capacity forward the underlying Arena's accounting, used by
// pkg/wordindex's Stats.
func (x *Index) Utilized() uint64 { return x.arena.Utilized() }
func (x *Index) Capacity() uint64 { return x.arena.Capacity() }

// balanced is a recursive check of the AVL invariant (spec.md §8 property
// 2): balance factors and the depth recurrence. BST order is not checked.
// Outside -tags debug builds it is never called, because the
// !debug.Enabled operand of each debug.Assert short-circuits it.
func (x *Index) balanced(off uint64) bool {
	if off == 0 {
		return true
	}
	n := x.nodeAt(off)
	balance := x.depthOf(n.left) - x.depthOf(n.right)
	if balance > 1 || balance < -1 {
		return false
	}
	if n.depth != 1+max(x.depthOf(n.left), x.depthOf(n.right)) {
		return false
	}
	return x.balanced(n.left) && x.balanced(n.right)
}
