//go:build go1.22

// Package wordindex is the host-facing facade over [pkg/index]: it owns the
// open/close lifecycle and forwards aggregate statistics (spec.md §4.3).
// Everything the interactive shell, tokenizer, and CLI plumbing need is out
// of scope here, same as it is for the core (spec.md §1) — this package
// only wraps the index, it does not drive one.
package wordindex

import (
	"flag"

	"github.com/arcbound/scmword/internal/debug"
	"github.com/arcbound/scmword/pkg/index"
)

// verbose is a package-level debug knob, not a CLI for the index itself: it
// only decides whether this package's own debug.Log calls fire when built
// with -tags debug (spec.md §6.3 keeps CLI/argument parsing out of the
// core's scope; internal/debug's own -filter flag still governs everything
// logged below the wordindex layer).
var verbose = flag.Bool("wordindex.verbose", false, "log wordindex open/close events under -tags debug")

// WordIndex is the host-facing handle: open a backing file, perform
// insert/exists/delete/traverse, read aggregate Stats, close.
type WordIndex struct {
	idx *index.Index
}

// Open opens path as a word index. truncate discards any prior contents,
// matching [index.Open].
func Open(path string, truncate bool) (*WordIndex, error) {
	idx, err := index.Open(path, truncate)
	if err != nil {
		return nil, err
	}
	if *verbose {
		debug.Log([]any{"%s", path}, "wordindex.open", "truncate=%v", truncate)
	}
	return &WordIndex{idx: idx}, nil
}

// Close closes the underlying index.
func (w *WordIndex) Close() error {
	err := w.idx.Close()
	if *verbose {
		debug.Log(nil, "wordindex.close", "err=%v", err)
	}
	return err
}

// Insert inserts one occurrence of word.
func (w *WordIndex) Insert(word string) error {
	return w.idx.Insert(word)
}

// Exists returns word's current occurrence count, or 0 if absent.
func (w *WordIndex) Exists(word string) uint32 {
	return w.idx.Exists(word)
}

// Delete removes every occurrence of word.
func (w *WordIndex) Delete(word string) error {
	return w.idx.Delete(word)
}

// Traverse invokes fn once per entry in ascending lexicographic order.
func (w *WordIndex) Traverse(fn func(item string, count uint32)) {
	w.idx.Traverse(fn)
}

// Stats is a snapshot of the index's counters and the arena's utilization,
// supplementing spec.md §4.3 so a host can render a status line from one
// call instead of four.
type Stats struct {
	Items    uint64
	Unique   uint64
	Utilized uint64
	Capacity uint64
}

// Stats reports the current counters and arena utilization.
func (w *WordIndex) Stats() Stats {
	return Stats{
		Items:    w.idx.Items(),
		Unique:   w.idx.Unique(),
		Utilized: w.idx.Utilized(),
		Capacity: w.idx.Capacity(),
	}
}
