package index

import (
	"errors"

	"github.com/arcbound/scmword/pkg/arena"
)

// Error is the index package's typed error. It reuses the arena package's
// Kind vocabulary (spec.md §7) rather than define a parallel one: an index
// operation either propagates an arena failure unchanged or reports
// KindNotFound (a missing key on delete) or KindInvalidArgument (an empty
// word), using the same Kind/Op/Err shape either way.
type Error = arena.Error

var (
	errEmptyWord  = errors.New("word must be non-empty")
	errWordAbsent = errors.New("word not present in index")
)

func newError(kind arena.Kind, op string, err error) *Error {
	return arena.NewError(kind, op, err)
}
