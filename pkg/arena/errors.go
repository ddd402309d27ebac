package arena

import (
	"errors"
	"fmt"
)

// Kind classifies the failure modes the arena and index layers can report.
//
// Callers recover a Kind from a wrapped error chain with
// [github.com/arcbound/scmword/pkg/xerrors.AsA][*Error].
type Kind int

const (
	// KindOpen means the backing file was absent, not regular, or could not
	// be opened.
	KindOpen Kind = iota + 1
	// KindMap means the mmap of the backing file was rejected by the OS.
	KindMap
	// KindRead means the footer or a persisted record could not be read.
	KindRead
	// KindWrite means the footer could not be written back to the file.
	KindWrite
	// KindOutOfArena means the requested allocation exceeds the arena's
	// remaining capacity.
	KindOutOfArena
	// KindNotFound means a lookup key is absent.
	KindNotFound
	// KindInvalidArgument means a caller passed a nil handle, an empty key,
	// or a zero-byte allocation request.
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindMap:
		return "map"
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindOutOfArena:
		return "out of arena"
	case KindNotFound:
		return "not found"
	case KindInvalidArgument:
		return "invalid argument"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the typed error returned by the arena and index packages.
//
// It carries a Kind so a caller can decide whether a failure is retryable
// (spec.md §7), informational, or fatal, without string-matching Error().
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// NewError builds an *Error for the given kind, operation name, and
// underlying cause. It is exported so the index package, which shares the
// same failure vocabulary, can report errors in the same shape.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("arena: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("arena: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	errNotRegular    = errors.New("backing file is not a regular file")
	errEmptyFile     = errors.New("backing file has zero length")
	errFileTooSmall  = errors.New("backing file has no room beyond the footer")
	errCorruptFooter = errors.New("utilization water mark exceeds arena capacity")
	errZeroAlloc     = errors.New("allocation size must be positive")
	errOutOfArena    = errors.New("requested allocation exceeds remaining arena capacity")
)
