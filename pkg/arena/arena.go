//go:build go1.22

// Package arena implements a persistent, file-backed bump allocator.
//
// Unlike a GC-heap arena, the memory here comes from mapping a fixed-length regular file with
// [golang.org/x/sys/unix.Mmap]: writes to an allocation are writes to the
// file, so an Arena's contents outlive the process that wrote them.
//
// # Design
//
// An Arena tracks a utilization water mark U: bytes [0, U) of the mapped
// file are live allocations, and bytes [U, N) are free, where N is the
// file's fixed length minus an 8-byte trailing footer. On [Arena.Close], U is
// written into that footer and the mapping is flushed and released; the next
// [Open] against the same file reads U back out and resumes exactly where
// the previous session left off.
//
// Because two sessions are different processes (or the same process with a
// different mapping address), allocations cannot hand out raw pointers the
// way an in-heap arena does: a pointer written during one session would be
// meaningless after a remap. Instead, every allocation returns an
// arena-relative byte offset, and callers dereference it through [Arena.At]
// or a [github.com/arcbound/scmword/pkg/zc.View], which index into the
// mapped slice rather than following a pointer. This is the "offset, not
// fixed virtual address" redesign spec.md §9 recommends for new ports.
//
// The allocator itself is intentionally minimal: append-only, no
// coalescing, no free list. [Arena.Free] exists only for interface symmetry
// and never reclaims anything — see spec.md §9 ("The free operation").
package arena

import (
	"encoding/binary"
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/arcbound/scmword/internal/debug"
)

// align is the alignment, in bytes, of every allocation. It matches the
// natural alignment of the uint64 fields tree nodes and the index state
// record are built from.
const align = 8

// footerSize is the width, in bytes, of the trailing utilization water
// mark (spec.md §6.1).
const footerSize = 8

// Arena owns a memory-mapped, fixed-length regular file and bump-allocates
// from it.
//
// A zero Arena is not usable; construct one with [Open].
type Arena struct {
	file *os.File
	data []byte // the whole mapped file, including the trailing footer
	used uint64 // water mark U, in [0, bodyCap()]
	path string
}

// Open maps path, a fixed-length regular file, for read-write shared access.
//
// If truncate is false, the utilization water mark is read from the file's
// trailing footer and the arena resumes at that offset. If truncate is
// true, the arena starts empty (U = 0) and the body is zeroed, discarding
// whatever allocations the file previously held.
func Open(path string, truncate bool) (*Arena, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, NewError(KindOpen, "Open", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, NewError(KindOpen, "Open", err)
	}

	if !fi.Mode().IsRegular() {
		_ = f.Close()
		return nil, NewError(KindOpen, "Open", errNotRegular)
	}
	if fi.Size() == 0 {
		_ = f.Close()
		return nil, NewError(KindOpen, "Open", errEmptyFile)
	}
	if fi.Size() <= footerSize {
		_ = f.Close()
		return nil, NewError(KindOpen, "Open", errFileTooSmall)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, NewError(KindMap, "Open", err)
	}

	a := &Arena{file: f, data: data, path: path}

	if truncate {
		clear(a.data[:len(a.data)-footerSize])
		a.used = 0
	} else {
		a.used = binary.LittleEndian.Uint64(a.data[len(a.data)-footerSize:])
		if a.used > a.bodyCap() {
			_ = unix.Munmap(data)
			_ = f.Close()
			return nil, NewError(KindRead, "Open", errCorruptFooter)
		}
	}

	debug.Log([]any{"%s", path}, "open", "truncate=%v used=%d cap=%d", truncate, a.used, a.bodyCap())

	return a, nil
}

// bodyCap returns the number of bytes available to allocations, i.e. the
// mapped length minus the trailing footer.
func (a *Arena) bodyCap() uint64 {
	return uint64(len(a.data)) - footerSize
}

func alignUp(n uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

// Alloc bump-allocates n bytes and returns their arena-relative offset.
//
// The returned offset is aligned to 8 bytes and the memory is zeroed. n
// must be positive; a failed Alloc leaves the water mark unchanged.
func (a *Arena) Alloc(n int) (uint64, error) {
	if n <= 0 {
		return 0, NewError(KindInvalidArgument, "Alloc", errZeroAlloc)
	}

	size := alignUp(uint64(n))
	if a.used+size > a.bodyCap() {
		return 0, NewError(KindOutOfArena, "Alloc", errOutOfArena)
	}

	off := a.used
	clear(a.data[off : off+size])
	a.used += size

	debug.Log(nil, "alloc", "%d+%d -> %d", off, n, a.used)

	return off, nil
}

// Strdup duplicates s into the arena as a null-terminated byte string and
// returns the offset of its first byte. The terminator is written for file
// format fidelity (spec.md §6.1); callers that already know a string's
// length (every caller in this module) should not rely on scanning for it.
func (a *Arena) Strdup(s string) (uint64, error) {
	off, err := a.Alloc(len(s) + 1)
	if err != nil {
		return 0, err
	}
	copy(a.data[off:], s)
	a.data[off+uint64(len(s))] = 0
	return off, nil
}

// Free is a documented no-op: the arena is append-only and never reclaims
// allocated bytes (spec.md §9). It is kept for interface symmetry with
// Alloc.
func (a *Arena) Free(offset uint64, n int) {
	debug.Log(nil, "free", "%d+%d (no-op)", offset, n)
}

// At returns the n live bytes at offset, aliasing the arena's mapping.
//
// The returned slice must not be retained past the Arena's lifetime and
// must not be appended to.
func (a *Arena) At(offset uint64, n int) []byte {
	return a.data[offset : offset+uint64(n)]
}

// Base returns a pointer to the first byte of the arena, i.e. the address
// that arena-relative offsets (and [github.com/arcbound/scmword/pkg/zc.View]
// values) are relative to.
func (a *Arena) Base() *byte {
	return &a.data[0]
}

// Utilized returns the current water mark U.
func (a *Arena) Utilized() uint64 {
	return a.used
}

// Capacity returns the number of bytes still available to allocate.
func (a *Arena) Capacity() uint64 {
	return a.bodyCap() - a.used
}

// Close writes the water mark into the file's footer, flushes the mapping
// to stable storage, unmaps it, and closes the file descriptor.
//
// Every step runs even if an earlier one fails, so the descriptor is never
// leaked; all errors encountered are returned, joined. Calling Close again
// after it has returned is a no-op.
func (a *Arena) Close() error {
	if a.data == nil {
		return nil
	}
	binary.LittleEndian.PutUint64(a.data[len(a.data)-footerSize:], a.used)

	var errs []error
	if err := unix.Msync(a.data, unix.MS_SYNC); err != nil {
		errs = append(errs, NewError(KindWrite, "Close", err))
	}
	if err := unix.Munmap(a.data); err != nil {
		errs = append(errs, NewError(KindMap, "Close", err))
	}
	a.data = nil
	if err := a.file.Close(); err != nil {
		errs = append(errs, NewError(KindWrite, "Close", err))
	}

	debug.Log([]any{"%s", a.path}, "close", "used=%d", a.used)

	return errors.Join(errs...)
}
