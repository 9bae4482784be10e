// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coromachine

import "github.com/joeycumines/go-coromachine/internal/bitset"

// idAllocator hands out small, densely-packed, recyclable Coroutine
// identifiers, mirroring the original's AllocateId over a BitSet
// (original_source/coroutines/bitset.c): the first clear bit is reused: a
// terminated Coroutine's id becomes immediately eligible for reuse by the
// very next Coroutine created, and IDs stay dense as long as Coroutines are
// created and destroyed in roughly FIFO order.
type idAllocator struct {
	used bitset.Set
}

// allocate returns the lowest identifier not currently in use and marks it
// used.
func (a *idAllocator) allocate() uint64 {
	id := a.used.FirstClear()
	a.used.Insert(id)
	return uint64(id)
}

// release returns id to the pool of identifiers available for reuse.
func (a *idAllocator) release(id uint64) {
	a.used.Remove(int(id))
}

// alive reports whether id is currently allocated. Safe to call with the
// id of a Coroutine that has since been freed and whose slot may have been
// reused by a different Coroutine: the caller is querying liveness of the
// identifier, not of any particular struct (spec.md §4.5).
func (a *idAllocator) alive(id uint64) bool {
	return a.used.Contains(int(id))
}

// count returns the number of currently allocated identifiers, which must
// always equal the size of the Machine's live set at any quiescent point
// (spec.md §8, testable property 3).
func (a *idAllocator) count() int {
	return a.used.Count()
}
