// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package bitset implements a minimal growable bitset used to allocate and
// recycle Coroutine identifiers.
//
// This is one of the "general-purpose containers" spec.md's §1 Scope
// deliberately excludes from core respecification (the original C source
// has its own BitSet in original_source/coroutines/bitset.c, word-based over
// uint32). No repository in the retrieval pack ships a bitset as a reusable
// library (the closest, sourcegraph-zoekt and moby-moby, both vendor their
// own for unrelated purposes), so this is implemented directly rather than
// fabricating a dependency — see DESIGN.md.
package bitset

import "math/bits"

// Set is a growable set of small non-negative integers, backed by a slice
// of words. The zero value is an empty set.
type Set struct {
	words []uint64
}

const wordBits = 64

// Insert adds i to the set, growing the backing storage if necessary.
func (s *Set) Insert(i int) {
	w := i / wordBits
	for len(s.words) <= w {
		s.words = append(s.words, 0)
	}
	s.words[w] |= 1 << uint(i%wordBits)
}

// Remove removes i from the set. Removing an absent member is a no-op.
func (s *Set) Remove(i int) {
	w := i / wordBits
	if w >= len(s.words) {
		return
	}
	s.words[w] &^= 1 << uint(i%wordBits)
}

// Contains reports whether i is a member of the set.
func (s *Set) Contains(i int) bool {
	w := i / wordBits
	if w >= len(s.words) || w < 0 {
		return false
	}
	return s.words[w]&(1<<uint(i%wordBits)) != 0
}

// FirstClear returns the lowest non-negative integer not in the set.
func (s *Set) FirstClear() int {
	for w, word := range s.words {
		if word == ^uint64(0) {
			continue
		}
		return w*wordBits + bits.TrailingZeros64(^word)
	}
	return len(s.words) * wordBits
}

// Count returns the number of members in the set.
func (s *Set) Count() int {
	n := 0
	for _, word := range s.words {
		n += bits.OnesCount64(word)
	}
	return n
}
