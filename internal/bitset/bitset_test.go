// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package bitset

import "testing"

func TestSet_InsertContainsRemove(t *testing.T) {
	var s Set
	for _, i := range []int{0, 1, 63, 64, 65, 200} {
		if s.Contains(i) {
			t.Fatalf("Contains(%d) = true before Insert", i)
		}
		s.Insert(i)
		if !s.Contains(i) {
			t.Fatalf("Contains(%d) = false after Insert", i)
		}
	}
	if got, want := s.Count(), 6; got != want {
		t.Errorf("Count() = %d, want %d", got, want)
	}
	s.Remove(64)
	if s.Contains(64) {
		t.Errorf("Contains(64) = true after Remove")
	}
	if got, want := s.Count(), 5; got != want {
		t.Errorf("Count() = %d, want %d", got, want)
	}
}

func TestSet_RemoveAbsentIsNoop(t *testing.T) {
	var s Set
	s.Remove(5)
	if s.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", s.Count())
	}
	s.Insert(1000)
	s.Remove(2000)
	if !s.Contains(1000) {
		t.Errorf("Remove of an unrelated, far-off index disturbed an existing member")
	}
}

func TestSet_ContainsOutOfRange(t *testing.T) {
	var s Set
	cases := []int{-1, 0, 1000}
	for _, i := range cases {
		if s.Contains(i) {
			t.Errorf("Contains(%d) = true on empty set", i)
		}
	}
}

func TestSet_FirstClear(t *testing.T) {
	tests := []struct {
		name   string
		insert []int
		remove []int
		want   int
	}{
		{name: "empty", want: 0},
		{name: "dense prefix", insert: []int{0, 1, 2, 3}, want: 4},
		{name: "word boundary", insert: []int{0, 1, 63}, want: 2},
		{name: "gap beyond first word", insert: []int{0, 64, 65}, want: 1},
		{name: "hole reused after remove", insert: []int{0, 1, 2}, remove: []int{1}, want: 1},
		{name: "all of first word full", insert: allOf(0, 64), want: 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Set
			for _, i := range tt.insert {
				s.Insert(i)
			}
			for _, i := range tt.remove {
				s.Remove(i)
			}
			if got := s.FirstClear(); got != tt.want {
				t.Errorf("FirstClear() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSet_AllocateReleaseRoundTrip(t *testing.T) {
	var s Set
	var ids []int
	for i := 0; i < 10; i++ {
		id := s.FirstClear()
		s.Insert(id)
		ids = append(ids, id)
	}
	for i, id := range ids {
		if id != i {
			t.Fatalf("ids[%d] = %d, want %d (allocation should be dense)", i, id, i)
		}
	}
	s.Remove(3)
	if got := s.FirstClear(); got != 3 {
		t.Errorf("FirstClear() after releasing 3 = %d, want 3 (lowest free id reused first)", got)
	}
}

func allOf(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
