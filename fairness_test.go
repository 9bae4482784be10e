// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coromachine

import "testing"

// TestFairness_StalenessKeepsRunCountsWithinOne covers spec.md §8 testable
// property 2: N perpetually-runnable Coroutines, each doing nothing but
// Yield in a tight loop, end up with run counts that never differ by more
// than one, since Machine.getRunnable always favors whichever Coroutine
// has gone the longest since it last ran.
func TestFairness_StalenessKeepsRunCountsWithinOne(t *testing.T) {
	m := newTestMachine(t)

	const (
		n     = 5
		total = 997 // deliberately not a multiple of n
	)
	counts := make([]int, n)
	var done int

	for i := 0; i < n; i++ {
		i := i
		c, err := New(m, func(c *Coroutine) {
			for done < total {
				counts[i]++
				done++
				c.Yield()
			}
		})
		if err != nil {
			t.Fatalf("New[%d]: %v", i, err)
		}
		if err := c.Start(); err != nil {
			t.Fatalf("Start[%d]: %v", i, err)
		}
	}

	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	min, max := counts[0], counts[0]
	for _, c := range counts {
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	if max-min > 1 {
		t.Errorf("run counts %v span %d, want at most 1", counts, max-min)
	}
}

// TestFairness_TiesBreakByInsertionOrder exercises the tiebreak half of
// Machine.getRunnable's staleness sort directly: when two Coroutines
// become simultaneously ready with equal lastTick, sort.SliceStable must
// preserve the live set's insertion (attach) order, per spec.md §4.3.
func TestFairness_TiesBreakByInsertionOrder(t *testing.T) {
	m := newTestMachine(t)

	var order []string

	first, err := New(m, func(c *Coroutine) {
		order = append(order, "first")
	}, WithName("first"))
	if err != nil {
		t.Fatalf("New(first): %v", err)
	}
	second, err := New(m, func(c *Coroutine) {
		order = append(order, "second")
	}, WithName("second"))
	if err != nil {
		t.Fatalf("New(second): %v", err)
	}

	// Both start Ready with lastTick 0: a genuine tie. first was attached
	// to the Machine before second, so it must run first.
	if err := first.Start(); err != nil {
		t.Fatalf("Start(first): %v", err)
	}
	if err := second.Start(); err != nil {
		t.Fatalf("Start(second): %v", err)
	}

	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("run order = %v, want [first second]", order)
	}
}
