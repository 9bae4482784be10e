// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coromachine

import (
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// TestMachine_AtMostOneRunning covers spec.md §8 testable property 1: two
// Coroutines that each claim a shared "active" flag (compare-and-swap 0 to
// 1) around their own critical section never find it already claimed by
// the other, because the execution token is never held by more than one
// Coroutine at a time.
func TestMachine_AtMostOneRunning(t *testing.T) {
	m := newTestMachine(t)

	var active int32
	var violations int32
	critical := func(c *Coroutine) {
		for i := 0; i < 100; i++ {
			if !atomic.CompareAndSwapInt32(&active, 0, 1) {
				atomic.AddInt32(&violations, 1)
			}
			atomic.StoreInt32(&active, 0)
			c.Yield()
		}
	}

	a, err := New(m, critical, WithName("a"))
	if err != nil {
		t.Fatalf("New(a): %v", err)
	}
	b, err := New(m, critical, WithName("b"))
	if err != nil {
		t.Fatalf("New(b): %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start(a): %v", err)
	}
	if err := b.Start(); err != nil {
		t.Fatalf("Start(b): %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if violations != 0 {
		t.Errorf("observed %d instances of concurrent execution", violations)
	}
}

// TestMachine_LenReachesZero covers spec.md §8 testable property 3 from the
// Machine's side: once every Coroutine has terminated, the live set is
// empty and Run returns.
func TestMachine_LenReachesZero(t *testing.T) {
	m := newTestMachine(t)
	for i := 0; i < 5; i++ {
		c, err := New(m, func(c *Coroutine) {
			c.Yield()
			c.Yield()
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := c.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
	}
	if got, want := m.Len(), 5; got != want {
		t.Fatalf("Len() before Run = %d, want %d", got, want)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := m.Len(), 0; got != want {
		t.Errorf("Len() after Run = %d, want %d", got, want)
	}
}

// TestMachine_StopWakesBlockedPoll covers spec.md §8 testable property 7:
// Stop, called concurrently with Run from another goroutine while the
// scheduler is parked in poll awaiting a Coroutine's Wait target that will
// never become ready, still causes Run to return promptly.
func TestMachine_StopWakesBlockedPoll(t *testing.T) {
	m := newTestMachine(t)

	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	r, w := fds[0], fds[1]
	defer unix.Close(w)

	blocked, err := New(m, func(c *Coroutine) {
		// No writer ever appears; this Wait would block indefinitely
		// absent Stop's interrupt wakeup.
		_ = c.Wait(r, EventRead)
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := blocked.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer unix.Close(r)

	done := make(chan error, 1)
	go func() { done <- m.Run() }()

	time.Sleep(20 * time.Millisecond)
	m.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return within 5s of Stop")
	}
}

// TestMachine_PipeProducerConsumer is the pipe end-to-end scenario named in
// spec.md §8: a writer Coroutine feeds lines through a non-blocking pipe
// and a reader Coroutine receives them in order, entirely via Wait/Yield,
// with no goroutine outside the Machine's own.
func TestMachine_PipeProducerConsumer(t *testing.T) {
	m := newTestMachine(t)

	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	r, w := fds[0], fds[1]
	if err := unix.SetNonblock(r, true); err != nil {
		t.Fatalf("SetNonblock(r): %v", err)
	}
	if err := unix.SetNonblock(w, true); err != nil {
		t.Fatalf("SetNonblock(w): %v", err)
	}

	const lines = 20
	writer, err := New(m, func(c *Coroutine) {
		defer unix.Close(w)
		for i := 0; i < lines; i++ {
			if err := c.Wait(w, EventWrite); err != nil {
				return
			}
			msg := []byte{byte('A' + i%26), '\n'}
			for len(msg) > 0 {
				n, err := unix.Write(w, msg)
				if err != nil {
					if err == unix.EAGAIN {
						if err := c.Wait(w, EventWrite); err != nil {
							return
						}
						continue
					}
					return
				}
				msg = msg[n:]
			}
			c.Yield()
		}
	}, WithName("writer"))
	if err != nil {
		t.Fatalf("New(writer): %v", err)
	}

	var received []byte
	reader, err := New(m, func(c *Coroutine) {
		defer unix.Close(r)
		buf := make([]byte, 64)
		for {
			if err := c.Wait(r, EventRead); err != nil {
				return
			}
			n, err := unix.Read(r, buf)
			if n > 0 {
				received = append(received, buf[:n]...)
			}
			if err != nil && err != unix.EAGAIN {
				return
			}
			if n == 0 {
				return
			}
		}
	}, WithName("reader"))
	if err != nil {
		t.Fatalf("New(reader): %v", err)
	}

	if err := writer.Start(); err != nil {
		t.Fatalf("Start(writer): %v", err)
	}
	if err := reader.Start(); err != nil {
		t.Fatalf("Start(reader): %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := len(received), lines*2; got != want {
		t.Fatalf("received %d bytes, want %d", got, want)
	}
	for i := 0; i < lines; i++ {
		want := byte('A' + i%26)
		if got := received[i*2]; got != want {
			t.Errorf("line %d = %q, want %q", i, got, want)
		}
		if received[i*2+1] != '\n' {
			t.Errorf("line %d missing trailing newline", i)
		}
	}
}
