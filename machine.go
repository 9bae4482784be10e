// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coromachine

import (
	"container/list"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"golang.org/x/sys/unix"
)

// Machine is the cooperative scheduler: it owns the live set of attached
// Coroutines, the id allocator, and the interrupt descriptor used to wake
// a blocked readiness-poll from Stop, per spec.md §3-4.
type Machine struct {
	coroutines *list.List // of *Coroutine, front-to-back insertion order

	ids idAllocator

	running atomic.Bool

	interrupt   eventDescriptor
	interruptMu sync.Mutex
	destructed  bool

	tickCount uint64

	logger *logiface.Logger[logiface.Event]

	p poller
}

// New constructs a Machine with no attached Coroutines.
func New(opts ...MachineOption) (*Machine, error) {
	cfg := resolveMachineOptions(opts)

	interrupt, err := newEventDescriptor()
	if err != nil {
		return nil, err
	}

	return &Machine{
		coroutines: list.New(),
		interrupt:  interrupt,
		logger:     cfg.logger,
	}, nil
}

// attach adds c to the live set in insertion order. Insertion order is the
// tiebreaker for otherwise-equally-stale runnable Coroutines (spec.md §4.3).
func (m *Machine) attach(c *Coroutine) {
	c.elem = m.coroutines.PushBack(c)
}

// detach removes c from the live set. Safe to call at most once per
// Coroutine; idempotent no-op thereafter.
func (m *Machine) detach(c *Coroutine) {
	if c.elem != nil {
		m.coroutines.Remove(c.elem)
		c.elem = nil
	}
}

// Len returns the number of Coroutines currently attached to m, live or
// not-yet-started, but not yet Dead.
func (m *Machine) Len() int {
	return m.coroutines.Len()
}

// IsAlive reports whether id currently identifies a live Coroutine.
func (m *Machine) IsAlive(id uint64) bool {
	return m.ids.alive(id)
}

// Run drives the scheduler loop until Stop is called or the live set
// becomes empty, per spec.md §4.4. Each iteration selects at most one
// runnable Coroutine and resumes it to its next suspension point; Run
// never re-enters a Coroutine's goroutine concurrently with anything else
// run's own goroutine does.
func (m *Machine) Run() error {
	m.running.Store(true)
	for m.running.Load() && m.coroutines.Len() > 0 {
		c := m.getRunnable()
		if c != nil {
			m.resume(c)
		}
	}
	return nil
}

// Stop requests that Run return after the Coroutine it is currently
// resuming (if any) next suspends. Safe to call concurrently with Run,
// including from a signal handler goroutine, per spec.md §8 testable
// property 7.
func (m *Machine) Stop() {
	m.running.Store(false)
	m.interruptMu.Lock()
	_ = m.interrupt.trigger()
	m.interruptMu.Unlock()
}

// Destruct releases the Machine's interrupt descriptor. It does not
// destruct any still-attached Coroutines: a Machine stopped with
// Coroutines still live leaves their goroutines parked, per spec.md's
// Non-goals (cancellation of an in-flight Coroutine from outside the
// Coroutine itself is out of scope).
func (m *Machine) Destruct() error {
	if m.destructed {
		return ErrDoubleDestruct
	}
	m.destructed = true
	return m.interrupt.close()
}

// resume hands the execution token to c and processes its outcome: if c
// suspended again, nothing further is needed (c already updated its own
// state, wait target and lastTick before yielding the token back).
// Otherwise c ran to completion (return, Exit, or a poisoned panic): it is
// detached from the live set, its id is released for reuse, its caller (if
// any, i.e. a Coroutine blocked in Call on c) is woken, and its event
// descriptor is released.
func (m *Machine) resume(c *Coroutine) {
	if c.resumeOnce() {
		return
	}

	if c.caller != nil {
		_ = c.caller.eventDesc.trigger()
	}
	c.state = StateDead
	m.detach(c)
	m.ids.release(c.id)
	logCoroutineEnded(m.logger, c.id, c.name, c.poisonErr)
	_ = c.Destruct()
}

// getRunnable builds a fresh descriptor slate over every blocked Coroutine
// (plus the Machine's own interrupt descriptor at index 0), blocks in a
// single poll, and returns the single most-stale ready Coroutine, or nil if
// nothing became ready or the wakeup was only the interrupt descriptor,
// per spec.md §4.3.
func (m *Machine) getRunnable() *Coroutine {
	fds := make([]unix.PollFd, 1, m.coroutines.Len()+1)
	fds[0] = unix.PollFd{Fd: int32(m.interrupt.fd()), Events: unix.POLLIN}
	blocked := make([]*Coroutine, 0, m.coroutines.Len())

	for e := m.coroutines.Front(); e != nil; e = e.Next() {
		c := e.Value.(*Coroutine)
		switch c.state {
		case StateReady, StateYielded:
			fds = append(fds, unix.PollFd{Fd: int32(c.eventDesc.fd()), Events: int16(EventRead)})
			if c.state == StateReady {
				_ = c.eventDesc.trigger()
			}
		case StateWaiting:
			fds = append(fds, unix.PollFd{Fd: int32(c.waitFD), Events: int16(c.waitEvents)})
		default:
			continue
		}
		blocked = append(blocked, c)
	}

	n, err := m.p.poll(fds, -1)
	if err != nil {
		logPollError(m.logger, err)
		return nil
	}
	if n <= 0 {
		return nil
	}
	m.tickCount++

	if fds[0].Revents != 0 {
		m.interruptMu.Lock()
		_ = m.interrupt.clear()
		m.interruptMu.Unlock()
	}
	if !m.running.Load() {
		return nil
	}

	var runnable []*Coroutine
	for i := 1; i < len(fds); i++ {
		if fds[i].Revents != 0 {
			runnable = append(runnable, blocked[i-1])
		}
	}
	if len(runnable) == 0 {
		return nil
	}

	// Staleness-fair selection: the Coroutine whose lastTick is furthest
	// behind the current tick goes first; ties keep the live set's
	// insertion order, since sort.SliceStable preserves the relative
	// order runnable was built in (spec.md §4.3, resolving Open Question
	// 1 in favor of a deterministic rule over the original's
	// pseudo-random tie-break).
	sort.SliceStable(runnable, func(i, j int) bool {
		return m.tickCount-runnable[i].lastTick > m.tickCount-runnable[j].lastTick
	})

	chosen := runnable[0]
	// Always clear the chosen Coroutine's own event descriptor, even when
	// the descriptor that was actually polled was its wait_fd: an
	// external fd's readiness must not be drained by the scheduler, only
	// observed by the task function's own read/write, matching the
	// original's unconditional CoroutineClearEvent(chosen) in
	// GetRunnableCoroutine (original_source/coroutines/coroutine.c).
	_ = chosen.eventDesc.clear()
	return chosen
}
