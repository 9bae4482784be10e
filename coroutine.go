// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coromachine

import (
	"container/list"
	"fmt"
)

// State is a Coroutine's position in its lifecycle, per spec.md §4.1.
type State int

const (
	// StateNew is the initial state: created but not yet started.
	StateNew State = iota
	// StateReady means Start has been called; the scheduler will resume
	// it on the next tick in which it is selected.
	StateReady
	// StateRunning means this Coroutine currently holds the single
	// execution token. At most one Coroutine is ever Running.
	StateRunning
	// StateYielded means the Coroutine suspended via Yield, YieldValue or
	// Call and is waiting to be resumed.
	StateYielded
	// StateWaiting means the Coroutine suspended via Wait and is blocked
	// on a caller-supplied file descriptor.
	StateWaiting
	// StateDead is terminal: the task function returned, called Exit, or
	// panicked.
	StateDead
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateYielded:
		return "yielded"
	case StateWaiting:
		return "waiting"
	case StateDead:
		return "dead"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// exitSignal is the sentinel panic value used by Exit to unwind a task
// function's Go call stack, standing in for the original's
// longjmp(c->exit, 1) (original_source/coroutines/coroutine.c,
// CoroutineExit). It is always recovered by Coroutine.run and never
// observed outside this package.
type exitSignal struct{}

// Coroutine holds one task's execution context: its identity, its
// task-function goroutine, its current wait/event descriptor pair, its
// user data, optional caller linkage for value-returning calls, and its
// lifecycle state, per spec.md §3.
type Coroutine struct {
	id      uint64
	name    string
	machine *Machine
	task    func(*Coroutine)

	state     State
	stackSize int
	userData  any

	// lastTick is the scheduler tick at which this Coroutine last
	// suspended; the fairness key (spec.md §4.3).
	lastTick uint64

	// caller is non-nil only while another Coroutine is blocked in Call
	// awaiting this Coroutine's value or termination.
	caller    *Coroutine
	resultPtr *any

	eventDesc  eventDescriptor
	waitFD     int
	waitEvents IOEvents

	// ch is the rendezvous channel backing the single execution token:
	// the Coroutine's goroutine only ever sends on it (to announce either
	// "ready to run" or "suspending"); the Machine only ever receives
	// from it, twice per resume, mirroring the channel choreography
	// described in doc.go and grounded on the retrieval pack's tcard-coro
	// package (coro.go), generalized from a single resume/yield pair to
	// an arbitrary number of independently-scheduled coroutines.
	ch chan struct{}

	poisonErr  error
	destructed bool

	elem *list.Element
}

// New creates a Coroutine bound to task and attaches it to m, in the New
// state. The Coroutine does not run until Start is called and the
// scheduler selects it.
func New(m *Machine, task func(*Coroutine), opts ...CoroutineOption) (*Coroutine, error) {
	if task == nil {
		return nil, ErrNilTaskFunc
	}
	cfg := resolveCoroutineOptions(opts)

	ed, err := newEventDescriptor()
	if err != nil {
		return nil, err
	}

	id := m.ids.allocate()
	name := cfg.name
	if name == "" {
		name = fmt.Sprintf("co-%d", id)
	}

	c := &Coroutine{
		id:        id,
		name:      name,
		machine:   m,
		task:      task,
		state:     StateNew,
		stackSize: cfg.stackSize,
		userData:  cfg.userData,
		eventDesc: ed,
		waitFD:    -1,
		ch:        make(chan struct{}),
	}
	m.attach(c)
	go c.run()
	return c, nil
}

// run is the Coroutine's private goroutine: Go's stand-in for the
// original's private stack (spec.md §9: "a language-provided equivalent").
// It parks immediately, waiting for the Machine's first resume, then
// invokes the task function, recovering a poisoning panic or an Exit
// unwind exactly as the Machine-facing contract in errors.go describes.
func (c *Coroutine) run() {
	defer close(c.ch)
	c.awaitResume()
	logCoroutineStarted(c.machine.logger, c.id, c.name)
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(exitSignal); ok {
					return
				}
				c.poisonErr = &PoisonedError{Value: r, Name: c.name}
			}
		}()
		c.task(c)
	}()
}

// awaitResume blocks until the Machine hands this Coroutine the execution
// token, then marks it Running. Called once before the task function
// starts, and once at the tail of every suspend.
func (c *Coroutine) awaitResume() {
	c.ch <- struct{}{}
	c.state = StateRunning
}

// suspend hands the execution token back to the Machine and blocks until
// the Machine resumes this Coroutine again.
func (c *Coroutine) suspend() {
	c.ch <- struct{}{}
	c.awaitResume()
}

// resumeOnce is called only by Machine. It returns true if the Coroutine
// suspended again (Yielded/Waiting), or false if it ran to completion
// (task function returned, called Exit, or panicked).
func (c *Coroutine) resumeOnce() bool {
	_, ok := <-c.ch
	if !ok {
		return false
	}
	_, ok = <-c.ch
	return ok
}

// Start transitions a Coroutine from New to Ready. The scheduler will
// resume it the first time it is selected.
func (c *Coroutine) Start() error {
	if c.state != StateNew {
		return ErrNotNew
	}
	c.state = StateReady
	return nil
}

// Wait suspends the calling Coroutine until fd becomes ready for the
// events in mask, per spec.md §4.2. It does not interpret readiness: the
// task function performs its own read/write afterward and observes EOF,
// POLLHUP or errors through the ordinary result of that call (spec.md §7).
func (c *Coroutine) Wait(fd int, mask IOEvents) error {
	if fd < 0 {
		return ErrFDOutOfRange
	}
	c.state = StateWaiting
	c.waitFD = fd
	c.waitEvents = mask
	c.lastTick = c.machine.tickCount
	c.suspend()
	c.waitFD = -1
	return nil
}

// Yield reschedules the calling Coroutine: it becomes immediately
// runnable again (it self-signals its event descriptor) but only after
// every other currently-runnable Coroutine has had its turn, per the
// staleness-fair selection in Machine.getRunnable.
func (c *Coroutine) Yield() {
	c.state = StateYielded
	c.lastTick = c.machine.tickCount
	_ = c.eventDesc.trigger()
	c.suspend()
}

// YieldValue delivers value to the calling Coroutine's caller (if any,
// i.e. another Coroutine currently blocked in Call on this one) and
// suspends. Unlike Yield, it does not self-signal: it only becomes
// runnable again when the caller issues another Call. If no caller is
// registered, value is dropped, per spec.md §6.
func (c *Coroutine) YieldValue(value any) {
	if c.resultPtr != nil {
		*c.resultPtr = value
	}
	if c.caller != nil {
		_ = c.caller.eventDesc.trigger()
	}
	c.state = StateYielded
	c.lastTick = c.machine.tickCount
	c.suspend()
}

// Call rendezvous with callee: starts it if it is New, otherwise signals
// it to resume, then suspends the caller until callee yields a value (via
// YieldValue) or terminates. The delivered value, if any, is visible in
// *result once Call returns.
func (c *Coroutine) Call(callee *Coroutine, result *any) {
	callee.caller = c
	callee.resultPtr = result
	if callee.state == StateNew {
		_ = callee.Start()
	} else {
		_ = callee.eventDesc.trigger()
	}
	c.state = StateYielded
	c.lastTick = c.machine.tickCount
	c.suspend()
	callee.caller = nil
	callee.resultPtr = nil
}

// Exit forces immediate termination of the calling Coroutine, unwinding
// its task function's Go call stack.
func (c *Coroutine) Exit() {
	panic(exitSignal{})
}

// IsAlive reports whether other is still live, identified by its stable
// id. Safe to call even if other has since been freed and a new Coroutine
// has taken its identifier slot, provided the caller only uses the result
// as an opaque liveness predicate (spec.md §4.5).
func (c *Coroutine) IsAlive(other *Coroutine) bool {
	return c.machine.ids.alive(other.id)
}

// Machine returns the Machine this Coroutine is attached to, letting a
// running task spawn sibling Coroutines on the same scheduler (as
// cmd/fileserver's Listener does for each accepted connection).
func (c *Coroutine) Machine() *Machine { return c.machine }

// ID returns the Coroutine's stable integer identifier.
func (c *Coroutine) ID() uint64 { return c.id }

// Name returns the Coroutine's human-readable name.
func (c *Coroutine) Name() string { return c.name }

// SetName overrides the Coroutine's name.
func (c *Coroutine) SetName(name string) { c.name = name }

// UserData returns the opaque value attached at construction (or since, via
// SetUserData).
func (c *Coroutine) UserData() any { return c.userData }

// SetUserData attaches an opaque value to the Coroutine.
func (c *Coroutine) SetUserData(v any) { c.userData = v }

// StackSize returns the nominal stack size recorded for this Coroutine.
// See WithStackSize for how this maps onto a goroutine's actual
// dynamically-grown stack.
func (c *Coroutine) StackSize() int { return c.stackSize }

// State returns the Coroutine's current lifecycle state.
func (c *Coroutine) State() State { return c.state }

// Err returns the poisoning error recovered from a task-function panic, or
// nil if the Coroutine is alive or terminated normally.
func (c *Coroutine) Err() error { return c.poisonErr }

// TriggerEvent manually signals the Coroutine's own event descriptor. An
// advanced operation (spec.md §6); Yield, YieldValue and Call already
// manage this as part of their normal contract.
func (c *Coroutine) TriggerEvent() error { return c.eventDesc.trigger() }

// ClearEvent manually clears the Coroutine's own event descriptor.
func (c *Coroutine) ClearEvent() error { return c.eventDesc.clear() }

// Destruct releases the Coroutine's event descriptor. Called automatically
// by the Machine when the Coroutine transitions to Dead; safe to call at
// most once.
func (c *Coroutine) Destruct() error {
	if c.destructed {
		return ErrDoubleDestruct
	}
	c.destructed = true
	return c.eventDesc.close()
}
