// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coromachine

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrMachineStopped reports that a Machine's Run loop has already
	// returned. No function in this package returns it.
	ErrMachineStopped = errors.New("coromachine: machine is stopped")

	// ErrNotNew is returned by Start when the Coroutine is not in the New
	// state.
	ErrNotNew = errors.New("coromachine: coroutine is not new")

	// ErrDead reports that a Coroutine has already terminated. No function
	// in this package returns it.
	ErrDead = errors.New("coromachine: coroutine is dead")

	// ErrNilTaskFunc is returned by New when no task function is supplied.
	ErrNilTaskFunc = errors.New("coromachine: task function is nil")

	// ErrDoubleDestruct is returned by Destruct when called more than once
	// on the same Coroutine or Machine.
	ErrDoubleDestruct = errors.New("coromachine: already destructed")

	// ErrFDOutOfRange is returned when a Wait target is negative.
	ErrFDOutOfRange = errors.New("coromachine: fd out of range")
)

// PoisonedError wraps a value recovered from a task function's panic.
//
// spec.md leaves the behavior of a panicking task function undefined, and
// recommends that implementations "document the coroutine as poisoned and
// terminate it as if it had returned". This is that documentation: a
// Coroutine that panics transitions to Dead exactly as on a normal return,
// and the recovered value is wrapped here, logged, and retained on the
// Coroutine for inspection via Err.
type PoisonedError struct {
	// Value is whatever was passed to panic() in the task function.
	Value any
	// Name is the coroutine's name at the time of the panic.
	Name string
}

func (e *PoisonedError) Error() string {
	return fmt.Sprintf("coromachine: coroutine %q poisoned: %v", e.Name, e.Value)
}

// Unwrap returns the underlying error if the panic value is an error,
// enabling errors.Is/errors.As to see through the cause chain.
func (e *PoisonedError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
