// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coromachine

import "github.com/joeycumines/logiface"

const defaultStackSize = 8192

// machineOptions holds configuration applied when constructing a Machine.
type machineOptions struct {
	logger *logiface.Logger[logiface.Event]
}

// MachineOption configures a Machine at construction time.
type MachineOption interface {
	applyMachine(*machineOptions)
}

type machineOptionFunc func(*machineOptions)

func (f machineOptionFunc) applyMachine(o *machineOptions) { f(o) }

// WithLogger sets the structured logger a Machine uses for lifecycle
// tracing (coroutine start/end, poll errors, panics). The default logger
// is a stumpy-backed logiface.Logger writing JSON to os.Stderr at
// LevelInformational; pass nil, or a logger built with
// logiface.WithLevel(logiface.LevelDisabled), to silence it.
func WithLogger(logger *logiface.Logger[logiface.Event]) MachineOption {
	return machineOptionFunc(func(o *machineOptions) {
		o.logger = logger
	})
}

func resolveMachineOptions(opts []MachineOption) *machineOptions {
	cfg := &machineOptions{logger: defaultLogger()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyMachine(cfg)
	}
	return cfg
}

// coroutineOptions holds configuration applied when constructing a
// Coroutine.
type coroutineOptions struct {
	stackSize int
	userData  any
	name      string
}

// CoroutineOption configures a Coroutine at construction time.
type CoroutineOption interface {
	applyCoroutine(*coroutineOptions)
}

type coroutineOptionFunc func(*coroutineOptions)

func (f coroutineOptionFunc) applyCoroutine(o *coroutineOptions) { f(o) }

// WithStackSize sets the nominal stack size recorded for a Coroutine.
//
// The Go realization of a Coroutine is a goroutine, whose stack grows and
// shrinks dynamically under the Go runtime's management (spec.md's
// Non-goals exclude "dynamic stack growth" as a *feature this core
// implements*, not as a property forbidden of the host language; Go
// goroutines always grow their stacks on demand, and that is simply what a
// goroutine is). This option is retained because it is part of spec.md's
// §6 configuration surface and is exposed via StackSize for parity with
// the source design, but it does not preallocate memory the way the
// original's malloc(stack_size) does.
func WithStackSize(size int) CoroutineOption {
	return coroutineOptionFunc(func(o *coroutineOptions) {
		if size > 0 {
			o.stackSize = size
		}
	})
}

// WithUserData attaches an opaque value to a Coroutine, retrievable via
// UserData. Ownership transfers to the Coroutine at creation, per
// spec.md §9.
func WithUserData(data any) CoroutineOption {
	return coroutineOptionFunc(func(o *coroutineOptions) {
		o.userData = data
	})
}

// WithName overrides the default "co-<id>" name assigned to a Coroutine.
func WithName(name string) CoroutineOption {
	return coroutineOptionFunc(func(o *coroutineOptions) {
		o.name = name
	})
}

func resolveCoroutineOptions(opts []CoroutineOption) *coroutineOptions {
	cfg := &coroutineOptions{stackSize: defaultStackSize}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyCoroutine(cfg)
	}
	return cfg
}
