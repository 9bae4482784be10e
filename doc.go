// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package coromachine implements a cooperative, single-threaded, stackful
// coroutine runtime driven by non-blocking I/O readiness.
//
// Application code is written as ordinary straight-line functions that call
// Wait, Yield, YieldValue or Call on their own Coroutine handle; a Machine
// multiplexes any number of such functions onto one goroutine (standing in
// for the single OS thread of the source design), resuming each one only
// when either a file descriptor it is waiting on becomes ready, or a peer
// coroutine signals it via a rendezvous.
//
// A Coroutine's body runs on its own goroutine, but Machine enforces that at
// most one of them actually executes at a time: control is handed from
// Machine to a Coroutine and back again over an unbuffered channel, never
// concurrently. This gives every Coroutine a real, independent Go stack (the
// "stackful" part of the design) without any architecture-specific context
// switch, at the cost of one parked goroutine per live Coroutine.
//
// See Machine for the scheduler and Coroutine for the per-task state.
package coromachine
