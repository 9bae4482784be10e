// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coromachine

import "golang.org/x/sys/unix"

// IOEvents is a bitmask of the platform's readiness flags, passed to Wait.
// Wait does not report which of them fired. The bit values mirror the
// POLLIN/POLLOUT/POLLERR/POLLHUP flags poll(2) uses, exactly as the
// original's CoroutineWait(c, fd, event_mask) takes a raw poll event mask
// (original_source/coroutines/coroutine.h).
type IOEvents int16

const (
	// EventRead is set when the descriptor is ready for reading.
	EventRead IOEvents = IOEvents(unix.POLLIN)
	// EventWrite is set when the descriptor is ready for writing.
	EventWrite IOEvents = IOEvents(unix.POLLOUT)
	// EventError is set on an error condition.
	EventError IOEvents = IOEvents(unix.POLLERR)
	// EventHangup is set when the peer has closed its end.
	EventHangup IOEvents = IOEvents(unix.POLLHUP)
)

// poller wraps a single poll(2) call over a freshly built descriptor slate,
// matching spec.md §4.3's "GetRunnable... constructs and blocks on a single
// readiness-poll" precisely: the teacher's eventloop package instead keeps
// a persistent epoll/kqueue registration (eventloop/poller_linux.go,
// poller_darwin.go) because its Loop runs continuously across many ticks
// with a largely-stable fd set; this core rebuilds the descriptor list
// every tick regardless (it must, since the scheduler is already walking
// the live set once per tick to build the pollfd for spec.md's other
// bookkeeping), so a direct unix.Poll call is the correct-weight primitive.
// golang.org/x/sys/unix is the same dependency family the teacher's pollers
// are built on.
type poller struct{}

// poll blocks until at least one of fds is ready or timeoutMs elapses (-1
// blocks indefinitely). A call interrupted by a signal (EINTR) is retried
// transparently, per spec.md §7, so a signal alone does not end it.
func (poller) poll(fds []unix.PollFd, timeoutMs int) (int, error) {
	for {
		n, err := unix.Poll(fds, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}
