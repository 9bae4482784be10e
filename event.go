// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coromachine

// eventDescriptor is the level-triggered, self-quiescing edge-maker keyed
// to a single Coroutine (or, for the Machine's interrupt descriptor, to the
// Machine itself), as specified by spec.md §4.3 "Event descriptor
// semantics":
//
//   - after trigger, fd() reports readable until clear is called;
//   - clear after trigger makes fd() not-readable until the next trigger;
//   - trigger is idempotent.
//
// Two platform backings satisfy this interface: event_linux.go (eventfd)
// and event_unix.go (self-pipe, used on darwin and other POSIX targets
// without eventfd). Both are grounded on the teacher's
// eventloop/wakeup_linux.go and eventloop/wakeup_darwin.go, which make the
// identical platform split for the identical reason (a cheap,
// poll()-compatible, cross-goroutine wakeup primitive).
type eventDescriptor interface {
	// fd returns the file descriptor to include in the readiness poll.
	fd() int
	// trigger marks the descriptor readable. Idempotent.
	trigger() error
	// clear drains the descriptor back to not-readable.
	clear() error
	// close releases the underlying file descriptor(s).
	close() error
}
