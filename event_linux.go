// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux

package coromachine

import "golang.org/x/sys/unix"

// eventfdDescriptor implements eventDescriptor over a Linux eventfd,
// grounded on the teacher's eventloop/wakeup_linux.go createWakeFd, and on
// the original's NewEventFd/TriggerEvent/ClearEvent
// (original_source/coroutines/coroutine.c) for the Linux branch.
type eventfdDescriptor struct {
	efd int
}

func newEventDescriptor() (eventDescriptor, error) {
	efd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &eventfdDescriptor{efd: efd}, nil
}

func (e *eventfdDescriptor) fd() int { return e.efd }

func (e *eventfdDescriptor) trigger() error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(e.efd, buf[:])
	if err != nil && err == unix.EAGAIN {
		// Counter is already non-zero (at or near its max); the
		// descriptor is already readable, which is all trigger
		// promises. Idempotent by construction.
		return nil
	}
	return err
}

func (e *eventfdDescriptor) clear() error {
	var buf [8]byte
	for {
		_, err := unix.Read(e.efd, buf[:])
		if err != nil {
			if err == unix.EAGAIN {
				return nil
			}
			return err
		}
	}
}

func (e *eventfdDescriptor) close() error {
	return unix.Close(e.efd)
}
