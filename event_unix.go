// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build !linux

package coromachine

import "golang.org/x/sys/unix"

// pipeDescriptor implements eventDescriptor over a self-pipe, grounded on
// the teacher's eventloop/wakeup_darwin.go createWakeFd. Used on Darwin and
// any other POSIX target without eventfd.
//
// trigger and clear do not track a local "already pending" flag: for a
// Coroutine's own descriptor this package's single-execution-token
// discipline already guarantees trigger is never called concurrently with
// that same Coroutine's clear, so a plain write suffices; for the
// Machine's interrupt descriptor specifically, Stop may call trigger from
// a genuinely concurrent goroutine (e.g. a signal handler), which
// Machine.interruptMu serializes against the scheduler's own clear.
type pipeDescriptor struct {
	read, write int
}

func newEventDescriptor() (eventDescriptor, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, err
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, err
	}
	return &pipeDescriptor{read: fds[0], write: fds[1]}, nil
}

func (p *pipeDescriptor) fd() int { return p.read }

func (p *pipeDescriptor) trigger() error {
	_, err := unix.Write(p.write, []byte{1})
	if err != nil && err == unix.EAGAIN {
		// Pipe buffer is full of unread bytes: already readable, which
		// is all trigger promises. Idempotent by construction.
		return nil
	}
	return err
}

func (p *pipeDescriptor) clear() error {
	var buf [64]byte
	for {
		_, err := unix.Read(p.read, buf[:])
		if err != nil {
			if err == unix.EAGAIN {
				return nil
			}
			return err
		}
	}
}

func (p *pipeDescriptor) close() error {
	err1 := unix.Close(p.read)
	err2 := unix.Close(p.write)
	if err1 != nil {
		return err1
	}
	return err2
}
