// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build darwin

package main

import "golang.org/x/sys/unix"

// timer is a kqueue EVFILT_TIMER that arm registers and disarm deletes
// again after each expiry, matching
// original_source/coroutines/main.c's NewTimer/ClearTimer exactly: the
// kqueue descriptor itself is pollable, so it is waited on directly via
// Coroutine.Wait.
type timer struct {
	kq int
}

func newTimer() (*timer, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &timer{kq: kq}, nil
}

func (t *timer) fd() int { return t.kq }

func (t *timer) arm(millis int) error {
	ev := unix.Kevent_t{
		Ident:  1,
		Filter: unix.EVFILT_TIMER,
		Flags:  unix.EV_ADD,
		Data:   int64(millis),
	}
	_, err := unix.Kevent(t.kq, []unix.Kevent_t{ev}, nil, nil)
	return err
}

func (t *timer) disarm() error {
	ev := unix.Kevent_t{
		Ident:  1,
		Filter: unix.EVFILT_TIMER,
		Flags:  unix.EV_DELETE,
	}
	_, err := unix.Kevent(t.kq, []unix.Kevent_t{ev}, nil, nil)
	return err
}

func (t *timer) close() error { return unix.Close(t.kq) }
