// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux

package main

import "golang.org/x/sys/unix"

// timer is a one-shot timerfd, the Linux-native equivalent of the original
// demo's kqueue EVFILT_TIMER (original_source/coroutines/main.c's
// NewTimer/ClearTimer). A timerfd is itself a pollable descriptor, so it
// can be waited on directly via Coroutine.Wait.
type timer struct {
	timerFD int
}

func newTimer() (*timer, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &timer{timerFD: fd}, nil
}

func (t *timer) fd() int { return t.timerFD }

// arm sets the timer to fire once, millis milliseconds from now.
func (t *timer) arm(millis int) error {
	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(int64(millis) * int64(1e6)),
	}
	return unix.TimerfdSettime(t.timerFD, 0, &spec, nil)
}

// disarm drains the expiration counter so the descriptor stops reporting
// readable, standing in for the original's kevent EV_DELETE.
func (t *timer) disarm() error {
	var buf [8]byte
	_, err := unix.Read(t.timerFD, buf[:])
	if err != nil && err != unix.EAGAIN {
		return err
	}
	return nil
}

func (t *timer) close() error { return unix.Close(t.timerFD) }
