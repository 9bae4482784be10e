// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coromachine

import (
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

var (
	defaultLoggerOnce sync.Once
	defaultLoggerInst *logiface.Logger[logiface.Event]
)

// defaultLogger lazily builds the package's default structured logger: a
// stumpy-backed logiface.Logger writing newline-delimited JSON to
// os.Stderr. Built lazily (rather than at package init) so that importing
// coromachine never opens a file descriptor a caller didn't ask for.
//
// stumpy.L.New is parameterized over stumpy's own concrete *stumpy.Event,
// so the logger is built in that concrete form first (mirroring
// logiface-stumpy's own event_test.go harness) and then narrowed to the
// package-wide *logiface.Logger[logiface.Event] handle via Logger(), the
// same widening logiface itself provides for exactly this purpose.
func defaultLogger() *logiface.Logger[logiface.Event] {
	defaultLoggerOnce.Do(func() {
		l := stumpy.L.New(
			stumpy.L.WithLevel(logiface.LevelInformational),
			stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		)
		defaultLoggerInst = l.Logger()
	})
	return defaultLoggerInst
}

// logCoroutineStarted logs the teacher-adjacent lifecycle trace
// "Coroutine <name> started", matching the original's
// printf("Coroutine %s started\n", ...) but as a structured event.
func logCoroutineStarted(logger *logiface.Logger[logiface.Event], id uint64, name string) {
	if logger == nil {
		return
	}
	if e := logger.Info(); e != nil {
		e.Uint64("coroutine_id", id).Str("name", name).Log("coroutine started")
	}
}

// logCoroutineEnded logs the teacher-adjacent "Coroutine <name> ended"
// lifecycle trace.
func logCoroutineEnded(logger *logiface.Logger[logiface.Event], id uint64, name string, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		if e := logger.Err(); e != nil {
			e.Err(err).Uint64("coroutine_id", id).Str("name", name).Log("coroutine ended with error")
		}
		return
	}
	if e := logger.Info(); e != nil {
		e.Uint64("coroutine_id", id).Str("name", name).Log("coroutine ended")
	}
}

// logPollError logs a non-fatal readiness-poll error (anything but EINTR,
// per spec.md §7, which is retried transparently and never logged).
func logPollError(logger *logiface.Logger[logiface.Event], err error) {
	if logger == nil {
		return
	}
	if e := logger.Warning(); e != nil {
		e.Err(err).Log("readiness poll failed, skipping tick")
	}
}
