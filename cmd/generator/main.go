// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command generator demonstrates value-rendezvous via Call/YieldValue: a
// Generator coroutine yields the integers 1..4, a Consumer coroutine Calls
// it in a loop and waits ~100ms on a platform timer descriptor between
// calls. Grounded directly on original_source/coroutines/main.c's
// Generator/Co1.
package main

import (
	"fmt"
	"log"

	"github.com/joeycumines/go-coromachine"
)

func main() {
	m, err := coromachine.New()
	if err != nil {
		log.Fatalf("new machine: %v", err)
	}
	defer m.Destruct()

	t, err := newTimer()
	if err != nil {
		log.Fatalf("new timer: %v", err)
	}
	defer t.close()

	generator, err := coromachine.New(m, func(c *coromachine.Coroutine) {
		for i := 1; i < 5; i++ {
			c.YieldValue(i)
		}
	}, coromachine.WithName("generator"))
	if err != nil {
		log.Fatalf("new generator: %v", err)
	}

	consumer, err := coromachine.New(m, func(c *coromachine.Coroutine) {
		for c.IsAlive(generator) {
			var result any
			c.Call(generator, &result)
			if !c.IsAlive(generator) {
				break
			}
			fmt.Printf("Value: %d\n", result.(int))
			if err := t.arm(100); err != nil {
				return
			}
			if err := c.Wait(t.fd(), coromachine.EventRead); err != nil {
				return
			}
			if err := t.disarm(); err != nil {
				return
			}
		}
	}, coromachine.WithName("consumer"))
	if err != nil {
		log.Fatalf("new consumer: %v", err)
	}

	if err := consumer.Start(); err != nil {
		log.Fatalf("start consumer: %v", err)
	}

	if err := m.Run(); err != nil {
		log.Fatalf("run: %v", err)
	}
}
