// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command pipedemo is a producer/consumer demonstration: one Coroutine
// writes twenty lines into a pipe, yielding between writes, while another
// reads them back out until EOF. Grounded directly on
// original_source/coroutines/main.c's Writer/Reader.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joeycumines/go-coromachine"
	"golang.org/x/sys/unix"
)

func main() {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		log.Fatalf("pipe: %v", err)
	}
	readFD, writeFD := fds[0], fds[1]
	if err := unix.SetNonblock(readFD, true); err != nil {
		log.Fatalf("setnonblock(read): %v", err)
	}
	if err := unix.SetNonblock(writeFD, true); err != nil {
		log.Fatalf("setnonblock(write): %v", err)
	}

	m, err := coromachine.New()
	if err != nil {
		log.Fatalf("new machine: %v", err)
	}
	defer m.Destruct()

	writer, err := coromachine.New(m, func(c *coromachine.Coroutine) {
		for i := 0; i < 20; i++ {
			line := fmt.Sprintf("FOO %d\n", i)
			if err := c.Wait(writeFD, coromachine.EventWrite); err != nil {
				return
			}
			if _, err := unix.Write(writeFD, []byte(line)); err != nil {
				return
			}
			c.Yield()
		}
		unix.Close(writeFD)
	}, coromachine.WithName("writer"))
	if err != nil {
		log.Fatalf("new writer: %v", err)
	}

	reader, err := coromachine.New(m, func(c *coromachine.Coroutine) {
		buf := make([]byte, 256)
		for {
			if err := c.Wait(readFD, coromachine.EventRead); err != nil {
				return
			}
			n, err := unix.Read(readFD, buf)
			if err != nil {
				return
			}
			if n == 0 {
				fmt.Println("EOF")
				break
			}
			fmt.Printf("Received: %s", buf[:n])
		}
		unix.Close(readFD)
	}, coromachine.WithName("reader"))
	if err != nil {
		log.Fatalf("new reader: %v", err)
	}

	if err := reader.Start(); err != nil {
		log.Fatalf("start reader: %v", err)
	}
	if err := writer.Start(); err != nil {
		log.Fatalf("start writer: %v", err)
	}

	if err := m.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
