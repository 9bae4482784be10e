// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command fileserver is a minimal, non-blocking HTTP/1.1 static file
// server: a Listener coroutine accepts connections and spawns one Server
// coroutine per client, all interleaved on a single Machine. Grounded
// directly on original_source/http/main.c's Listener/Server.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"net/textproto"
	"os"
	"strings"

	"github.com/joeycumines/go-coromachine"
	"golang.org/x/sys/unix"
)

var port = flag.Int("port", 8080, "listen port")

func main() {
	flag.Parse()

	m, err := coromachine.New()
	if err != nil {
		log.Fatalf("new machine: %v", err)
	}
	defer m.Destruct()

	listener, err := coromachine.New(m, listenTask, coromachine.WithName("listener"))
	if err != nil {
		log.Fatalf("new listener: %v", err)
	}
	if err := listener.Start(); err != nil {
		log.Fatalf("start listener: %v", err)
	}

	if err := m.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// listenTask accepts incoming connections and spawns one Server coroutine
// per client. No threading: all coroutines cooperate on the single Machine
// this Coroutine is attached to.
func listenTask(c *coromachine.Coroutine) {
	s, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		log.Printf("socket: %v", err)
		return
	}
	defer unix.Close(s)

	_ = unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)

	if err := unix.Bind(s, &unix.SockaddrInet4{Port: *port}); err != nil {
		log.Printf("bind: %v", err)
		return
	}
	if err := unix.Listen(s, 10); err != nil {
		log.Printf("listen: %v", err)
		return
	}

	for {
		if err := c.Wait(s, coromachine.EventRead); err != nil {
			return
		}
		nfd, _, err := unix.Accept4(s, unix.SOCK_NONBLOCK)
		if err != nil {
			if err == unix.EAGAIN {
				continue
			}
			log.Printf("accept: %v", err)
			return
		}

		server, err := coromachine.New(c.Machine(), serverTask,
			coromachine.WithUserData(nfd),
			coromachine.WithName(fmt.Sprintf("server-%d", nfd)))
		if err != nil {
			unix.Close(nfd)
			continue
		}
		if err := server.Start(); err != nil {
			unix.Close(nfd)
			continue
		}
	}
}

// serverTask handles one accepted connection: reads a request (request
// line + MIME headers, terminated by a blank line), and for a GET request
// serves the named file or a 404; any other method gets a 400.
func serverTask(c *coromachine.Coroutine) {
	fd := c.UserData().(int)
	defer unix.Close(fd)

	var buf bytes.Buffer
	tmp := make([]byte, 64)
	for {
		if err := c.Wait(fd, coromachine.EventRead); err != nil {
			return
		}
		n, err := unix.Read(fd, tmp)
		if err != nil {
			return
		}
		if n == 0 {
			return
		}
		buf.Write(tmp[:n])
		if bytes.Contains(buf.Bytes(), []byte("\r\n\r\n")) {
			break
		}
	}

	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(buf.Bytes())))
	requestLine, err := tp.ReadLine()
	if err != nil {
		return
	}
	parts := strings.SplitN(requestLine, " ", 3)
	if len(parts) != 3 {
		return
	}
	method, filename, protocol := parts[0], parts[1], parts[2]
	// Headers are parsed, matching the original's mime_headers map, but
	// this minimal demo (like the original) never consults them.
	_, _ = tp.ReadMIMEHeader()

	if method != "GET" {
		sendToClient(c, fd, fmt.Sprintf("%s 400 Invalid request method\r\n\r\n", protocol))
		return
	}

	filename = strings.TrimPrefix(filename, "/")
	f, err := os.Open(filename)
	if err != nil {
		sendToClient(c, fd, fmt.Sprintf("%s 404 Not Found\r\n\r\n", protocol))
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		sendToClient(c, fd, fmt.Sprintf("%s 404 Not Found\r\n\r\n", protocol))
		return
	}

	sendToClient(c, fd, fmt.Sprintf(
		"%s 200 OK\r\nContent-type: text/html\r\nContent-length: %d\r\n\r\n",
		protocol, st.Size()))

	rbuf := make([]byte, 1024)
	for {
		if err := c.Wait(int(f.Fd()), coromachine.EventRead); err != nil {
			return
		}
		n, err := f.Read(rbuf)
		if n > 0 {
			sendToClient(c, fd, string(rbuf[:n]))
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return
		}
		if n == 0 {
			break
		}
	}
}

// sendToClient writes data to fd, waiting for POLLOUT readiness between
// partial writes, matching the original's SendToClient.
func sendToClient(c *coromachine.Coroutine, fd int, data string) {
	b := []byte(data)
	for len(b) > 0 {
		if err := c.Wait(fd, coromachine.EventWrite); err != nil {
			return
		}
		n, err := unix.Write(fd, b)
		if err != nil || n == 0 {
			return
		}
		b = b[n:]
	}
}
