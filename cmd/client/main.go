// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command client is a parallel HTTP/1.1 client: N coroutines each connect,
// issue a GET, and stream the response to stdout, all interleaved on a
// single Machine. Grounded directly on original_source/client/main.c's
// Client.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http/httputil"
	"net/textproto"
	"os"
	"strconv"
	"strings"

	"github.com/joeycumines/go-coromachine"
	"golang.org/x/sys/unix"
)

var jobs = flag.Int("j", 1, "parallel jobs")

type target struct {
	addr [4]byte
	host string
	path string
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: client -j <jobs> <host> <path>")
		os.Exit(1)
	}
	host, path := args[0], args[1]

	ips, err := net.DefaultResolver.LookupIPAddr(context.Background(), host)
	if err != nil || len(ips) == 0 {
		log.Fatalf("unknown host %s", host)
	}
	var addr [4]byte
	found := false
	for _, ip := range ips {
		if v4 := ip.IP.To4(); v4 != nil {
			copy(addr[:], v4)
			found = true
			break
		}
	}
	if !found {
		log.Fatalf("no IPv4 address for %s", host)
	}
	t := target{addr: addr, host: host, path: path}

	m, err := coromachine.New()
	if err != nil {
		log.Fatalf("new machine: %v", err)
	}
	defer m.Destruct()

	for i := 0; i < *jobs; i++ {
		client, err := coromachine.New(m, clientTask,
			coromachine.WithUserData(t),
			coromachine.WithName(fmt.Sprintf("client-%d", i)))
		if err != nil {
			log.Fatalf("new client: %v", err)
		}
		if err := client.Start(); err != nil {
			log.Fatalf("start client: %v", err)
		}
	}

	if err := m.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func clientTask(c *coromachine.Coroutine) {
	t := c.UserData().(target)

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		log.Printf("socket: %v", err)
		return
	}
	defer unix.Close(fd)

	err = unix.Connect(fd, &unix.SockaddrInet4{Port: 80, Addr: t.addr})
	if err != nil && err != unix.EINPROGRESS {
		log.Printf("connect: %v", err)
		return
	}
	if err := c.Wait(fd, coromachine.EventWrite); err != nil {
		return
	}
	if errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR); err == nil && errno != 0 {
		log.Printf("connect: %v", unix.Errno(errno))
		return
	}

	request := fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\n\r\n", t.path, t.host)
	if !sendToServer(c, fd, request) {
		log.Printf("failed to send request to %s", t.host)
		return
	}

	readResponse(c, fd)
}

// sendToServer writes data to fd, waiting for POLLOUT readiness between
// partial writes, matching the original's SendToServer.
func sendToServer(c *coromachine.Coroutine, fd int, data string) bool {
	b := []byte(data)
	for len(b) > 0 {
		if err := c.Wait(fd, coromachine.EventWrite); err != nil {
			return false
		}
		n, err := unix.Write(fd, b)
		if err != nil || n == 0 {
			return false
		}
		b = b[n:]
	}
	return true
}

// fdReader adapts a coroutine-scheduled, non-blocking fd into an io.Reader,
// so bufio/textproto/httputil can be reused unmodified against it: each
// Read call suspends the Coroutine in Wait until the fd is readable, then
// performs exactly one unix.Read.
type fdReader struct {
	c  *coromachine.Coroutine
	fd int
}

func (r *fdReader) Read(p []byte) (int, error) {
	if err := r.c.Wait(r.fd, coromachine.EventRead); err != nil {
		return 0, err
	}
	n, err := unix.Read(r.fd, p)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func readResponse(c *coromachine.Coroutine, fd int) {
	br := bufio.NewReader(&fdReader{c: c, fd: fd})
	tp := textproto.NewReader(br)

	if _, err := tp.ReadLine(); err != nil {
		return
	}
	hdr, err := tp.ReadMIMEHeader()
	if err != nil && err != io.EOF {
		return
	}

	switch {
	case strings.EqualFold(hdr.Get("Transfer-Encoding"), "chunked"):
		io.Copy(os.Stdout, httputil.NewChunkedReader(br))
	case hdr.Get("Content-Length") != "":
		if n, err := strconv.Atoi(hdr.Get("Content-Length")); err == nil {
			io.CopyN(os.Stdout, br, int64(n))
		}
	default:
		io.Copy(os.Stdout, br)
	}
	fmt.Println("done")
}
