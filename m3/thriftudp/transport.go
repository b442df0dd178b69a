// Copyright (c) 2021 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package thriftudp implements a duplex UDP transport for Thrift
// payloads: a write-only client side that buffers writes until an
// explicit Flush, and a read-only server side that assembles inbound
// datagrams into a FIFO byte buffer for a decoder to consume.
package thriftudp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/pkg/errors"
)

// MaxUDPPacketSize is the largest payload this transport will ever put on
// the wire in a single datagram; UDP payloads above this are rejected
// outright rather than fragmented, matching the production reporter's
// "fail loud, drop data" behavior for an oversized flush.
const MaxUDPPacketSize = 65507

var (
	// ErrTransportClosed is returned by any operation attempted after
	// Close.
	ErrTransportClosed = errors.New("thriftudp: transport is closed")

	// ErrFlushInProgress is returned by a concurrent call to Flush while
	// one is already outstanding; only one flush may be in flight.
	ErrFlushInProgress = errors.New("thriftudp: flush already in progress")
)

// ErrPacketTooLarge is returned by Flush when the buffered payload
// exceeds MaxUDPPacketSize; the buffer is cleared regardless so the
// transport can continue to be used for subsequent writes.
type ErrPacketTooLarge struct {
	Size int
}

func (e *ErrPacketTooLarge) Error() string {
	return fmt.Sprintf("thriftudp: packet of %d bytes exceeds max UDP packet size %d", e.Size, MaxUDPPacketSize)
}

// Client is a write-only UDP transport. Writes buffer in memory; Flush
// sends the buffered bytes as a single datagram and resets the buffer.
// Only one Flush may be outstanding at a time.
type Client struct {
	conn *net.UDPConn

	mu       sync.Mutex
	buf      []byte
	flushing bool
	closed   bool
}

// NewClient opens a UDP socket connected to addr for writing.
func NewClient(addr string) (*Client, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "thriftudp: resolve client address")
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, errors.Wrap(err, "thriftudp: dial client socket")
	}
	return &Client{conn: conn}, nil
}

// Write appends p to the client's write buffer; no I/O happens until
// Flush.
func (c *Client) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrTransportClosed
	}
	c.buf = append(c.buf, p...)
	return len(p), nil
}

// Flush sends the buffered bytes as a single UDP datagram and resets the
// buffer. If the buffer is empty, Flush is a no-op. If the buffer exceeds
// MaxUDPPacketSize, the buffer is cleared and an *ErrPacketTooLarge is
// returned without attempting to send.
func (c *Client) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrTransportClosed
	}
	if c.flushing {
		c.mu.Unlock()
		return ErrFlushInProgress
	}
	if len(c.buf) == 0 {
		c.mu.Unlock()
		return nil
	}
	if len(c.buf) > MaxUDPPacketSize {
		size := len(c.buf)
		c.buf = c.buf[:0]
		c.mu.Unlock()
		return &ErrPacketTooLarge{Size: size}
	}

	c.flushing = true
	payload := c.buf
	c.buf = nil
	c.mu.Unlock()

	_, err := c.conn.Write(payload)

	c.mu.Lock()
	c.flushing = false
	c.mu.Unlock()

	if err != nil {
		return errors.Wrap(err, "thriftudp: send datagram")
	}
	return nil
}

// Read is unsupported; Client is write-only.
func (c *Client) Read(p []byte) (int, error) {
	return 0, errors.New("thriftudp: client transport is write-only")
}

// Open is a no-op; the socket is opened by NewClient.
func (c *Client) Open() error { return nil }

// IsOpen reports whether the client is usable.
func (c *Client) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Close releases the underlying socket. Close is not idempotent-safe to
// call concurrently with Flush; callers must stop writing before closing.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

// RemainingBytes is unknown for a UDP socket.
func (c *Client) RemainingBytes() uint64 { return 0 }

// LocalAddr returns the local address the client's socket is bound to.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Server is a read-only UDP transport: it binds a socket, receives
// datagrams on a background goroutine, and appends each to a FIFO buffer
// that Read drains from.
type Server struct {
	conn *net.UDPConn

	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
	done   chan struct{}
}

// NewServer binds a UDP socket on addr (host:port, port 0 for an
// ephemeral port) for reading.
func NewServer(addr string) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "thriftudp: resolve server address")
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, errors.Wrap(err, "thriftudp: bind server socket")
	}
	s := &Server{conn: conn, done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.readLoop()
	return s, nil
}

func (s *Server) readLoop() {
	readBuf := make([]byte, MaxUDPPacketSize)
	for {
		n, _, err := s.conn.ReadFromUDP(readBuf)
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.buf = append(s.buf, readBuf[:n]...)
		s.cond.Signal()
		s.mu.Unlock()
	}
}

// Read drains up to len(p) bytes FIFO from datagrams received so far. It
// blocks on a condition until the main buffer is non-empty or the
// transport is closed, mirroring read_virt's wait-for-receive contract
// rather than requiring callers to poll.
func (s *Server) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.buf) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.buf) == 0 && s.closed {
		return 0, ErrTransportClosed
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

// Write is unsupported; Server is read-only.
func (s *Server) Write(p []byte) (int, error) {
	return 0, errors.New("thriftudp: server transport is read-only")
}

// Open is a no-op; the socket is opened by NewServer.
func (s *Server) Open() error { return nil }

// IsOpen reports whether the server is usable.
func (s *Server) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Flush is a no-op; Server never buffers outbound data.
func (s *Server) Flush(ctx context.Context) error { return nil }

// Close stops the read loop and releases the socket.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	return s.conn.Close()
}

// RemainingBytes returns the number of bytes currently buffered and not
// yet consumed by Read.
func (s *Server) RemainingBytes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.buf))
}

// LocalAddr returns the local address the server's socket is bound to,
// letting tests discover the ephemeral port chosen by the kernel.
func (s *Server) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

var (
	_ thrift.TTransport = (*Client)(nil)
	_ thrift.TTransport = (*Server)(nil)
)
