/*-------------------------------------------------------------------------
 *
 * channel.go
 *    Ordered, reliable, typed byte/array transport between two endpoints
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/com/channel.go
 *
 *-------------------------------------------------------------------------
 */

// Package com provides the Channel abstraction the coupling runtime sends
// mesh geometry, data arrays and control scalars over. Concrete wire
// transports (MPI point-to-point, in-process pipes) are collaborators
// behind this interface; only a length-prefixed net.Conn implementation
// and an in-memory implementation for tests ship here.
package com

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"net"
	"sync"

	"github.com/precice-go/precice/internal/cerr"
)

/* Channel is an ordered, reliable, typed byte/array transport between two named endpoints */
type Channel interface {
	/* SendDoubles sends a dense double-precision buffer, little-endian, length-prefixed */
	SendDoubles(values []float64) error
	/* ReceiveDoubles blocks until the next double-precision buffer is available */
	ReceiveDoubles() ([]float64, error)
	/* SendMessage sends an arbitrary JSON-serializable control message */
	SendMessage(v interface{}) error
	/* ReceiveMessage blocks for the next control message and unmarshals it into v */
	ReceiveMessage(v interface{}) error
	/* Close releases the underlying transport */
	Close() error
}

/* frameDoubles, frameMessage distinguish the two payload kinds on the wire */
const (
	frameDoubles byte = 1
	frameMessage byte = 2
)

/* ---------------------------------------------------------------------
 * TCP-backed Channel: one frame is [1-byte kind][8-byte length][payload]
 * --------------------------------------------------------------------- */

/* TCPChannel is a Channel implementation over a net.Conn stream socket */
type TCPChannel struct {
	conn net.Conn
	mu   sync.Mutex /* serializes writes; reads are expected single-reader */
}

/* NewTCPChannel wraps an already-connected net.Conn as a Channel */
func NewTCPChannel(conn net.Conn) *TCPChannel {
	return &TCPChannel{conn: conn}
}

/* DialTCP connects to addr and returns a Channel over the resulting socket */
func DialTCP(addr string) (*TCPChannel, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, cerr.TransportErrorf(err, "dial %s failed", addr)
	}
	return NewTCPChannel(conn), nil
}

/* ListenTCP accepts a single inbound connection on addr and returns a Channel */
func ListenTCP(addr string) (*TCPChannel, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, cerr.TransportErrorf(err, "listen %s failed", addr)
	}
	defer ln.Close()
	conn, err := ln.Accept()
	if err != nil {
		return nil, cerr.TransportErrorf(err, "accept on %s failed", addr)
	}
	return NewTCPChannel(conn), nil
}

func (c *TCPChannel) writeFrame(kind byte, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	header := make([]byte, 9)
	header[0] = kind
	binary.LittleEndian.PutUint64(header[1:], uint64(len(payload)))
	if _, err := c.conn.Write(header); err != nil {
		return cerr.TransportErrorf(err, "channel write header failed")
	}
	if len(payload) > 0 {
		if _, err := c.conn.Write(payload); err != nil {
			return cerr.TransportErrorf(err, "channel write payload failed")
		}
	}
	return nil
}

func (c *TCPChannel) readFrame(wantKind byte) ([]byte, error) {
	header := make([]byte, 9)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, cerr.TransportErrorf(err, "channel read header failed")
	}
	kind := header[0]
	if kind != wantKind {
		return nil, cerr.ProtocolError("channel frame kind mismatch: got %d, want %d", kind, wantKind)
	}
	n := binary.LittleEndian.Uint64(header[1:])
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			return nil, cerr.TransportErrorf(err, "channel read payload failed")
		}
	}
	return payload, nil
}

/* SendDoubles implements Channel */
func (c *TCPChannel) SendDoubles(values []float64) error {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], doubleBits(v))
	}
	return c.writeFrame(frameDoubles, buf)
}

/* ReceiveDoubles implements Channel */
func (c *TCPChannel) ReceiveDoubles() ([]float64, error) {
	payload, err := c.readFrame(frameDoubles)
	if err != nil {
		return nil, err
	}
	if len(payload)%8 != 0 {
		return nil, cerr.InternalError("received double buffer length %d not a multiple of 8", len(payload))
	}
	values := make([]float64, len(payload)/8)
	for i := range values {
		values[i] = doubleFromBits(binary.LittleEndian.Uint64(payload[i*8:]))
	}
	return values, nil
}

/* SendMessage implements Channel */
func (c *TCPChannel) SendMessage(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return cerr.InternalError("marshal control message: %v", err)
	}
	return c.writeFrame(frameMessage, payload)
}

/* ReceiveMessage implements Channel */
func (c *TCPChannel) ReceiveMessage(v interface{}) error {
	payload, err := c.readFrame(frameMessage)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return cerr.InternalError("unmarshal control message: %v", err)
	}
	return nil
}

/* Close implements Channel */
func (c *TCPChannel) Close() error {
	return c.conn.Close()
}

/* ---------------------------------------------------------------------
 * In-memory Channel pair, for tests and single-process multi-rank runs
 * --------------------------------------------------------------------- */

/* InMemoryPair returns two Channels, each end wired to the other via buffered queues */
func InMemoryPair() (Channel, Channel) {
	ab := make(chan frame, 64)
	ba := make(chan frame, 64)
	return &memChannel{send: ab, recv: ba}, &memChannel{send: ba, recv: ab}
}

type frame struct {
	kind    byte
	payload []byte
}

type memChannel struct {
	send   chan frame
	recv   chan frame
	closed bool
	mu     sync.Mutex
}

func (m *memChannel) SendDoubles(values []float64) error {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], doubleBits(v))
	}
	return m.send_(frame{kind: frameDoubles, payload: buf})
}

func (m *memChannel) ReceiveDoubles() ([]float64, error) {
	f, err := m.recv_(frameDoubles)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(f.payload)/8)
	for i := range values {
		values[i] = doubleFromBits(binary.LittleEndian.Uint64(f.payload[i*8:]))
	}
	return values, nil
}

func (m *memChannel) SendMessage(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return cerr.InternalError("marshal control message: %v", err)
	}
	return m.send_(frame{kind: frameMessage, payload: payload})
}

func (m *memChannel) ReceiveMessage(v interface{}) error {
	f, err := m.recv_(frameMessage)
	if err != nil {
		return err
	}
	return json.Unmarshal(f.payload, v)
}

func (m *memChannel) send_(f frame) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return cerr.TransportError("send on closed channel")
	}
	m.send <- f
	return nil
}

func (m *memChannel) recv_(wantKind byte) (frame, error) {
	f, ok := <-m.recv
	if !ok {
		return frame{}, cerr.TransportError("channel closed by peer")
	}
	if f.kind != wantKind {
		return frame{}, cerr.ProtocolError("channel frame kind mismatch: got %d, want %d", f.kind, wantKind)
	}
	return f, nil
}

func (m *memChannel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		close(m.send)
		m.closed = true
	}
	return nil
}

func doubleBits(f float64) uint64     { return math.Float64bits(f) }
func doubleFromBits(b uint64) float64 { return math.Float64frombits(b) }
