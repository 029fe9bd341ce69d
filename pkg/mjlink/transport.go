// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// MaxLineLength bounds one received line, terminator included.
const MaxLineLength = 128

// ErrLineTooLong is returned when no terminator arrives within MaxLineLength bytes.
var ErrLineTooLong = errors.New("line too long")

// Transport carries one request/response exchange at a time.
type Transport interface {
	// Write transmits a complete frame.
	Write(p []byte) (int, error)

	// ReadLine blocks until a terminated line arrives or the timeout
	// expires, in which case it returns ErrTimeout and whatever partial
	// text was received. The partial text stays buffered and starts the
	// next line.
	ReadLine(timeout time.Duration) (string, error)
}

// Port is a byte stream with a settable read timeout. go.bug.st/serial
// ports satisfy it directly. A Read that times out returns 0, nil.
type Port interface {
	io.ReadWriter
	SetReadTimeout(t time.Duration) error
}

// inputResetter is implemented by transports and ports that can discard
// stale input before a new request is sent.
type inputResetter interface {
	ResetInputBuffer() error
}

// StreamTransport adapts a Port to the line-oriented Transport.
type StreamTransport struct {
	port    Port
	buf     []byte
	pending []byte
}

// NewStreamTransport wraps a port.
func NewStreamTransport(port Port) *StreamTransport {
	return &StreamTransport{
		port: port,
		buf:  make([]byte, 64),
	}
}

// Write writes the whole frame, looping over short writes.
func (t *StreamTransport) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := t.port.Write(p[written:])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// ReadLine returns the next CR- or LF-terminated line, terminator included.
// Bytes received after the terminator are kept for the next call and LF
// bytes at the start of a line (the tail of a CR LF pair) are skipped.
// A line cut short by the timeout or a read error is kept as well, so a
// reply that straddles two calls comes back whole.
func (t *StreamTransport) ReadLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	line := make([]byte, 0, 32)

	for {
		for len(t.pending) > 0 {
			b := t.pending[0]
			t.pending = t.pending[1:]
			if len(line) == 0 && b == '\n' {
				continue
			}
			line = append(line, b)
			if b == '\r' || b == '\n' {
				return string(line), nil
			}
			if len(line) >= MaxLineLength {
				return string(line), fmt.Errorf("%w: %d bytes without terminator", ErrLineTooLong, len(line))
			}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.unread(line)
			return string(line), ErrTimeout
		}
		if err := t.port.SetReadTimeout(remaining); err != nil {
			t.unread(line)
			return string(line), fmt.Errorf("set read timeout: %w", err)
		}

		n, err := t.port.Read(t.buf)
		if n > 0 {
			t.pending = append(t.pending, t.buf[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) && n > 0 {
				continue
			}
			t.unread(line)
			return string(line), err
		}
	}
}

// unread puts an unterminated line back in front of the pending bytes.
func (t *StreamTransport) unread(line []byte) {
	if len(line) == 0 {
		return
	}
	t.pending = append(line, t.pending...)
}

// ResetInputBuffer drops buffered input, including a kept partial line
// and any bytes the port itself still holds if it supports flushing.
func (t *StreamTransport) ResetInputBuffer() error {
	t.pending = t.pending[:0]
	if r, ok := t.port.(inputResetter); ok {
		return r.ResetInputBuffer()
	}
	return nil
}
