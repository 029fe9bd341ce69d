// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import (
	"errors"
	"fmt"
	"strconv"
)

// Encoder errors (caller misuse)
var (
	ErrInvalidStation = errors.New("invalid station")
	ErrInvalidCode    = errors.New("invalid code")
)

// Decoder errors
var (
	ErrShortFrame        = errors.New("short frame")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrUnknownStatusCode = errors.New("unknown status code")
	ErrUnknownParameter  = errors.New("unknown parameter")
	ErrNumericParse      = errors.New("numeric parse error")
	ErrEchoMismatch      = errors.New("echo mismatch")
)

// ErrTimeout is returned by a Transport when no complete line arrives in time.
// Callers treat it as "no reply", not as a malformed frame.
var ErrTimeout = errors.New("read timeout")

// FrameError reports a reply line that could not be decoded.
type FrameError struct {
	// Op is the decode operation that failed ("status", "parameter 03", ...)
	Op string

	// Line is the received text as it was handed to the decoder
	Line string

	Err error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("decode %s: %v (reply %s)", e.Op, e.Err, strconv.Quote(e.Line))
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err came from decoding a reply rather than
// from the transport.
func IsDecodeError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}
