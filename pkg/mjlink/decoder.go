// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is a decoded status reply.
type Status struct {
	Code  StatusCode `yaml:"code" cbor:"1,keyasint"`
	Label string     `yaml:"label" cbor:"2,keyasint"`
}

func (s Status) String() string {
	return s.Label
}

// Reading is a decoded parameter or timer value.
type Reading struct {
	Descriptor ParameterDescriptor `yaml:"descriptor" cbor:"1,keyasint"`

	// Raw is the value field exactly as received
	Raw string `yaml:"raw" cbor:"2,keyasint"`

	// Value is Raw parsed as an integer and multiplied by the scale.
	// Zero for non-numeric descriptors.
	Value float64 `yaml:"value,omitempty" cbor:"3,keyasint,omitempty"`
}

// Numeric reports whether Value holds a scaled physical quantity.
func (r Reading) Numeric() bool {
	return r.Descriptor.Numeric()
}

// Text formats the value for display without the unit.
func (r Reading) Text() string {
	if !r.Numeric() {
		return r.Raw
	}
	return strconv.FormatFloat(r.Value, 'f', r.Descriptor.Precision(), 64)
}

func (r Reading) String() string {
	if r.Descriptor.Unit == "" {
		return fmt.Sprintf("%s: %s", r.Descriptor.Name, r.Text())
	}
	return fmt.Sprintf("%s: %s %s", r.Descriptor.Name, r.Text(), r.Descriptor.Unit)
}

// ScaleValue converts a received value field using a descriptor.
// Non-numeric descriptors keep the field verbatim.
func ScaleValue(value string, d ParameterDescriptor) (Reading, error) {
	r := Reading{Descriptor: d, Raw: value}
	if !d.Numeric() {
		return r, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %s value %q", ErrNumericParse, d.Name, value)
	}
	r.Value = float64(n) * d.Scale
	return r, nil
}

// ReplyFields are the named fixed-width fields of one reply line.
// Function and Code are empty for status replies; Reserved is empty for
// value replies.
type ReplyFields struct {
	Header   string
	Station  string
	Function string
	Code     string
	Body     string
	Reserved string
	Checksum string
}

// trimReply drops the CR terminator and any trailing whitespace.
func trimReply(line string) string {
	return strings.TrimRight(line, " \t\r\n")
}

// SplitStatusReply cuts a status reply into its fields.
func SplitStatusReply(line string) (ReplyFields, error) {
	text := trimReply(line)
	if len(text) < MinStatusReplyLength {
		return ReplyFields{}, fmt.Errorf("%w: %d characters, status reply needs %d",
			ErrShortFrame, len(text), MinStatusReplyLength)
	}
	end := len(text)
	return ReplyFields{
		Header:   text[0:HeaderWidth],
		Station:  text[HeaderWidth:statusPrefixWidth],
		Body:     text[statusPrefixWidth : end-statusSuffixWidth],
		Reserved: text[end-statusSuffixWidth : end-ChecksumWidth],
		Checksum: text[end-ChecksumWidth:],
	}, nil
}

// SplitValueReply cuts a parameter or timer reply into its fields.
func SplitValueReply(line string) (ReplyFields, error) {
	text := trimReply(line)
	if len(text) < MinValueReplyLength {
		return ReplyFields{}, fmt.Errorf("%w: %d characters, value reply needs %d",
			ErrShortFrame, len(text), MinValueReplyLength)
	}
	fnStart := HeaderWidth + StationWidth
	codeStart := fnStart + FunctionWidth
	end := len(text)
	return ReplyFields{
		Header:   text[0:HeaderWidth],
		Station:  text[HeaderWidth:fnStart],
		Function: text[fnStart:codeStart],
		Code:     text[codeStart:valuePrefixWidth],
		Body:     text[valuePrefixWidth : end-ChecksumWidth],
		Checksum: text[end-ChecksumWidth:],
	}, nil
}

// Decoder interprets reply lines against the command that elicited them.
// It keeps no state between calls and is safe for concurrent use.
type Decoder struct {
	// Strict verifies the reply checksum and the echoed header, station,
	// function and code. With Strict off every reply is trusted.
	Strict bool
}

// NewDecoder creates a decoder.
func NewDecoder(strict bool) *Decoder {
	return &Decoder{Strict: strict}
}

// DecodeStatus decodes the reply to a status query.
func (d *Decoder) DecodeStatus(line string, cmd Command) (Status, error) {
	fail := func(err error) (Status, error) {
		return Status{}, &FrameError{Op: "status", Line: line, Err: err}
	}

	f, err := SplitStatusReply(line)
	if err != nil {
		return fail(err)
	}
	if d.Strict {
		if err := VerifyChecksum(trimReply(line)); err != nil {
			return fail(err)
		}
		if err := checkEcho(f, cmd); err != nil {
			return fail(err)
		}
	}

	code := StatusCode(f.Body)
	label, err := StatusLabel(code)
	if err != nil {
		return fail(err)
	}
	return Status{Code: code, Label: label}, nil
}

// DecodeValue decodes the reply to a parameter or timer query.
func (d *Decoder) DecodeValue(line string, cmd Command) (Reading, error) {
	op := fmt.Sprintf("%s %s", strings.ToLower(cmd.Kind.FunctionCode()), cmd.Code)
	fail := func(err error) (Reading, error) {
		return Reading{}, &FrameError{Op: op, Line: line, Err: err}
	}

	desc, err := cmd.Descriptor()
	if err != nil {
		return fail(err)
	}
	f, err := SplitValueReply(line)
	if err != nil {
		return fail(err)
	}
	if d.Strict {
		if err := VerifyChecksum(trimReply(line)); err != nil {
			return fail(err)
		}
		if err := checkEcho(f, cmd); err != nil {
			return fail(err)
		}
	}

	r, err := ScaleValue(f.Body, desc)
	if err != nil {
		return fail(err)
	}
	return r, nil
}

// checkEcho compares the echoed prefix fields with the request.
func checkEcho(f ReplyFields, cmd Command) error {
	if f.Header != Header {
		return fmt.Errorf("%w: header %q, want %q", ErrEchoMismatch, f.Header, Header)
	}
	if want := fmt.Sprintf("%02d", cmd.Station); f.Station != want {
		return fmt.Errorf("%w: station %q, want %q", ErrEchoMismatch, f.Station, want)
	}
	if !cmd.Kind.TakesCode() {
		return nil
	}
	if want := cmd.Kind.FunctionCode(); f.Function != want {
		return fmt.Errorf("%w: function %q, want %q", ErrEchoMismatch, f.Function, want)
	}
	if f.Code != cmd.Code {
		return fmt.Errorf("%w: code %q, want %q", ErrEchoMismatch, f.Code, cmd.Code)
	}
	return nil
}
