// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mjlink implements the MJ line protocol spoken by turbomolecular
// pump controllers over RS-232/RS-485.
//
// Every frame is printable ASCII terminated by a carriage return:
//
//	<header:2><station:2><function:2>[<code:2>]<checksum:2><CR>
//
// The checksum is the sum of the preceding character codes modulo 256,
// rendered as two uppercase hex digits. This package builds command frames,
// decodes reply lines against the command that produced them, and sequences
// request/response exchanges over a Transport.
package mjlink

// Protocol markers
const (
	Header     = "MJ"
	Terminator = '\r'
)

// Field widths in characters
const (
	HeaderWidth   = 2
	StationWidth  = 2
	FunctionWidth = 2
	CodeWidth     = 2
	StatusWidth   = 2
	ReservedWidth = 2
	ChecksumWidth = 2
)

// Station address limits
const (
	MinStation = 0
	MaxStation = 99
)

// Minimum reply lengths after trailing CR/whitespace has been trimmed.
//
// Status replies: header, station echo, status, reserved field, checksum.
// Parameter and timer replies: header, station, function and code echoes,
// a value field of any width, checksum.
const (
	statusPrefixWidth = HeaderWidth + StationWidth
	statusSuffixWidth = ReservedWidth + ChecksumWidth
	valuePrefixWidth  = HeaderWidth + StationWidth + FunctionWidth + CodeWidth

	MinStatusReplyLength = statusPrefixWidth + StatusWidth + statusSuffixWidth
	MinValueReplyLength  = valuePrefixWidth + ChecksumWidth
)

// CommandKind selects one of the protocol's request functions.
type CommandKind int

// Command kinds
const (
	StatusQuery CommandKind = iota
	ParameterQuery
	TimerQuery
)

// Function codes on the wire
const (
	FunctionStatus    = "CS"
	FunctionParameter = "PR"
	FunctionTimer     = "TR"
)

// FunctionCode returns the 2-character function code for the kind.
func (k CommandKind) FunctionCode() string {
	switch k {
	case StatusQuery:
		return FunctionStatus
	case ParameterQuery:
		return FunctionParameter
	case TimerQuery:
		return FunctionTimer
	default:
		return ""
	}
}

// TakesCode reports whether frames of this kind carry a parameter code.
func (k CommandKind) TakesCode() bool {
	return k == ParameterQuery || k == TimerQuery
}

func (k CommandKind) String() string {
	switch k {
	case StatusQuery:
		return "STATUS_QUERY"
	case ParameterQuery:
		return "PARAMETER_QUERY"
	case TimerQuery:
		return "TIMER_QUERY"
	default:
		return "UNKNOWN"
	}
}
