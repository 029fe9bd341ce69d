// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import "fmt"

// AppendChecksum returns the wire bytes for a payload: the payload, its
// 2-digit hex checksum and the CR terminator.
func AppendChecksum(payload string) []byte {
	frame := make([]byte, 0, len(payload)+ChecksumWidth+1)
	frame = append(frame, payload...)
	frame = append(frame, ChecksumHex(payload)...)
	frame = append(frame, Terminator)
	return frame
}

// EncodeCommand produces the exact byte sequence to transmit for a command.
func EncodeCommand(c Command) ([]byte, error) {
	payload, err := c.Payload()
	if err != nil {
		return nil, err
	}
	return AppendChecksum(payload), nil
}

// MustEncodeCommand is EncodeCommand for commands known to be valid.
// Panics on encoding error.
func MustEncodeCommand(c Command) []byte {
	frame, err := EncodeCommand(c)
	if err != nil {
		panic(fmt.Sprintf("mjlink: encode error: %v", err))
	}
	return frame
}
