// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import (
	"fmt"
	"strings"
)

// Checksum returns the sum of the character codes in text, modulo 256.
func Checksum(text string) byte {
	var sum byte
	for i := 0; i < len(text); i++ {
		sum += text[i]
	}
	return sum
}

// ChecksumHex renders the checksum of text as two uppercase hex digits.
// The wire carries these two printable characters, never the raw byte.
func ChecksumHex(text string) string {
	return fmt.Sprintf("%02X", Checksum(text))
}

// VerifyChecksum checks the trailing 2-character checksum of text against
// the checksum of everything before it.
func VerifyChecksum(text string) error {
	if len(text) < ChecksumWidth {
		return fmt.Errorf("%w: %d characters, no room for checksum", ErrShortFrame, len(text))
	}
	body := text[:len(text)-ChecksumWidth]
	got := text[len(text)-ChecksumWidth:]
	want := ChecksumHex(body)
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: received %q, calculated %q", ErrChecksumMismatch, got, want)
	}
	return nil
}
