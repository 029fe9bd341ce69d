// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatFrame renders a frame as escaped ASCII followed by a hex dump.
func FormatFrame(frame []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  ASCII: %s\n", strconv.Quote(string(frame)))
	b.WriteString("  Hex:   ")
	for i, c := range frame {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n         ")
		}
		fmt.Fprintf(&b, "%02X ", c)
	}
	b.WriteString("\n")
	return b.String()
}

// FormatStatus formats a status for display.
func FormatStatus(station int, s Status) string {
	return fmt.Sprintf("Station %02d: %s (%s)\n", station, s.Label, s.Code)
}

// FormatSnapshot formats a station's status and sweep as an aligned
// code/name/value/unit table in registry order. Failed entries show the
// error in place of a value.
func FormatSnapshot(snap Snapshot) string {
	var b strings.Builder
	if snap.Status != nil {
		b.WriteString(FormatStatus(snap.Station, *snap.Status))
	} else {
		fmt.Fprintf(&b, "Station %02d: status unknown\n", snap.Station)
	}

	if len(snap.Readings) == 0 && len(snap.Errors) == 0 {
		if snap.Status != nil && snap.Status.Code != StatusNormal {
			b.WriteString("  sweep skipped: station not in normal operation\n")
		}
		return b.String()
	}

	readings := make(map[string]Reading, len(snap.Readings))
	nameWidth := 0
	for _, r := range snap.Readings {
		readings[r.Descriptor.Name] = r
		nameWidth = max(nameWidth, len(r.Descriptor.Name))
	}
	for name := range snap.Errors {
		nameWidth = max(nameWidth, len(name))
	}

	for _, d := range Parameters() {
		if msg, ok := snap.Errors[d.Name]; ok {
			fmt.Fprintf(&b, "  %s  %-*s  ERROR: %s\n", d.Code, nameWidth, d.Name, msg)
			continue
		}
		r, ok := readings[d.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %s  %-*s  %s", d.Code, nameWidth, d.Name, r.Text())
		if d.Unit != "" {
			fmt.Fprintf(&b, " %s", d.Unit)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatScale formats a descriptor's scale for the registry listing.
func FormatScale(d ParameterDescriptor) string {
	if !d.Numeric() {
		return "raw"
	}
	return "x" + strconv.FormatFloat(d.Scale, 'g', -1, 64)
}
