// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import (
	"strings"
	"testing"
	"time"
)

func TestFormatFrame(t *testing.T) {
	out := FormatFrame(MustEncodeCommand(NewParameterQuery(1, "03")))
	if !strings.Contains(out, `"MJ01PR03FD\r"`) {
		t.Errorf("FormatFrame() missing quoted ASCII:\n%s", out)
	}
	if !strings.Contains(out, "4D 4A 30 31 50 52 30 33 46 44 0D") {
		t.Errorf("FormatFrame() missing hex dump:\n%s", out)
	}
}

func TestFormatSnapshot(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		snap    Snapshot
		want    []string
		notWant []string
	}{
		{
			name: "sweep with a failed entry",
			snap: NewSnapshot(testSweep(), &Status{Code: StatusNormal, Label: "normal"}, at),
			want: []string{
				"Station 03: normal (NN)",
				"  01  model           TMP1003M\n",
				"  03  rotation_speed  30000 rpm\n",
				"  04  motor_current   ERROR:",
			},
			notWant: []string{"sweep skipped"},
		},
		{
			name: "status unknown",
			snap: NewSnapshot(testSweep(), nil, at),
			want: []string{"Station 03: status unknown", "30000 rpm"},
		},
		{
			name: "skipped sweep",
			snap: NewSnapshot(Sweep{Station: 2}, &Status{Code: StatusDeceleration, Label: "deceleration"}, at),
			want: []string{
				"Station 02: deceleration (NB)",
				"sweep skipped: station not in normal operation",
			},
			notWant: []string{"ERROR:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := FormatSnapshot(tt.snap)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("FormatSnapshot() missing %q:\n%s", want, out)
				}
			}
			for _, bad := range tt.notWant {
				if strings.Contains(out, bad) {
					t.Errorf("FormatSnapshot() unexpectedly contains %q:\n%s", bad, out)
				}
			}
		})
	}
}

func TestFormatSnapshot_RegistryOrder(t *testing.T) {
	out := FormatSnapshot(NewSnapshot(testSweep(), nil, time.Time{}))
	model := strings.Index(out, "model")
	speed := strings.Index(out, "rotation_speed")
	current := strings.Index(out, "motor_current")
	if !(model < speed && speed < current) {
		t.Errorf("rows out of registry order:\n%s", out)
	}
}

func TestFormatScale(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"01", "raw"},
		{"03", "x10"},
		{"04", "x0.1"},
	}
	for _, tt := range tests {
		d, _ := LookupParameter(tt.code)
		if got := FormatScale(d); got != tt.want {
			t.Errorf("FormatScale(%s) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
