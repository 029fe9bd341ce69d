// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import (
	"errors"
	"strconv"
	"testing"
)

func TestDecodeStatus(t *testing.T) {
	for _, strict := range []bool{false, true} {
		d := NewDecoder(strict)
		for _, code := range StatusCodes() {
			want, _ := StatusLabel(code)
			line := statusReply(1, code)

			got, err := d.DecodeStatus(line, NewStatusQuery(1))
			if err != nil {
				t.Errorf("strict=%v code=%s: DecodeStatus failed: %v", strict, code, err)
				continue
			}
			if got.Code != code || got.Label != want {
				t.Errorf("strict=%v: DecodeStatus(%q) = %+v, want %s/%s", strict, line, got, code, want)
			}
		}
	}
}

func TestDecodeStatus_TrailingWhitespace(t *testing.T) {
	d := NewDecoder(true)
	base := statusReply(3, StatusNormal)
	for _, line := range []string{base, base + "\n", base[:len(base)-1], base + "  \r\n"} {
		got, err := d.DecodeStatus(line, NewStatusQuery(3))
		if err != nil {
			t.Errorf("DecodeStatus(%q) failed: %v", line, err)
			continue
		}
		if got.Label != "normal" {
			t.Errorf("DecodeStatus(%q) label = %q, want normal", line, got.Label)
		}
	}
}

func TestDecodeStatus_Errors(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		line    string
		wantErr error
	}{
		{
			name:    "empty",
			line:    "",
			wantErr: ErrShortFrame,
		},
		{
			name:    "truncated",
			line:    "MJ01NN\r",
			wantErr: ErrShortFrame,
		},
		{
			name:    "unlisted status",
			line:    statusReply(1, "XX"),
			wantErr: ErrUnknownStatusCode,
		},
		{
			name:    "bad checksum ignored when lenient",
			line:    "MJ01NN0000\r",
			wantErr: nil,
		},
		{
			name:    "bad checksum rejected when strict",
			strict:  true,
			line:    "MJ01NN0000\r",
			wantErr: ErrChecksumMismatch,
		},
		{
			name:    "wrong station echo when strict",
			strict:  true,
			line:    statusReply(2, StatusNormal),
			wantErr: ErrEchoMismatch,
		},
		{
			name:    "over-long status field",
			line:    string(AppendChecksum("MJ01NNN00")),
			wantErr: ErrUnknownStatusCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(tt.strict).DecodeStatus(tt.line, NewStatusQuery(1))
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			var fe *FrameError
			if !errors.As(err, &fe) {
				t.Fatalf("error %T is not a *FrameError", err)
			}
			if fe.Line != tt.line {
				t.Errorf("FrameError.Line = %q, want %q", fe.Line, tt.line)
			}
		})
	}
}

func TestDecodeValue_RoundTrip(t *testing.T) {
	const raw = 1234
	for _, desc := range Parameters() {
		t.Run(desc.Name, func(t *testing.T) {
			value := strconv.Itoa(raw)
			if !desc.Numeric() {
				value = "TMP1003M"
			}
			cmd := NewParameterQuery(5, desc.Code)
			line := valueReply(5, FunctionParameter, desc.Code, value)

			r, err := NewDecoder(true).DecodeValue(line, cmd)
			if err != nil {
				t.Fatalf("DecodeValue(%q) failed: %v", line, err)
			}
			if r.Descriptor != desc {
				t.Errorf("descriptor = %+v, want %+v", r.Descriptor, desc)
			}
			if desc.Numeric() {
				if want := float64(raw) * desc.Scale; r.Value != want {
					t.Errorf("value = %v, want %v", r.Value, want)
				}
			} else if r.Raw != value || r.Value != 0 {
				t.Errorf("raw = %q value = %v, want %q and 0", r.Raw, r.Value, value)
			}
		})
	}
}

func TestDecodeValue_Scaling(t *testing.T) {
	tests := []struct {
		code     string
		value    string
		wantText string
	}{
		{"03", "3000", "30000"},
		{"04", "12", "1.2"},
		{"04", "0", "0.0"},
		{"05", "45", "45"},
		{"05", "-3", "-3"},
		{"11", " 90", "900"},
	}

	for _, tt := range tests {
		line := valueReply(1, FunctionParameter, tt.code, tt.value)
		r, err := NewDecoder(true).DecodeValue(line, NewParameterQuery(1, tt.code))
		if err != nil {
			t.Errorf("code %s value %q: %v", tt.code, tt.value, err)
			continue
		}
		if r.Text() != tt.wantText {
			t.Errorf("code %s value %q: Text() = %q, want %q", tt.code, tt.value, r.Text(), tt.wantText)
		}
	}
}

func TestDecodeValue_Timer(t *testing.T) {
	line := valueReply(1, FunctionTimer, "01", "012345")
	r, err := NewDecoder(true).DecodeValue(line, NewTimerQuery(1, "01"))
	if err != nil {
		t.Fatalf("DecodeValue failed: %v", err)
	}
	if r.Raw != "012345" {
		t.Errorf("timer raw = %q, want 012345", r.Raw)
	}
}

func TestDecodeValue_Errors(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		cmd     Command
		line    string
		wantErr error
	}{
		{
			name:    "short frame",
			cmd:     NewParameterQuery(1, "03"),
			line:    "MJ01PR0\r",
			wantErr: ErrShortFrame,
		},
		{
			name:    "non-numeric value",
			cmd:     NewParameterQuery(1, "03"),
			line:    valueReply(1, FunctionParameter, "03", "12a"),
			wantErr: ErrNumericParse,
		},
		{
			name:    "empty numeric value",
			cmd:     NewParameterQuery(1, "03"),
			line:    valueReply(1, FunctionParameter, "03", ""),
			wantErr: ErrNumericParse,
		},
		{
			name:    "unregistered parameter",
			cmd:     NewParameterQuery(1, "02"),
			line:    valueReply(1, FunctionParameter, "02", "1"),
			wantErr: ErrUnknownParameter,
		},
		{
			name:    "checksum mismatch",
			strict:  true,
			cmd:     NewParameterQuery(1, "03"),
			line:    "MJ01PR033000C1\r",
			wantErr: ErrChecksumMismatch,
		},
		{
			name:    "code echo mismatch",
			strict:  true,
			cmd:     NewParameterQuery(1, "03"),
			line:    valueReply(1, FunctionParameter, "04", "3000"),
			wantErr: ErrEchoMismatch,
		},
		{
			name:    "function echo mismatch",
			strict:  true,
			cmd:     NewParameterQuery(1, "01"),
			line:    valueReply(1, FunctionTimer, "01", "x"),
			wantErr: ErrEchoMismatch,
		},
		{
			name:    "header echo mismatch",
			strict:  true,
			cmd:     NewParameterQuery(1, "03"),
			line:    string(AppendChecksum("XJ01PR033000")),
			wantErr: ErrEchoMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(tt.strict).DecodeValue(tt.line, tt.cmd)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeValue(%q) error = %v, want %v", tt.line, err, tt.wantErr)
			}
			if !IsDecodeError(err) {
				t.Errorf("expected a decode error, got %T", err)
			}
		})
	}
}

func TestDecodeValue_LenientTrustsReply(t *testing.T) {
	// Wrong checksum and wrong code echo are accepted as-is
	r, err := NewDecoder(false).DecodeValue("MJ01PR043000C1\r", NewParameterQuery(1, "03"))
	if err != nil {
		t.Fatalf("DecodeValue failed: %v", err)
	}
	if r.Value != 30000 {
		t.Errorf("value = %v, want 30000", r.Value)
	}
}

func TestSplitValueReply(t *testing.T) {
	f, err := SplitValueReply("MJ01PR033000C0\r")
	if err != nil {
		t.Fatalf("SplitValueReply failed: %v", err)
	}
	want := ReplyFields{Header: "MJ", Station: "01", Function: "PR", Code: "03", Body: "3000", Checksum: "C0"}
	if f != want {
		t.Errorf("SplitValueReply() = %+v, want %+v", f, want)
	}
}

func TestSplitStatusReply(t *testing.T) {
	f, err := SplitStatusReply("MJ01NN00F4\r")
	if err != nil {
		t.Fatalf("SplitStatusReply failed: %v", err)
	}
	want := ReplyFields{Header: "MJ", Station: "01", Body: "NN", Reserved: "00", Checksum: "F4"}
	if f != want {
		t.Errorf("SplitStatusReply() = %+v, want %+v", f, want)
	}
}

func TestReading_String(t *testing.T) {
	speed, _ := LookupParameter("03")
	model, _ := LookupParameter("01")

	tests := []struct {
		r    Reading
		want string
	}{
		{Reading{Descriptor: speed, Raw: "3000", Value: 30000}, "rotation_speed: 30000 rpm"},
		{Reading{Descriptor: model, Raw: "TMP1003M"}, "model: TMP1003M"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
