// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import "fmt"

// Command is one logical request: a function addressed to a station, with a
// parameter or timer code for the kinds that take one.
type Command struct {
	Kind    CommandKind
	Station int
	Code    string
}

// NewStatusQuery creates a status query (CS) for the station.
func NewStatusQuery(station int) Command {
	return Command{Kind: StatusQuery, Station: station}
}

// NewParameterQuery creates a parameter query (PR) for one parameter code.
func NewParameterQuery(station int, code string) Command {
	return Command{Kind: ParameterQuery, Station: station, Code: code}
}

// NewTimerQuery creates a timer query (TR) for one timer code.
func NewTimerQuery(station int, code string) Command {
	return Command{Kind: TimerQuery, Station: station, Code: code}
}

// Validate checks the station range, the code width and that code bytes are
// printable ASCII.
func (c Command) Validate() error {
	if c.Station < MinStation || c.Station > MaxStation {
		return fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidStation, c.Station, MinStation, MaxStation)
	}
	fn := c.Kind.FunctionCode()
	if len(fn) != FunctionWidth {
		return fmt.Errorf("%w: function for %s", ErrInvalidCode, c.Kind)
	}
	if c.Kind.TakesCode() {
		if len(c.Code) != CodeWidth {
			return fmt.Errorf("%w: %q must be %d characters", ErrInvalidCode, c.Code, CodeWidth)
		}
		for i := 0; i < len(c.Code); i++ {
			if c.Code[i] < 0x20 || c.Code[i] > 0x7E {
				return fmt.Errorf("%w: %q must be printable ASCII", ErrInvalidCode, c.Code)
			}
		}
	} else if c.Code != "" {
		return fmt.Errorf("%w: %s takes no code, got %q", ErrInvalidCode, c.Kind, c.Code)
	}
	return nil
}

// Payload returns the frame text before the checksum:
// header, zero-padded station, function code and optional code.
func (c Command) Payload() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%02d%s%s", Header, c.Station, c.Kind.FunctionCode(), c.Code), nil
}

// Descriptor returns the registry entry the command's reply is decoded with.
// Status queries have no descriptor.
func (c Command) Descriptor() (ParameterDescriptor, error) {
	switch c.Kind {
	case ParameterQuery:
		return LookupParameter(c.Code)
	case TimerQuery:
		return LookupTimer(c.Code)
	default:
		return ParameterDescriptor{}, fmt.Errorf("%w: %s has no descriptor", ErrUnknownParameter, c.Kind)
	}
}

func (c Command) String() string {
	if c.Kind.TakesCode() {
		return fmt.Sprintf("%s station=%02d code=%s", c.Kind, c.Station, c.Code)
	}
	return fmt.Sprintf("%s station=%02d", c.Kind, c.Station)
}
