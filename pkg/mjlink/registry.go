// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import (
	"fmt"
	"math"
)

// ParameterDescriptor describes one quantity readable with a parameter or
// timer query. A zero Scale marks a non-numeric field (such as the model
// identifier) whose value is returned verbatim.
type ParameterDescriptor struct {
	Code  string  `yaml:"code" cbor:"1,keyasint"`
	Name  string  `yaml:"name" cbor:"2,keyasint"`
	Scale float64 `yaml:"scale,omitempty" cbor:"3,keyasint,omitempty"`
	Unit  string  `yaml:"unit,omitempty" cbor:"4,keyasint,omitempty"`
}

// Numeric reports whether the value field is an integer to be scaled.
func (d ParameterDescriptor) Numeric() bool {
	return d.Scale > 0
}

// Precision returns the number of decimal places implied by the scale,
// e.g. 1 for a 0.1 scale and 0 for integer scales.
func (d ParameterDescriptor) Precision() int {
	if !d.Numeric() || d.Scale >= 1 {
		return 0
	}
	return int(math.Ceil(-math.Log10(d.Scale) - 1e-9))
}

// StatusCode is the 2-character operating status reported by a controller.
type StatusCode string

// Status codes
const (
	StatusStop               StatusCode = "NS"
	StatusAcceleration       StatusCode = "NA"
	StatusNormal             StatusCode = "NN"
	StatusDeceleration       StatusCode = "NB"
	StatusFailedStop         StatusCode = "FS"
	StatusFailedFreeRun      StatusCode = "FF"
	StatusFailedRegenBrake   StatusCode = "FR"
	StatusFailedDeceleration StatusCode = "FB"
)

// IsFailure reports whether the status is one of the failure states.
func (c StatusCode) IsFailure() bool {
	return len(c) == StatusWidth && c[0] == 'F'
}

// parameters is the sweep order.
var parameters = []ParameterDescriptor{
	{Code: "01", Name: "model"},
	{Code: "03", Name: "rotation_speed", Scale: 10, Unit: "rpm"},
	{Code: "04", Name: "motor_current", Scale: 0.1, Unit: "A"},
	{Code: "05", Name: "pump_temp", Scale: 1, Unit: "°C"},
	{Code: "08", Name: "present_rotation", Scale: 1, Unit: "%"},
	{Code: "11", Name: "rated_speed", Scale: 10, Unit: "rpm"},
	{Code: "21", Name: "axis1_unbal_MB", Scale: 1, Unit: "%"},
	{Code: "22", Name: "axis2_unbal_MB", Scale: 1, Unit: "%"},
	{Code: "26", Name: "X1_MB", Scale: 1, Unit: "%"},
	{Code: "27", Name: "Y1_MB", Scale: 1, Unit: "%"},
	{Code: "28", Name: "X2_MB", Scale: 1, Unit: "%"},
	{Code: "29", Name: "Y2_MB", Scale: 1, Unit: "%"},
	{Code: "30", Name: "Z_MB", Scale: 1, Unit: "%"},
}

var timers = []ParameterDescriptor{
	{Code: "01", Name: "operating_timer"},
}

var statusLabels = map[StatusCode]string{
	StatusStop:               "stop",
	StatusAcceleration:       "acceleration",
	StatusNormal:             "normal",
	StatusDeceleration:       "deceleration",
	StatusFailedStop:         "failed_stop",
	StatusFailedFreeRun:      "failed_free_run",
	StatusFailedRegenBrake:   "failed_regen_brake",
	StatusFailedDeceleration: "failed_deceleration",
}

var statusOrder = []StatusCode{
	StatusStop,
	StatusAcceleration,
	StatusNormal,
	StatusDeceleration,
	StatusFailedStop,
	StatusFailedFreeRun,
	StatusFailedRegenBrake,
	StatusFailedDeceleration,
}

var (
	parameterIndex = indexDescriptors(parameters)
	timerIndex     = indexDescriptors(timers)
)

func indexDescriptors(ds []ParameterDescriptor) map[string]int {
	idx := make(map[string]int, len(ds))
	for i, d := range ds {
		if len(d.Code) != CodeWidth {
			panic(fmt.Sprintf("mjlink: descriptor %q has code width %d", d.Name, len(d.Code)))
		}
		if _, dup := idx[d.Code]; dup {
			panic(fmt.Sprintf("mjlink: duplicate descriptor code %q", d.Code))
		}
		idx[d.Code] = i
	}
	return idx
}

// LookupParameter returns the descriptor registered for a parameter code.
func LookupParameter(code string) (ParameterDescriptor, error) {
	i, ok := parameterIndex[code]
	if !ok {
		return ParameterDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownParameter, code)
	}
	return parameters[i], nil
}

// LookupTimer returns the descriptor registered for a timer code.
func LookupTimer(code string) (ParameterDescriptor, error) {
	i, ok := timerIndex[code]
	if !ok {
		return ParameterDescriptor{}, fmt.Errorf("%w: timer %q", ErrUnknownParameter, code)
	}
	return timers[i], nil
}

// ParameterCodes returns every registered parameter code in sweep order.
func ParameterCodes() []string {
	codes := make([]string, len(parameters))
	for i, d := range parameters {
		codes[i] = d.Code
	}
	return codes
}

// Parameters returns a copy of the parameter table in sweep order.
func Parameters() []ParameterDescriptor {
	return append([]ParameterDescriptor(nil), parameters...)
}

// Timers returns a copy of the timer table.
func Timers() []ParameterDescriptor {
	return append([]ParameterDescriptor(nil), timers...)
}

// StatusLabel returns the human-readable label for a status code.
func StatusLabel(code StatusCode) (string, error) {
	label, ok := statusLabels[code]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatusCode, string(code))
	}
	return label, nil
}

// StatusCodes returns every defined status code in table order.
func StatusCodes() []StatusCode {
	return append([]StatusCode(nil), statusOrder...)
}
