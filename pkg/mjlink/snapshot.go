// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is one station's status and sweep, flattened for export.
type Snapshot struct {
	Station  int               `yaml:"station" cbor:"1,keyasint"`
	Time     time.Time         `yaml:"time" cbor:"2,keyasint"`
	Status   *Status           `yaml:"status,omitempty" cbor:"3,keyasint,omitempty"`
	Readings []Reading         `yaml:"readings" cbor:"4,keyasint"`
	Errors   map[string]string `yaml:"errors,omitempty" cbor:"5,keyasint,omitempty"`
}

// NewSnapshot builds a snapshot from a sweep. Failed entries are reported
// in Errors keyed by parameter name.
func NewSnapshot(sw Sweep, status *Status, at time.Time) Snapshot {
	snap := Snapshot{
		Station:  sw.Station,
		Time:     at,
		Status:   status,
		Readings: sw.Readings(),
	}
	for _, r := range sw.Results {
		if r.Err == nil {
			continue
		}
		if snap.Errors == nil {
			snap.Errors = make(map[string]string)
		}
		snap.Errors[r.Descriptor.Name] = r.Err.Error()
	}
	return snap
}

var snapshotEncMode = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("mjlink: cbor options: %v", err))
	}
	return em
}()

// EncodeSnapshotCBOR encodes a snapshot with deterministic CBOR.
func EncodeSnapshotCBOR(s Snapshot) ([]byte, error) {
	data, err := snapshotEncMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotCBOR decodes a snapshot produced by EncodeSnapshotCBOR.
func DecodeSnapshotCBOR(data []byte) (Snapshot, error) {
	if len(data) == 0 {
		return Snapshot{}, fmt.Errorf("empty CBOR payload")
	}
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode CBOR: %w", err)
	}
	return s, nil
}
