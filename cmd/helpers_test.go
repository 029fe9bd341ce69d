// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Thermoquad/turbostat/pkg/mjlink"
)

var errLinkDown = errors.New("link down")

// fakePump answers MJ frames for a set of stations. Stations not in the
// status map never answer.
type fakePump struct {
	status  map[int]mjlink.StatusCode
	values  map[string]string
	garbled map[int]bool
	linkErr error
	pending string
}

func newFakePump(stations ...int) *fakePump {
	p := &fakePump{
		status:  make(map[int]mjlink.StatusCode),
		values:  make(map[string]string),
		garbled: make(map[int]bool),
	}
	for _, st := range stations {
		p.status[st] = mjlink.StatusNormal
	}
	for i, d := range mjlink.Parameters() {
		if d.Numeric() {
			p.values[d.Code] = strconv.Itoa(10 + i)
		} else {
			p.values[d.Code] = "TMP1003M"
		}
	}
	return p
}

func (p *fakePump) Write(b []byte) (int, error) {
	if p.linkErr != nil {
		return 0, p.linkErr
	}
	p.pending = string(b)
	return len(b), nil
}

func (p *fakePump) ReadLine(time.Duration) (string, error) {
	frame := p.pending
	p.pending = ""
	station, _ := strconv.Atoi(frame[2:4])
	code, ok := p.status[station]
	if !ok {
		return "", mjlink.ErrTimeout
	}
	if p.garbled[station] {
		return "MJ??\r", nil
	}

	var body string
	switch fn := frame[4:6]; fn {
	case mjlink.FunctionStatus:
		body = fmt.Sprintf("MJ%02d%s00", station, code)
	case mjlink.FunctionParameter:
		body = fmt.Sprintf("MJ%02d%s%s%s", station, fn, frame[6:8], p.values[frame[6:8]])
	case mjlink.FunctionTimer:
		body = fmt.Sprintf("MJ%02d%s%s000042", station, fn, frame[6:8])
	}
	return string(mjlink.AppendChecksum(body)), nil
}

func newTestSession(p *fakePump) *mjlink.Session {
	return mjlink.NewSession(p, mjlink.WithTimeout(10*time.Millisecond))
}
