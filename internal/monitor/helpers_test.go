// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package monitor

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Thermoquad/turbostat/pkg/mjlink"
)

// fakePump answers MJ frames for a set of stations.
type fakePump struct {
	status  map[int]mjlink.StatusCode
	values  map[string]string
	timer   string
	silent  map[int]bool
	pending string
}

func newFakePump(stations ...int) *fakePump {
	p := &fakePump{
		status: make(map[int]mjlink.StatusCode),
		values: make(map[string]string),
		timer:  "012345",
		silent: make(map[int]bool),
	}
	for _, st := range stations {
		p.status[st] = mjlink.StatusNormal
	}
	for i, d := range mjlink.Parameters() {
		if d.Numeric() {
			p.values[d.Code] = strconv.Itoa(100 + i)
		} else {
			p.values[d.Code] = "TMP1003M"
		}
	}
	return p
}

func (p *fakePump) Write(b []byte) (int, error) {
	p.pending = string(b)
	return len(b), nil
}

func (p *fakePump) ReadLine(time.Duration) (string, error) {
	frame := p.pending
	p.pending = ""
	if len(frame) < 8 {
		return "", io.ErrUnexpectedEOF
	}
	station, _ := strconv.Atoi(frame[2:4])
	if p.silent[station] {
		return "", mjlink.ErrTimeout
	}
	switch fn := frame[4:6]; fn {
	case mjlink.FunctionStatus:
		body := fmt.Sprintf("MJ%02d%s00", station, p.status[station])
		return string(mjlink.AppendChecksum(body)), nil
	case mjlink.FunctionParameter:
		code := frame[6:8]
		body := fmt.Sprintf("MJ%02d%s%s%s", station, fn, code, p.values[code])
		return string(mjlink.AppendChecksum(body)), nil
	case mjlink.FunctionTimer:
		body := fmt.Sprintf("MJ%02d%s%s%s", station, fn, frame[6:8], p.timer)
		return string(mjlink.AppendChecksum(body)), nil
	}
	return "", mjlink.ErrTimeout
}
