// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package monitor polls pump controllers on a schedule and publishes the
// results as Prometheus metrics.
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/Thermoquad/turbostat/pkg/mjlink"
	"github.com/sirupsen/logrus"
)

const operatingTimerCode = "01"

var errSkipped = errors.New("skipped after link failure")

// StationReport is the outcome of polling one station.
type StationReport struct {
	Station   int
	Time      time.Time
	Status    mjlink.Status
	StatusErr error
	Sweep     mjlink.Sweep
	SweepErr  error
	Timer     mjlink.Reading
	TimerErr  error
	Duration  time.Duration
}

// Healthy reports whether the station answered and every parameter decoded.
func (r StationReport) Healthy() bool {
	return r.StatusErr == nil && r.SweepErr == nil && r.Sweep.Err() == nil
}

// Snapshot converts the report for export.
func (r StationReport) Snapshot() mjlink.Snapshot {
	var status *mjlink.Status
	if r.StatusErr == nil {
		s := r.Status
		status = &s
	}
	return mjlink.NewSnapshot(r.Sweep, status, r.Time)
}

// Poller queries a fixed set of stations over one session.
type Poller struct {
	session  *mjlink.Session
	stations []int
	recorder *Recorder
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewPoller creates a poller. recorder may be nil.
func NewPoller(session *mjlink.Session, stations []int, recorder *Recorder, log logrus.FieldLogger) *Poller {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Poller{
		session:  session,
		stations: append([]int(nil), stations...),
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

// Stations returns the polled station addresses.
func (p *Poller) Stations() []int {
	return append([]int(nil), p.stations...)
}

// PollStation queries the status and sweeps every parameter of one station.
// The sweep is skipped when the status query hit a link failure.
func (p *Poller) PollStation(station int) StationReport {
	start := p.now()
	rep := StationReport{Station: station, Time: start}
	entry := p.log.WithField("station", station)

	rep.Status, rep.StatusErr = p.session.QueryStatus(station)
	if rep.StatusErr != nil {
		entry.WithError(rep.StatusErr).Warn("status query failed")
	} else if rep.Status.Code.IsFailure() {
		entry.WithField("status", rep.Status.Label).Warn("controller reports failure")
	}

	if rep.StatusErr == nil || mjlink.IsDecodeError(rep.StatusErr) {
		rep.Sweep, rep.SweepErr = p.session.SweepParameters(station)
		if rep.SweepErr != nil {
			entry.WithError(rep.SweepErr).Warn("sweep aborted")
		} else if err := rep.Sweep.Err(); err != nil {
			entry.WithError(err).Info("sweep incomplete")
		}
	} else {
		rep.Sweep = mjlink.Sweep{Station: station}
	}

	if rep.StatusErr == nil && rep.SweepErr == nil {
		rep.Timer, rep.TimerErr = p.session.QueryTimer(station, operatingTimerCode)
		if rep.TimerErr != nil {
			entry.WithError(rep.TimerErr).Info("timer query failed")
		}
	} else {
		rep.TimerErr = errSkipped
	}

	rep.Duration = p.now().Sub(start)
	if p.recorder != nil {
		p.recorder.ObserveStatus(station, rep.Status, rep.StatusErr)
		p.recorder.ObserveSweep(rep.Sweep)
		p.recorder.ObservePoll(rep.Duration)
	}
	entry.WithField("duration", rep.Duration).Debug("poll complete")
	return rep
}

// PollOnce polls every station in order. It stops early when ctx is done.
func (p *Poller) PollOnce(ctx context.Context) []StationReport {
	reports := make([]StationReport, 0, len(p.stations))
	for _, st := range p.stations {
		if ctx.Err() != nil {
			break
		}
		reports = append(reports, p.PollStation(st))
	}
	return reports
}

// Run polls immediately and then on every tick until ctx is cancelled.
// fn, if non-nil, receives each round's reports.
func (p *Poller) Run(ctx context.Context, interval time.Duration, fn func([]StationReport)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		reports := p.PollOnce(ctx)
		if fn != nil && len(reports) > 0 {
			fn(reports)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
