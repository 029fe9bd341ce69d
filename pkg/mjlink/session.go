// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout is the reply window used when none is configured.
const DefaultTimeout = 300 * time.Millisecond

// ErrSweepAborted marks sweep entries that were never requested because
// the link failed earlier in the sweep.
var ErrSweepAborted = errors.New("sweep aborted")

// Session sequences encode, write, read and decode over one Transport.
// Exchanges are serialized: at most one request is outstanding on the link.
type Session struct {
	mu        sync.Mutex
	transport Transport
	decoder   *Decoder
	timeout   time.Duration
	settle    time.Duration
	log       logrus.FieldLogger
	stats     *Statistics
}

// Option configures a Session.
type Option func(*Session)

// WithTimeout sets how long to wait for each reply line.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		s.timeout = timeout
	}
}

// WithSettleDelay waits between writing a frame and starting to read.
// Some controllers drop replies read back too eagerly.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Session) {
		s.settle = d
	}
}

// WithStrict toggles checksum and echo verification of replies.
func WithStrict(strict bool) Option {
	return func(s *Session) {
		s.decoder = NewDecoder(strict)
	}
}

// WithLogger sets the logger used for frame traces.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithStatistics attaches a statistics tracker.
func WithStatistics(stats *Statistics) Option {
	return func(s *Session) {
		s.stats = stats
	}
}

// NewSession creates a session over a transport. Replies are decoded in
// strict mode unless WithStrict(false) is given.
func NewSession(t Transport, opts ...Option) *Session {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Session{
		transport: t,
		decoder:   NewDecoder(true),
		timeout:   DefaultTimeout,
		log:       discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Statistics returns the attached tracker, or nil.
func (s *Session) Statistics() *Statistics {
	return s.stats
}

// exchange sends one command and returns the reply line.
func (s *Session) exchange(cmd Command) (string, error) {
	frame, err := EncodeCommand(cmd)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.log.WithFields(logrus.Fields{
		"station":  cmd.Station,
		"function": cmd.Kind.FunctionCode(),
		"code":     cmd.Code,
	})

	if r, ok := s.transport.(inputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			entry.WithError(err).Debug("input reset failed")
		}
	}

	entry.WithField("frame", fmt.Sprintf("%q", frame)).Debug("tx")
	if _, err := s.transport.Write(frame); err != nil {
		err = fmt.Errorf("write %s: %w", cmd, err)
		s.record(err)
		return "", err
	}
	if s.stats != nil {
		s.stats.RecordSent()
	}

	if s.settle > 0 {
		time.Sleep(s.settle)
	}

	line, err := s.transport.ReadLine(s.timeout)
	if err != nil {
		entry.WithField("partial", fmt.Sprintf("%q", line)).WithError(err).Debug("rx failed")
		err = fmt.Errorf("read %s: %w", cmd, err)
		s.record(err)
		return line, err
	}
	entry.WithField("line", fmt.Sprintf("%q", line)).Debug("rx")
	return line, nil
}

func (s *Session) record(err error) {
	if s.stats != nil {
		s.stats.RecordReply(err)
	}
}

func (s *Session) decoded(cmd Command, err error) {
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"station": cmd.Station,
			"command": cmd.Kind.String(),
			"code":    cmd.Code,
		}).WithError(err).Warn("reply rejected")
	}
	s.record(err)
}

// QueryStatus asks a station for its operating status.
func (s *Session) QueryStatus(station int) (Status, error) {
	cmd := NewStatusQuery(station)
	line, err := s.exchange(cmd)
	if err != nil {
		return Status{}, err
	}
	status, err := s.decoder.DecodeStatus(line, cmd)
	s.decoded(cmd, err)
	return status, err
}

// QueryParameter reads one registered parameter.
func (s *Session) QueryParameter(station int, code string) (Reading, error) {
	return s.queryValue(NewParameterQuery(station, code))
}

// QueryTimer reads one registered timer.
func (s *Session) QueryTimer(station int, code string) (Reading, error) {
	return s.queryValue(NewTimerQuery(station, code))
}

func (s *Session) queryValue(cmd Command) (Reading, error) {
	if _, err := cmd.Descriptor(); err != nil {
		return Reading{}, err
	}
	line, err := s.exchange(cmd)
	if err != nil {
		return Reading{}, err
	}
	r, err := s.decoder.DecodeValue(line, cmd)
	s.decoded(cmd, err)
	return r, err
}

// ParameterResult is the outcome of reading one parameter during a sweep.
type ParameterResult struct {
	Descriptor ParameterDescriptor
	Reading    Reading
	Err        error
}

// Sweep holds one result per registered parameter, in registry order.
type Sweep struct {
	Station int
	Results []ParameterResult
}

// Readings returns the successfully decoded readings in registry order.
func (sw Sweep) Readings() []Reading {
	out := make([]Reading, 0, len(sw.Results))
	for _, r := range sw.Results {
		if r.Err == nil {
			out = append(out, r.Reading)
		}
	}
	return out
}

// Err joins the per-parameter errors, or returns nil if every read succeeded.
func (sw Sweep) Err() error {
	var errs []error
	for _, r := range sw.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Descriptor.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}

// SweepParameters reads every registered parameter in registry order.
//
// A malformed reply or a timeout fails only its own entry and the sweep
// moves on. A write failure or any other read error means the link is gone:
// the remaining entries are marked ErrSweepAborted and that error is returned
// together with the partial sweep.
func (s *Session) SweepParameters(station int) (Sweep, error) {
	if err := NewStatusQuery(station).Validate(); err != nil {
		return Sweep{}, err
	}

	sw := Sweep{Station: station, Results: make([]ParameterResult, 0, len(parameters))}
	var linkErr error

	for _, d := range parameters {
		res := ParameterResult{Descriptor: d}
		if linkErr != nil {
			res.Err = ErrSweepAborted
			sw.Results = append(sw.Results, res)
			continue
		}

		res.Reading, res.Err = s.QueryParameter(station, d.Code)
		if res.Err != nil && !IsDecodeError(res.Err) && !errors.Is(res.Err, ErrTimeout) {
			linkErr = res.Err
		}
		sw.Results = append(sw.Results, res)
	}

	return sw, linkErr
}
