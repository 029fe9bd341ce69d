// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// StatisticsSnapshot is a point-in-time copy of the counters.
type StatisticsSnapshot struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	FramesSent      uint64
	RepliesReceived uint64
	ValidReplies    uint64
	ChecksumErrors  uint64
	EchoErrors      uint64
	DecodeErrors    uint64
	Timeouts        uint64
	IOErrors        uint64

	// Rates (calculated)
	ReplyRate float64 // replies/sec
	ErrorRate float64 // errors/sec
}

// Errors returns the total of all failure counters.
func (s StatisticsSnapshot) Errors() uint64 {
	return s.ChecksumErrors + s.EchoErrors + s.DecodeErrors + s.Timeouts + s.IOErrors
}

// Statistics tracks exchange counts and error rates for a session.
type Statistics struct {
	mu sync.Mutex
	s  StatisticsSnapshot
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{s: StatisticsSnapshot{StartTime: now, LastUpdateTime: now}}
}

// RecordSent counts one transmitted frame.
func (st *Statistics) RecordSent() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.FramesSent++
	st.s.LastUpdateTime = time.Now()
}

// RecordReply classifies the outcome of one exchange. A nil error counts a
// valid reply.
func (st *Statistics) RecordReply(err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.LastUpdateTime = time.Now()

	switch {
	case err == nil:
		st.s.RepliesReceived++
		st.s.ValidReplies++
	case errors.Is(err, ErrTimeout):
		st.s.Timeouts++
	case errors.Is(err, ErrChecksumMismatch):
		st.s.RepliesReceived++
		st.s.ChecksumErrors++
	case errors.Is(err, ErrEchoMismatch):
		st.s.RepliesReceived++
		st.s.EchoErrors++
	case IsDecodeError(err):
		st.s.RepliesReceived++
		st.s.DecodeErrors++
	default:
		st.s.IOErrors++
	}
}

// Snapshot returns a copy of the counters with rates calculated.
func (st *Statistics) Snapshot() StatisticsSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	snap := st.s
	elapsed := time.Since(snap.StartTime).Seconds()
	if elapsed > 0 {
		snap.ReplyRate = float64(snap.RepliesReceived) / elapsed
		snap.ErrorRate = float64(snap.Errors()) / elapsed
	}
	return snap
}

// String returns a formatted statistics summary
func (st *Statistics) String() string {
	s := st.Snapshot()

	var validPercent float64
	if s.FramesSent > 0 {
		validPercent = float64(s.ValidReplies) * 100.0 / float64(s.FramesSent)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Statistics (%.0f seconds) ===\n", time.Since(s.StartTime).Seconds())
	fmt.Fprintf(&b, "Frames Sent:     %8d\n", s.FramesSent)
	fmt.Fprintf(&b, "Valid Replies:   %8d (%.1f%%)\n", s.ValidReplies, validPercent)
	if s.ChecksumErrors > 0 {
		fmt.Fprintf(&b, "Checksum Errors: %8d\n", s.ChecksumErrors)
	}
	if s.EchoErrors > 0 {
		fmt.Fprintf(&b, "Echo Errors:     %8d\n", s.EchoErrors)
	}
	if s.DecodeErrors > 0 {
		fmt.Fprintf(&b, "Decode Errors:   %8d\n", s.DecodeErrors)
	}
	if s.Timeouts > 0 {
		fmt.Fprintf(&b, "Timeouts:        %8d\n", s.Timeouts)
	}
	if s.IOErrors > 0 {
		fmt.Fprintf(&b, "I/O Errors:      %8d\n", s.IOErrors)
	}
	fmt.Fprintf(&b, "Reply Rate:      %8.1f replies/sec\n", s.ReplyRate)
	fmt.Fprintf(&b, "Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	b.WriteString("================================\n")
	return b.String()
}

// Reset resets all statistics counters
func (st *Statistics) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	st.s = StatisticsSnapshot{StartTime: now, LastUpdateTime: now}
}
