// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/turbostat/internal/monitor"
	"github.com/Thermoquad/turbostat/pkg/mjlink"
	tea "github.com/charmbracelet/bubbletea"
)

type fakeControl struct {
	intervals []time.Duration
	polls     int
}

func (c *fakeControl) SetInterval(d time.Duration) { c.intervals = append(c.intervals, d) }
func (c *fakeControl) PollNow()                    { c.polls++ }

func asMonitorModel(t *testing.T, m tea.Model) monitorModel {
	t.Helper()
	switch v := m.(type) {
	case monitorModel:
		return v
	case *monitorModel:
		return *v
	}
	t.Fatalf("unexpected model type %T", m)
	return monitorModel{}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"2s", 2 * time.Second, false},
		{"500ms", 500 * time.Millisecond, false},
		{"10", 10 * time.Second, false},
		{" 1m ", time.Minute, false},
		{"50ms", 0, true},
		{"soon", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseInterval(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{61 * time.Second, "1 minute and 1 second"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2 hours, 3 minutes and 4 seconds"},
		{time.Hour, "1 hour"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestMonitorModel_IntervalEdit(t *testing.T) {
	ctl := &fakeControl{}
	var m tea.Model = initialMonitorModel("test", []int{1}, 5*time.Second, ctl)

	m, _ = m.Update(keyMsg("i"))
	for _, r := range "250ms" {
		m, _ = m.Update(keyMsg(string(r)))
	}
	m, _ = m.Update(keyMsg("enter"))

	got := asMonitorModel(t, m)
	if got.editing {
		t.Error("still editing after enter")
	}
	if got.interval != 250*time.Millisecond {
		t.Errorf("interval = %s, want 250ms", got.interval)
	}
	if len(ctl.intervals) != 1 || ctl.intervals[0] != 250*time.Millisecond {
		t.Errorf("SetInterval calls = %v", ctl.intervals)
	}

	// Invalid input keeps the editor open and the old interval.
	m, _ = m.Update(keyMsg("i"))
	m, _ = m.Update(keyMsg("x"))
	m, _ = m.Update(keyMsg("enter"))
	got = asMonitorModel(t, m)
	if !got.editing || got.interval != 250*time.Millisecond {
		t.Errorf("editing = %v interval = %s after bad input", got.editing, got.interval)
	}

	m, _ = m.Update(keyMsg("esc"))
	if asMonitorModel(t, m).editing {
		t.Error("esc did not close the editor")
	}
}

func TestMonitorModel_PollNowAndQuit(t *testing.T) {
	ctl := &fakeControl{}
	var m tea.Model = initialMonitorModel("test", []int{1}, time.Second, ctl)

	m, _ = m.Update(keyMsg("r"))
	if ctl.polls != 1 {
		t.Errorf("polls = %d, want 1", ctl.polls)
	}

	m, cmd := m.Update(keyMsg("q"))
	if !asMonitorModel(t, m).quitting || cmd == nil {
		t.Error("q did not quit")
	}
}

func TestMonitorModel_ApplyReports(t *testing.T) {
	pump := newFakePump(1)
	pump.status[1] = mjlink.StatusFailedStop
	poller := monitor.NewPoller(newTestSession(pump), []int{1, 7}, nil, nil)
	reports := poller.PollOnce(context.Background())

	var m tea.Model = initialMonitorModel("test", poller.Stations(), time.Second, nil)
	m, _ = m.Update(pollStartedMsg{})
	if !asMonitorModel(t, m).polling {
		t.Error("polling flag not set")
	}
	m, _ = m.Update(pollResultMsg{reports: reports, at: time.Now()})

	got := asMonitorModel(t, m)
	if got.polling || got.rounds != 1 {
		t.Errorf("polling = %v rounds = %d", got.polling, got.rounds)
	}
	if len(got.reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(got.reports))
	}

	var failures, timeouts int
	for _, e := range got.errorLog {
		if strings.Contains(e.message, "failed_stop") && e.isError {
			failures++
		}
		if strings.Contains(e.message, "Station 07") && e.isError {
			timeouts++
		}
	}
	if failures != 1 || timeouts != 1 {
		t.Errorf("log has %d failure and %d timeout entries, want 1 each: %+v", failures, timeouts, got.errorLog)
	}

	items := got.stationList.Items()
	if d := items[0].(stationItem).Description(); d != "failed_stop" {
		t.Errorf("station 1 description = %q", d)
	}
	if d := items[1].(stationItem).Description(); d != "no reply" {
		t.Errorf("station 7 description = %q", d)
	}

	view := got.View()
	if !strings.Contains(view, "TURBOSTAT") || !strings.Contains(view, "rotation_speed") {
		t.Errorf("view missing header or readings:\n%s", view)
	}

	// A repeated identical round adds no status entries.
	before := len(got.errorLog)
	m, _ = m.Update(pollResultMsg{reports: reports, at: time.Now()})
	if after := len(asMonitorModel(t, m).errorLog); after != before {
		t.Errorf("log grew from %d to %d on an unchanged round", before, after)
	}
}

func TestPollLoop_Run(t *testing.T) {
	pump := newFakePump(1)
	session := newTestSession(pump)
	poller := monitor.NewPoller(session, []int{1}, nil, nil)
	loop := newPollLoop(poller, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan pollResultMsg, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.run(ctx, time.Hour, func(msg tea.Msg) {
			if r, ok := msg.(pollResultMsg); ok {
				results <- r
			}
		})
	}()

	first := <-results
	if len(first.reports) != 1 || first.reports[0].StatusErr != nil {
		t.Fatalf("first round = %+v", first.reports)
	}

	// The interval is an hour, so a second round only comes from PollNow.
	loop.SetInterval(time.Hour)
	loop.PollNow()
	select {
	case <-results:
	case <-time.After(2 * time.Second):
		t.Fatal("PollNow did not trigger a round")
	}

	cancel()
	<-done
}
