// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/turbostat/internal/monitor"
	"github.com/Thermoquad/turbostat/pkg/mjlink"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Event log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// stationItem is one row of the station list.
type stationItem struct {
	station int
	report  *monitor.StationReport
}

// Implement list.Item interface
func (s stationItem) Title() string { return fmt.Sprintf("Station %02d", s.station) }
func (s stationItem) Description() string {
	switch {
	case s.report == nil:
		return "waiting"
	case s.report.StatusErr != nil:
		return "no reply"
	default:
		return s.report.Status.Label
	}
}
func (s stationItem) FilterValue() string { return fmt.Sprintf("%02d", s.station) }

type pollControl interface {
	SetInterval(d time.Duration)
	PollNow()
}

// Messages
type pollStartedMsg struct{}
type pollResultMsg struct {
	reports []monitor.StationReport
	stats   mjlink.StatisticsSnapshot
	at      time.Time
}
type monitorTickMsg time.Time

// TUI model
type monitorModel struct {
	connInfo string
	control  pollControl
	interval time.Duration
	started  time.Time

	stationList list.Model
	reports     map[int]monitor.StationReport
	stats       mjlink.StatisticsSnapshot
	polling     bool
	lastPoll    time.Time
	rounds      int

	intervalInput textinput.Model
	editing       bool

	errorLog      []errorLogEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
}

func initialMonitorModel(connInfo string, stations []int, interval time.Duration, control pollControl) monitorModel {
	ti := textinput.New()
	ti.Placeholder = interval.String()
	ti.CharLimit = 10
	ti.Width = 10

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)

	items := make([]list.Item, len(stations))
	for i, st := range stations {
		items[i] = stationItem{station: st}
	}
	stationList := list.New(items, delegate, 24, 10)
	stationList.Title = "Stations"
	stationList.SetShowStatusBar(false)
	stationList.SetShowHelp(false)
	stationList.SetFilteringEnabled(false)

	return monitorModel{
		connInfo:      connInfo,
		control:       control,
		interval:      interval,
		started:       time.Now(),
		stationList:   stationList,
		reports:       make(map[int]monitor.StationReport),
		intervalInput: ti,
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return monitorTickCmd()
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

// parseInterval accepts a Go duration ("2s", "500ms") or whole seconds ("10").
func parseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	d, err := time.ParseDuration(s)
	if err != nil {
		d, err = time.ParseDuration(s + "s")
	}
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q", s)
	}
	if d < 100*time.Millisecond {
		return 0, fmt.Errorf("interval %s is below 100ms", d)
	}
	return d, nil
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case monitorTickMsg:
		return m, monitorTickCmd()

	case pollStartedMsg:
		m.polling = true

	case pollResultMsg:
		m.applyReports(msg)
	}

	return m, nil
}

func (m *monitorModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "esc":
			m.editing = false
			m.intervalInput.Blur()
			m.intervalInput.SetValue("")
			return m, nil
		case "enter":
			d, err := parseInterval(m.intervalInput.Value())
			if err != nil {
				m.addLogEntry(err.Error(), true)
				return m, nil
			}
			m.interval = d
			m.editing = false
			m.intervalInput.Blur()
			m.intervalInput.SetValue("")
			m.intervalInput.Placeholder = d.String()
			if m.control != nil {
				m.control.SetInterval(d)
			}
			m.addLogEntry(fmt.Sprintf("Poll interval set to %s", d), false)
			return m, nil
		}
		var cmd tea.Cmd
		m.intervalInput, cmd = m.intervalInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "r":
		if m.control != nil {
			m.control.PollNow()
		}
		m.addLogEntry("Poll requested", false)
		return m, nil

	case "i":
		m.editing = true
		return m, m.intervalInput.Focus()
	}

	var cmd tea.Cmd
	m.stationList, cmd = m.stationList.Update(msg)
	return m, cmd
}

// applyReports stores a poll round and logs what changed since the last one.
func (m *monitorModel) applyReports(msg pollResultMsg) {
	m.polling = false
	m.lastPoll = msg.at
	m.stats = msg.stats
	m.rounds++

	for _, rep := range msg.reports {
		prev, seen := m.reports[rep.Station]
		m.reports[rep.Station] = rep

		switch {
		case rep.StatusErr != nil:
			if !seen || prev.StatusErr == nil {
				m.addLogEntry(fmt.Sprintf("Station %02d: %v", rep.Station, rep.StatusErr), true)
			}
		case !seen || prev.StatusErr != nil || prev.Status.Code != rep.Status.Code:
			m.addLogEntry(fmt.Sprintf("Station %02d: %s", rep.Station, rep.Status.Label), rep.Status.Code.IsFailure())
		}

		if rep.SweepErr != nil {
			m.addLogEntry(fmt.Sprintf("Station %02d: sweep aborted: %v", rep.Station, rep.SweepErr), true)
		}
		for _, r := range rep.Sweep.Results {
			if r.Err != nil {
				m.addLogEntry(fmt.Sprintf("Station %02d: %s: %v", rep.Station, r.Descriptor.Name, r.Err), true)
			}
		}
	}
	m.updateStationList()
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	// Keep only last N entries
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func (m *monitorModel) updateStationList() {
	items := m.stationList.Items()
	for i, it := range items {
		si := it.(stationItem)
		if rep, ok := m.reports[si.station]; ok {
			r := rep
			si.report = &r
		}
		items[i] = si
	}
	m.stationList.SetItems(items)
}

func (m *monitorModel) updateListSize() {
	listHeight := m.height / 2
	if listHeight < 6 {
		listHeight = 6
	}
	m.stationList.SetSize(24, listHeight)
}

func (m monitorModel) selectedStation() (int, bool) {
	it, ok := m.stationList.SelectedItem().(stationItem)
	if !ok {
		return 0, false
	}
	return it.station, true
}

// formatElapsed formats a duration as "1 hour, 2 minutes and 3 seconds".
func formatElapsed(d time.Duration) string {
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := total / 60 % 60
	seconds := total % 60

	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("TURBOSTAT - PUMP MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Interval: %s | Running %s | r: poll  i: interval  q: quit",
		m.connInfo, m.interval, formatElapsed(time.Since(m.started)))))
	s.WriteString("\n\n")

	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n")

	detail := m.renderStationDetail(statsLabelStyle, statsValueStyle, errorStyle, warningStyle, headerStyle)
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(m.stationList.View()),
		boxStyle.Width(max(m.width-32, 40)).Render(detail),
	))
	s.WriteString("\n")

	if m.editing {
		s.WriteString(statsLabelStyle.Render("New interval: "))
		s.WriteString(m.intervalInput.View())
		s.WriteString("\n")
	}

	s.WriteString(m.renderEventLog(statsLabelStyle, errorStyle, warningStyle, headerStyle, boxStyle))
	return s.String()
}

func (m monitorModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	errors := m.stats.Errors()
	errText := statsValueStyle.Render(fmt.Sprintf("%d", errors))
	if errors > 0 {
		errText = errorStyle.Render(fmt.Sprintf("%d", errors))
	}

	pollState := fmt.Sprintf("%d rounds", m.rounds)
	if m.polling {
		pollState += " (polling)"
	} else if !m.lastPoll.IsZero() {
		pollState += fmt.Sprintf(", last %s ago", formatElapsed(time.Since(m.lastPoll)))
	}

	return boxStyle.Render(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s   %s %s",
		statsLabelStyle.Render("Sent:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.FramesSent)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.ValidReplies)),
		statsLabelStyle.Render("Timeouts:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.Timeouts)),
		statsLabelStyle.Render("Errors:"), errText,
		statsLabelStyle.Render("Polls:"), statsValueStyle.Render(pollState),
	))
}

func (m monitorModel) renderStationDetail(statsLabelStyle, statsValueStyle, errorStyle, warningStyle, headerStyle lipgloss.Style) string {
	station, ok := m.selectedStation()
	if !ok {
		return headerStyle.Render("No station selected")
	}
	rep, ok := m.reports[station]
	if !ok {
		return warningStyle.Render(fmt.Sprintf("⏳ Waiting for station %02d...", station))
	}

	var b strings.Builder
	b.WriteString(statsLabelStyle.Render("Status: "))
	switch {
	case rep.StatusErr != nil:
		b.WriteString(errorStyle.Render(rep.StatusErr.Error()))
	case rep.Status.Code.IsFailure():
		b.WriteString(errorStyle.Render(fmt.Sprintf("%s (%s)", rep.Status.Label, rep.Status.Code)))
	default:
		b.WriteString(statsValueStyle.Render(fmt.Sprintf("%s (%s)", rep.Status.Label, rep.Status.Code)))
	}
	b.WriteString("\n")

	if rep.TimerErr == nil {
		b.WriteString(statsLabelStyle.Render("Operating timer: "))
		b.WriteString(statsValueStyle.Render(rep.Timer.Text()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, r := range rep.Sweep.Results {
		name := fmt.Sprintf("%-18s", r.Descriptor.Name)
		if r.Err != nil {
			b.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render(name), errorStyle.Render("✗ "+r.Err.Error())))
			continue
		}
		value := r.Reading.Text()
		if r.Descriptor.Unit != "" {
			value += " " + r.Descriptor.Unit
		}
		b.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render(name), statsValueStyle.Render(value)))
	}
	if rep.SweepErr != nil {
		b.WriteString(errorStyle.Render("Sweep aborted: " + rep.SweepErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("Polled %s in %dms", rep.Time.Format("15:04:05"), rep.Duration.Milliseconds())))
	return b.String()
}

func (m monitorModel) renderEventLog(statsLabelStyle, errorStyle, warningStyle, headerStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - m.height/2 - 12
	if logHeight < 3 {
		logHeight = 3
	}
	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	logContent := strings.Builder{}
	if len(m.errorLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(max(m.width-4, 20)).Render(logContent.String()))
	return s.String()
}
