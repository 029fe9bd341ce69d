// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/turbostat/internal/monitor"
	"github.com/Thermoquad/turbostat/pkg/mjlink"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	monitorInterval time.Duration
	monitorLogFile  string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI for watching pump controllers",
	Long: `Poll the configured stations and show their status, parameters and
operating timer in a terminal UI.

Keys:
  up/down, j/k  select station
  r             poll now
  i             edit poll interval (enter to apply, esc to cancel)
  q             quit

Log output would corrupt the display, so it is discarded unless --log-file
is given.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 5*time.Second, "Poll interval")
	monitorCmd.Flags().StringVar(&monitorLogFile, "log-file", "", "Write log output to a file")
}

// pollLoop drives a poller from a goroutine and hands results to the TUI.
type pollLoop struct {
	poller   *monitor.Poller
	stats    *mjlink.Statistics
	interval chan time.Duration
	now      chan struct{}
}

func newPollLoop(poller *monitor.Poller, stats *mjlink.Statistics) *pollLoop {
	return &pollLoop{
		poller:   poller,
		stats:    stats,
		interval: make(chan time.Duration, 1),
		now:      make(chan struct{}, 1),
	}
}

// SetInterval changes the poll period, taking effect after the next poll.
func (pl *pollLoop) SetInterval(d time.Duration) {
	for {
		select {
		case pl.interval <- d:
			return
		default:
		}
		// Drop a pending value the loop has not picked up yet.
		select {
		case <-pl.interval:
		default:
		}
	}
}

// PollNow requests an immediate round.
func (pl *pollLoop) PollNow() {
	select {
	case pl.now <- struct{}{}:
	default:
	}
}

func (pl *pollLoop) run(ctx context.Context, interval time.Duration, send func(tea.Msg)) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-pl.interval:
			interval = d
			continue
		case <-pl.now:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}

		send(pollStartedMsg{})
		reports := pl.poller.PollOnce(ctx)
		var snap mjlink.StatisticsSnapshot
		if pl.stats != nil {
			snap = pl.stats.Snapshot()
		}
		send(pollResultMsg{reports: reports, stats: snap, at: time.Now()})
		timer.Reset(interval)
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("interval") {
		cfg.Poll.Interval = monitorInterval
	}
	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("interval must be > 0 (got %s)", cfg.Poll.Interval)
	}

	log := newLogger(cfg.Log)
	log.SetOutput(io.Discard)
	if monitorLogFile != "" {
		f, err := os.OpenFile(monitorLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	session, conn, connInfo, err := openSession(cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	poller := monitor.NewPoller(session, cfg.Stations, nil, log)
	loop := newPollLoop(poller, session.Statistics())

	m := initialMonitorModel(connInfo, poller.Stations(), cfg.Poll.Interval, loop)
	p := tea.NewProgram(m, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.run(ctx, cfg.Poll.Interval, p.Send)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
