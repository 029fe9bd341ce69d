// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Thermoquad/turbostat/pkg/mjlink"
)

var validParity = map[string]bool{
	"none": true, "odd": true, "even": true, "mark": true, "space": true,
}

var validStopBits = map[string]bool{
	"1": true, "1.5": true, "2": true,
}

// Validate enforces config invariants.
// No defaults are applied here.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	l := cfg.Link
	if l.Port != "" && l.URL != "" {
		return errors.New("link: port and url are mutually exclusive")
	}
	if l.Baud <= 0 {
		return fmt.Errorf("link: baud must be > 0 (got %d)", l.Baud)
	}
	if l.DataBits < 5 || l.DataBits > 8 {
		return fmt.Errorf("link: data_bits must be 5-8 (got %d)", l.DataBits)
	}
	if !validParity[strings.ToLower(l.Parity)] {
		return fmt.Errorf("link: unknown parity %q", l.Parity)
	}
	if !validStopBits[l.StopBits] {
		return fmt.Errorf("link: unknown stop_bits %q", l.StopBits)
	}
	if l.Timeout <= 0 {
		return fmt.Errorf("link: timeout must be > 0 (got %s)", l.Timeout)
	}
	if l.SettleDelay < 0 {
		return fmt.Errorf("link: settle_delay must be >= 0 (got %s)", l.SettleDelay)
	}

	if len(cfg.Stations) == 0 {
		return errors.New("stations: at least one station required")
	}
	seen := make(map[int]bool, len(cfg.Stations))
	for _, st := range cfg.Stations {
		if st < mjlink.MinStation || st > mjlink.MaxStation {
			return fmt.Errorf("stations: %d out of range %d-%d", st, mjlink.MinStation, mjlink.MaxStation)
		}
		if seen[st] {
			return fmt.Errorf("stations: duplicate station %d", st)
		}
		seen[st] = true
	}

	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("poll: interval must be > 0 (got %s)", cfg.Poll.Interval)
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q", cfg.Log.Format)
	}

	return nil
}
