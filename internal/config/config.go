// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Link     LinkConfig    `yaml:"link"`
	Stations []int         `yaml:"stations"`
	Decode   DecodeConfig  `yaml:"decode"`
	Poll     PollConfig    `yaml:"poll"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Log      LogConfig     `yaml:"log"`
}

// ---- LINK ----

type LinkConfig struct {
	// Serial
	Port     string `yaml:"port"`
	Baud     int    `yaml:"baud"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"`    // none, odd, even, mark, space
	StopBits string `yaml:"stop_bits"` // 1, 1.5, 2

	// WebSocket serial bridge
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`

	Timeout     time.Duration `yaml:"timeout"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// ---- DECODE ----

type DecodeConfig struct {
	Strict bool `yaml:"strict"`
}

// ---- POLL ----

type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

// Default returns the settings the controllers ship with: 9600 baud 8N1,
// station 1, 300 ms reply window.
func Default() *Config {
	return &Config{
		Link: LinkConfig{
			Baud:     9600,
			DataBits: 8,
			Parity:   "none",
			StopBits: "1",
			Timeout:  300 * time.Millisecond,
		},
		Stations: []int{1},
		Decode:   DecodeConfig{Strict: true},
		Poll:     PollConfig{Interval: 5 * time.Second},
		Metrics:  MetricsConfig{Listen: ":9510", Path: "/metrics"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
