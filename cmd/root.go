// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"time"

	"github.com/Thermoquad/turbostat/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Protocol flags
	stations     []int
	replyTimeout time.Duration
	settleDelay  time.Duration
	lenient      bool

	// General flags
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "turbostat",
	Short: "Turbomolecular pump controller client",
	Long: `Turbostat - A CLI tool for querying turbomolecular pump controllers over the
MJ line protocol.

Reads operating status, the parameter set and the operating timer from one or
more controller stations, and can poll them continuously for a terminal
dashboard or a Prometheus exporter.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

Settings may also come from a YAML file (--config). Flags given on the command
line override the file.

For WebSocket authentication, the password is read from the TURBOSTAT_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:       "0.3.0",
	SilenceUsage:  true,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 9600, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Protocol flags
	rootCmd.PersistentFlags().IntSliceVarP(&stations, "station", "s", []int{1}, "Station address(es), 0-99")
	rootCmd.PersistentFlags().DurationVar(&replyTimeout, "timeout", 300*time.Millisecond, "Reply timeout per request")
	rootCmd.PersistentFlags().DurationVar(&settleDelay, "settle", 0, "Delay between sending a frame and reading the reply")
	rootCmd.PersistentFlags().BoolVar(&lenient, "lenient", false, "Skip checksum and echo verification of replies")

	// General flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// loadSettings reads the config file, if any, and applies flags that were
// set explicitly on the command line.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	// A link given on the command line replaces the one from the file.
	if flags.Changed("port") || flags.Changed("url") {
		cfg.Link.Port = portName
		cfg.Link.URL = wsURL
	}
	if flags.Changed("baud") {
		cfg.Link.Baud = baudRate
	}
	if flags.Changed("username") {
		cfg.Link.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.Link.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("station") {
		cfg.Stations = append([]int(nil), stations...)
	}
	if flags.Changed("timeout") {
		cfg.Link.Timeout = replyTimeout
	}
	if flags.Changed("settle") {
		cfg.Link.SettleDelay = settleDelay
	}
	if flags.Changed("lenient") {
		cfg.Decode.Strict = !lenient
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
