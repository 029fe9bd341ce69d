// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/turbostat/pkg/mjlink"
	"github.com/spf13/cobra"
)

var timerCode string

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Read the operating timer of each station",
	Long: `Send a TR (timer) query to each configured station. The timer value is
printed as the controller reports it.`,
	RunE: runTimer,
}

func init() {
	rootCmd.AddCommand(timerCmd)
	timerCmd.Flags().StringVar(&timerCode, "code", "01", "Timer code")
}

func runTimer(cmd *cobra.Command, args []string) error {
	if _, err := mjlink.LookupTimer(timerCode); err != nil {
		return err
	}

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log)

	session, conn, connInfo, err := openSession(cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Connection: %s\n\n", connInfo)

	var errs []error
	for _, st := range cfg.Stations {
		reading, err := session.QueryTimer(st, timerCode)
		if err != nil {
			fmt.Printf("Station %02d: ERROR: %v\n", st, err)
			errs = append(errs, fmt.Errorf("station %d: %w", st, err))
			continue
		}
		fmt.Printf("Station %02d: %s\n", st, reading)
	}
	return errors.Join(errs...)
}
