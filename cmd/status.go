// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/turbostat/pkg/mjlink"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query the operating status of each station",
	Long: `Send a CS (status) query to each configured station and print the
operating state it reports.

Examples:
  turbostat status --port /dev/ttyUSB0
  turbostat status --port /dev/ttyUSB0 --station 1,2,3`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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
		status, err := session.QueryStatus(st)
		if err != nil {
			fmt.Printf("Station %02d: ERROR: %v\n", st, err)
			errs = append(errs, fmt.Errorf("station %d: %w", st, err))
			continue
		}
		fmt.Print(mjlink.FormatStatus(st, status))
	}
	return errors.Join(errs...)
}
