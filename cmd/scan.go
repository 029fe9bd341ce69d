// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/turbostat/pkg/mjlink"
	"github.com/spf13/cobra"
)

var (
	scanFrom int
	scanTo   int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Probe a range of station addresses",
	Long: `Send a status query to every station address in a range and list the
ones that answer. Replies that fail to decode still count as a responder, since
something is listening at that address.

Examples:
  turbostat scan --port /dev/ttyUSB0
  turbostat scan --port /dev/ttyUSB0 --from 1 --to 10 --timeout 100ms

Exit codes:
  0 - Scan successful (at least one station answered)
  1 - No station answered
  2 - Connection error`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVar(&scanFrom, "from", mjlink.MinStation, "First station address")
	scanCmd.Flags().IntVar(&scanTo, "to", mjlink.MaxStation, "Last station address")
}

type scanResult struct {
	station int
	status  mjlink.Status
	err     error
	elapsed time.Duration
}

// responded reports whether anything answered at the address.
func (r scanResult) responded() bool {
	return r.err == nil || mjlink.IsDecodeError(r.err)
}

// scanStations queries each address in [from, to]. It stops at the first link
// failure and returns it with the results collected so far.
func scanStations(session *mjlink.Session, from, to int, progress func(scanResult)) ([]scanResult, error) {
	var results []scanResult
	for st := from; st <= to; st++ {
		start := time.Now()
		status, err := session.QueryStatus(st)
		res := scanResult{station: st, status: status, err: err, elapsed: time.Since(start)}
		results = append(results, res)
		if progress != nil {
			progress(res)
		}
		if err != nil && !res.responded() && !errors.Is(err, mjlink.ErrTimeout) {
			return results, err
		}
	}
	return results, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanFrom < mjlink.MinStation || scanTo > mjlink.MaxStation || scanFrom > scanTo {
		return fmt.Errorf("invalid range %d-%d (stations are %d-%d)", scanFrom, scanTo, mjlink.MinStation, mjlink.MaxStation)
	}

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log)

	session, conn, connInfo, err := openSession(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Turbostat - Station Scan\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Range: %02d-%02d, timeout %s per station\n\n", scanFrom, scanTo, cfg.Link.Timeout)

	results, err := scanStations(session, scanFrom, scanTo, func(r scanResult) {
		switch {
		case r.err == nil:
			fmt.Printf("  %02d  %-20s (%dms)\n", r.station, r.status.Label, r.elapsed.Milliseconds())
		case r.responded():
			fmt.Printf("  %02d  bad reply: %v\n", r.station, r.err)
		}
	})
	if err != nil {
		conn.Close()
		fmt.Fprintf(os.Stderr, "\nLink error: %v\n", err)
		os.Exit(2)
	}

	found := 0
	for _, r := range results {
		if r.responded() {
			found++
		}
	}

	fmt.Printf("\n%d station(s) answered out of %d queried\n", found, len(results))
	if found == 0 {
		conn.Close()
		os.Exit(1)
	}
	return nil
}
