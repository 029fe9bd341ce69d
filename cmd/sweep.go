// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/turbostat/pkg/mjlink"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	sweepFormat     string
	sweepOnlyNormal bool
	sweepOutput     string
	sweepStats      bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Read every registered parameter from each station",
	Long: `Query each station's status, then read every parameter in the registry.

A parameter that times out or answers with a malformed reply is reported on its
own and the sweep continues. A link failure aborts the rest of the sweep.

Output formats:
  text  aligned table (default)
  yaml  one document per station
  cbor  one CBOR item per station, concatenated (RFC 8742 sequence)

Examples:
  turbostat sweep --port /dev/ttyUSB0
  turbostat sweep --port /dev/ttyUSB0 --only-normal
  turbostat sweep --port /dev/ttyUSB0 --format cbor --output pump.cbor`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().StringVarP(&sweepFormat, "format", "f", "text", "Output format (text, yaml, cbor)")
	sweepCmd.Flags().BoolVar(&sweepOnlyNormal, "only-normal", false, "Skip the sweep unless the station reports normal operation")
	sweepCmd.Flags().StringVarP(&sweepOutput, "output", "o", "", "Write output to a file instead of stdout")
	sweepCmd.Flags().BoolVar(&sweepStats, "stats", false, "Print link statistics to stderr when done")
}

// sweepStation runs the status query and, unless skipped, the sweep.
// The returned error is a link failure; per-parameter failures stay in the
// snapshot.
func sweepStation(session *mjlink.Session, station int, onlyNormal bool) (mjlink.Snapshot, error) {
	var status *mjlink.Status
	s, err := session.QueryStatus(station)
	switch {
	case err == nil:
		status = &s
	case mjlink.IsDecodeError(err) || errors.Is(err, mjlink.ErrTimeout):
		if onlyNormal {
			return mjlink.Snapshot{Station: station, Time: time.Now()}, fmt.Errorf("status: %w", err)
		}
	default:
		return mjlink.Snapshot{Station: station, Time: time.Now()}, fmt.Errorf("status: %w", err)
	}

	if onlyNormal && status.Code != mjlink.StatusNormal {
		return mjlink.NewSnapshot(mjlink.Sweep{Station: station}, status, time.Now()), nil
	}

	sw, err := session.SweepParameters(station)
	return mjlink.NewSnapshot(sw, status, time.Now()), err
}

func writeSnapshots(w io.Writer, format string, snaps []mjlink.Snapshot) error {
	switch format {
	case "text":
		for i, snap := range snaps {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprint(w, mjlink.FormatSnapshot(snap))
		}
		return nil

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, snap := range snaps {
			if err := enc.Encode(snap); err != nil {
				return fmt.Errorf("failed to encode yaml: %w", err)
			}
		}
		return enc.Close()

	case "cbor":
		for _, snap := range snaps {
			data, err := mjlink.EncodeSnapshotCBOR(snap)
			if err != nil {
				return err
			}
			if _, err := w.Write(data); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q (use text, yaml or cbor)", format)
}

func runSweep(cmd *cobra.Command, args []string) error {
	switch sweepFormat {
	case "text", "yaml", "cbor":
	default:
		return fmt.Errorf("unknown format %q (use text, yaml or cbor)", sweepFormat)
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

	log.WithField("connection", connInfo).Info("connected")

	var (
		snaps []mjlink.Snapshot
		errs  []error
	)
	for _, st := range cfg.Stations {
		snap, err := sweepStation(session, st, sweepOnlyNormal)
		snaps = append(snaps, snap)
		if err != nil {
			log.WithField("station", st).WithError(err).Error("sweep failed")
			errs = append(errs, fmt.Errorf("station %d: %w", st, err))
		}
	}

	out := io.Writer(os.Stdout)
	if sweepOutput != "" {
		f, err := os.Create(sweepOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := writeSnapshots(out, sweepFormat, snaps); err != nil {
		return err
	}

	if sweepStats {
		fmt.Fprint(os.Stderr, session.Statistics())
	}
	return errors.Join(errs...)
}
