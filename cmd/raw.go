// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/turbostat/pkg/mjlink"
	"github.com/spf13/cobra"
)

var (
	rawNoChecksum bool
	rawWait       time.Duration
)

var rawCmd = &cobra.Command{
	Use:   "raw [payload]",
	Short: "Send a raw frame or log raw lines from the link",
	Long: `With a payload, append the checksum and CR, send it, and print every line
received until the link stays quiet for --wait. Replies are shown as received
with only the checksum checked, so malformed or unexpected replies are visible.

Without a payload, print every line seen on the link until interrupted. Useful
for watching another master talk to the controllers.

Examples:
  turbostat raw MJ01PR03 --port /dev/ttyUSB0
  turbostat raw MJ01CS8E --no-checksum --port /dev/ttyUSB0
  turbostat raw --port /dev/ttyUSB0`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRaw,
}

func init() {
	rootCmd.AddCommand(rawCmd)
	rawCmd.Flags().BoolVar(&rawNoChecksum, "no-checksum", false, "Send the payload as given, only appending CR")
	rawCmd.Flags().DurationVar(&rawWait, "wait", time.Second, "Stop after this long without a line (payload mode)")
}

// rawFrame builds the bytes to send for a payload.
func rawFrame(payload string, withChecksum bool) []byte {
	if withChecksum {
		return mjlink.AppendChecksum(payload)
	}
	return []byte(payload + string(mjlink.Terminator))
}

// describeLine formats one received line with its checksum verdict.
func describeLine(at time.Time, line string) string {
	text := strings.TrimRight(line, " \t\r\n")
	verdict := "checksum OK"
	if err := mjlink.VerifyChecksum(text); err != nil {
		verdict = err.Error()
	}
	return fmt.Sprintf("[%s] %d bytes, %s\n%s", at.Format("15:04:05.000"), len(line), verdict,
		mjlink.FormatFrame([]byte(line)))
}

func runRaw(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log)

	conn, connInfo, err := OpenConnection(cfg.Link)
	if err != nil {
		return err
	}
	defer conn.Close()
	transport := mjlink.NewStreamTransport(conn)

	fmt.Printf("Turbostat - Raw Line Log\n")
	fmt.Printf("Connection: %s\n", connInfo)

	if len(args) == 0 {
		fmt.Printf("Press Ctrl+C to exit\n\n")
		for {
			line, err := transport.ReadLine(time.Second)
			switch {
			case err == nil:
				fmt.Print(describeLine(time.Now(), line))
			case errors.Is(err, mjlink.ErrTimeout):
				if line != "" {
					log.WithField("partial", fmt.Sprintf("%q", line)).Debug("incomplete line held for next read")
				}
			case errors.Is(err, ErrConnectionClosed):
				log.Info("connection closed")
				return nil
			default:
				log.WithError(err).Warn("read error")
			}
		}
	}

	frame := rawFrame(args[0], !rawNoChecksum)
	fmt.Printf("\nSending:\n%s\n", mjlink.FormatFrame(frame))
	if _, err := transport.Write(frame); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	lines := 0
	for {
		line, err := transport.ReadLine(rawWait)
		if err != nil {
			if errors.Is(err, mjlink.ErrTimeout) {
				if line != "" {
					fmt.Printf("Unterminated: %q\n", line)
				}
				break
			}
			return err
		}
		lines++
		fmt.Print(describeLine(time.Now(), line))
	}

	if lines == 0 {
		fmt.Printf("No reply within %s\n", rawWait)
	}
	return nil
}
