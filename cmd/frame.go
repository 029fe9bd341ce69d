// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/turbostat/pkg/mjlink"
	"github.com/spf13/cobra"
)

var frameCmd = &cobra.Command{
	Use:   "frame <cs|pr|tr> [code]",
	Short: "Print the encoded frame for a command",
	Long: `Encode a command frame and print it as escaped ASCII and hex. Nothing is
sent; use it to check wiring with a terminal program.

Examples:
  turbostat frame cs
  turbostat frame pr 03 --station 2,3
  turbostat frame tr 01`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFrame,
}

func init() {
	rootCmd.AddCommand(frameCmd)
}

func parseFrameArgs(args []string, station int) (mjlink.Command, error) {
	code := ""
	if len(args) > 1 {
		code = args[1]
	}

	switch strings.ToUpper(args[0]) {
	case mjlink.FunctionStatus:
		if code != "" {
			return mjlink.Command{}, fmt.Errorf("status query takes no code")
		}
		return mjlink.NewStatusQuery(station), nil
	case mjlink.FunctionParameter:
		return mjlink.NewParameterQuery(station, code), nil
	case mjlink.FunctionTimer:
		return mjlink.NewTimerQuery(station, code), nil
	}
	return mjlink.Command{}, fmt.Errorf("unknown function %q (use cs, pr or tr)", args[0])
}

func runFrame(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	for i, st := range cfg.Stations {
		c, err := parseFrameArgs(args, st)
		if err != nil {
			return err
		}

		frame, err := mjlink.EncodeCommand(c)
		if err != nil {
			return err
		}

		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s\n", c)
		fmt.Print(mjlink.FormatFrame(frame))
	}
	return nil
}
