// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/Thermoquad/turbostat/pkg/mjlink"
	"github.com/spf13/cobra"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List the known parameter, timer and status codes",
	Long: `Print the parameter registry in sweep order, the timer codes and the
status code table. No connection is opened.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printRegistry(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(paramsCmd)
}

func printRegistry(out io.Writer) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "Parameters (PR):")
	fmt.Fprintln(w, "  CODE\tNAME\tSCALE\tUNIT")
	for _, d := range mjlink.Parameters() {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", d.Code, d.Name, mjlink.FormatScale(d), d.Unit)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Timers (TR):")
	for _, d := range mjlink.Timers() {
		fmt.Fprintf(w, "  %s\t%s\n", d.Code, d.Name)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Status (CS):")
	for _, code := range mjlink.StatusCodes() {
		label, _ := mjlink.StatusLabel(code)
		marker := ""
		if code.IsFailure() {
			marker = "failure"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", code, label, marker)
	}
	w.Flush()
}
