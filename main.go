// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Turbostat - Turbomolecular pump controller client
//
// A CLI tool for querying pump controllers that speak the MJ line protocol
// over RS-232/RS-485 or a WebSocket serial bridge.

package main

import (
	"os"

	"github.com/Thermoquad/turbostat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
