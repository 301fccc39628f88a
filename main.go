// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag
//
// Beetlelink - laser-tag peripheral firmware and bench tooling
//
// The device side of the Beetle link protocol: gun, vest and hand
// peripherals over serial or a radio bridge, plus a frame monitor, host
// emulator and link tester.

package main

import (
	"os"

	"github.com/lumitag/beetlelink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
