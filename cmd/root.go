// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lumitag/beetlelink/pkg/peripheral"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Shared behaviour flags
	configPath string
	simMode    bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "beetlelink",
	Short: "Beetle link peripherals and tooling",
	Long: `Beetlelink - the device side of the Beetle laser-tag link protocol.

Runs the gun, vest and hand peripherals against a serial port or a radio
bridge, plus bench tooling: a live frame monitor, a host-side emulator with
an optional dashboard, and a link round-trip tester.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://bridge.local/beetle [--username user]

For WebSocket authentication, the password is read from the BEETLE_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell
history.`,
	Version: "1.3.0",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			peripheral.SetLogLevelDebug()
		}
	},
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket bridge flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Player config file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&simMode, "sim", false, "Use simulated drivers instead of hardware")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
