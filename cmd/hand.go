// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lumitag/beetlelink/pkg/peripheral"
)

var handCmd = &cobra.Command{
	Use:   "hand",
	Short: "Run the hand peripheral",
	Long: `Run the glove unit: IMU telemetry at 50 ms cadence, nothing else beyond
the handshake. Telemetry is best-effort and never retransmitted.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runRole(peripheral.RoleHand, 0)
	},
}

func init() {
	rootCmd.AddCommand(handCmd)
}
