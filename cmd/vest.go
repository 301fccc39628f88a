// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lumitag/beetlelink/pkg/peripheral"
)

const vestLEDCount = 10

var vestCmd = &cobra.Command{
	Use:   "vest",
	Short: "Run the vest peripheral",
	Long: `Run the vest unit: NEC hit detection with shield-then-health damage,
sequence-tracked VESTSHOT delivery and a ten-pixel HP bar.

With --sim, stub drivers replace the hardware and each line on stdin lands
a hit on the vest.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runRole(peripheral.RoleVest, vestLEDCount)
	},
}

func init() {
	rootCmd.AddCommand(vestCmd)
}
