// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package cmd

import (
	"github.com/spf13/cobra"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
	"github.com/lumitag/beetlelink/pkg/peripheral"
)

var gunCmd = &cobra.Command{
	Use:   "gun",
	Short: "Run the gun peripheral",
	Long: `Run the gun unit: trigger-fired IR shots against a six-round magazine,
sequence-tracked GUNSHOT delivery, magazine LEDs and IMU telemetry.

With --sim, stub drivers replace the hardware and each line on stdin pulls
the trigger. The daemon reconnects and re-handshakes forever; a KILL frame
restarts it from power-up defaults.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runRole(peripheral.RoleGun, beetle.MagazineSize)
	},
}

func init() {
	rootCmd.AddCommand(gunCmd)
}
