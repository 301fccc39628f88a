// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.bug.st/serial"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List available serial ports",
	RunE: func(_ *cobra.Command, _ []string) error {
		ports, err := serial.GetPortsList()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
