// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
)

var (
	monitorShowAll       bool
	monitorStatsInterval int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display the live frame log in human-readable format",
	Long: `Continuously decode and display Beetle frames as they arrive.

Each frame is shown with timestamp, type and decoded payload. Frames that
fail CRC or semantic validation are highlighted, and link statistics are
printed at a configurable interval.

By default only errors and game traffic are displayed; IMU telemetry is
high-rate and hidden unless --show-all is given.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowAll, "show-all", false, "Show IMU telemetry frames too")
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
}

func runMonitor(_ *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	conn, connInfo, err := OpenConnection(firstDevice(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Beetlelink - Frame Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := beetle.NewDecoder()
	stats := beetle.NewStatistics()
	lastStats := time.Now()
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if err == ErrConnectionClosed {
				fmt.Println("Connection closed")
				return nil
			}
			fmt.Printf("[ERROR] read: %v\n", err)
			continue
		}
		decoder.Push(buf[:n])

		for {
			frame, err := decoder.Next()
			if err != nil {
				stats.Update(nil, err, nil)
				fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n",
					time.Now().Format("15:04:05.000"), err)
				continue
			}
			if frame == nil {
				break
			}

			validationErrors := beetle.ValidateFrame(frame)
			stats.Update(frame, nil, validationErrors)

			if len(validationErrors) > 0 {
				printValidationErrors(frame, validationErrors)
			} else if monitorShowAll || frame.Type() != beetle.FrameIMU {
				fmt.Print(beetle.FormatFrame(frame))
			}
		}

		if time.Since(lastStats) >= time.Duration(monitorStatsInterval)*time.Second {
			fmt.Print(stats.String())
			lastStats = time.Now()
		}
	}
}

// printValidationErrors prints validation errors for a frame
func printValidationErrors(frame *beetle.Frame, errors []beetle.ValidationError) {
	timestamp := frame.Timestamp().Format("15:04:05.000")
	frameType := beetle.FormatFrameType(frame.Type())

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s ('%c')\n", timestamp, frameType, frame.Type())
	fmt.Printf("  CRC: \033[1;32mOK\033[0m\n")
	for i, err := range errors {
		fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)
	}
	fmt.Println()
}

// firstDevice picks any configured device for transports chosen by config
func firstDevice(cfg *Config) *DeviceConfig {
	for _, name := range []string{"gun", "vest", "hand"} {
		if dev := cfg.Device(name); dev != nil {
			return dev
		}
	}
	return nil
}
