// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
)

var (
	linktestCount   int
	linktestTimeout int
)

var linktestCmd = &cobra.Command{
	Use:   "linktest",
	Short: "Measure handshake round-trip time to a peripheral",
	Long: `Send SYN frames and measure the time to the peripheral's ACK.

Each round performs a full SYN → ACK → ACK exchange, so the peripheral's
sequence counters are reset as a side effect. Useful for verifying a radio
bridge end to end before a game.

Exit codes:
  0 - all rounds acknowledged
  1 - one or more rounds timed out
  2 - connection error`,
	RunE: runLinktest,
}

func init() {
	rootCmd.AddCommand(linktestCmd)
	linktestCmd.Flags().IntVar(&linktestCount, "count", 5, "Number of handshake rounds")
	linktestCmd.Flags().IntVar(&linktestTimeout, "timeout", 2, "Per-round timeout in seconds")
}

func runLinktest(_ *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	conn, connInfo, err := OpenConnection(firstDevice(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Beetlelink - Link Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Rounds: %d, timeout %ds\n\n", linktestCount, linktestTimeout)

	decoder := beetle.NewDecoder()
	var rtts []time.Duration
	failures := 0

	for round := 1; round <= linktestCount; round++ {
		start := time.Now()
		if _, err := conn.Write(beetle.NewSyn(0, beetle.MaxHealth).Encode()); err != nil {
			fmt.Fprintf(os.Stderr, "SEND FAILED: %v\n", err)
			os.Exit(2)
		}

		rtt, ok := awaitAck(conn, decoder, time.Duration(linktestTimeout)*time.Second, start)
		if !ok {
			fmt.Printf("Round %d: timeout\n", round)
			failures++
			continue
		}

		// Close the handshake so the peripheral is left in a running state
		if _, err := conn.Write(beetle.NewAck(0, beetle.MaxHealth).Encode()); err != nil {
			fmt.Fprintf(os.Stderr, "SEND FAILED: %v\n", err)
			os.Exit(2)
		}

		rtts = append(rtts, rtt)
		fmt.Printf("Round %d: ACK in %s\n", round, rtt.Round(time.Microsecond))
	}

	if len(rtts) > 0 {
		min, max, sum := rtts[0], rtts[0], time.Duration(0)
		for _, r := range rtts {
			if r < min {
				min = r
			}
			if r > max {
				max = r
			}
			sum += r
		}
		fmt.Printf("\n%d/%d acknowledged, rtt min/avg/max = %s/%s/%s\n",
			len(rtts), linktestCount,
			min.Round(time.Microsecond),
			(sum / time.Duration(len(rtts))).Round(time.Microsecond),
			max.Round(time.Microsecond))
	}

	if failures > 0 {
		os.Exit(1)
	}
	return nil
}

// awaitAck reads frames until an ACK arrives or the deadline passes
func awaitAck(conn Connection, decoder *beetle.Decoder, timeout time.Duration, start time.Time) (time.Duration, bool) {
	deadline := start.Add(timeout)
	buf := make([]byte, 128)

	for time.Now().Before(deadline) {
		n, err := conn.Read(buf)
		if err != nil {
			return 0, false
		}
		decoder.Push(buf[:n])

		for {
			frame, err := decoder.Next()
			if err != nil {
				continue
			}
			if frame == nil {
				break
			}
			if frame.Type() == beetle.FrameAck {
				return time.Since(start), true
			}
		}
	}
	return 0, false
}
