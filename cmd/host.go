// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fxamacker/cbor/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lumitag/beetlelink/pkg/gamestate"
	"github.com/lumitag/beetlelink/pkg/hostlink"
	"github.com/lumitag/beetlelink/pkg/peripheral"
)

var (
	hostRole   string
	hostEngine string
	hostTUI    bool
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run the relay-host side of the link for bench testing",
	Long: `Emulate the relay laptop for one peripheral: drive the handshake, echo
sequence-tracked shots, answer NAKs and keep authoritative game state.

Game events can be forwarded to the central engine as CBOR records over TCP
with --engine (or the engine entry in the config file). State survives
restarts via the per-player snapshot file.

Without --tui, events are printed and commands are read from stdin:
  reload          refill the gun magazine
  gun <bullets>   set the magazine outright
  vest <s> <h>    set shield and health
  shield          recharge the shield
  save            write the state snapshot
  quit            exit`,
	RunE: runHost,
}

func init() {
	rootCmd.AddCommand(hostCmd)
	hostCmd.Flags().StringVar(&hostRole, "role", "gun", "Peripheral role to host (gun, vest, hand)")
	hostCmd.Flags().StringVar(&hostEngine, "engine", "", "Game engine address (host:port)")
	hostCmd.Flags().BoolVar(&hostTUI, "tui", false, "Show the live dashboard")
}

func runHost(_ *cobra.Command, _ []string) error {
	role := peripheral.RoleID(hostRole)
	switch role {
	case peripheral.RoleGun, peripheral.RoleVest, peripheral.RoleHand:
	default:
		return pkgerrors.Errorf("invalid role %q", hostRole)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	conn, connInfo, err := OpenConnection(cfg.Device(hostRole))
	if err != nil {
		return err
	}
	defer conn.Close()

	gs := gamestate.New(cfg.StatePath())
	h := hostlink.New(role, conn, gs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay, err := openEngineRelay(cfg)
	if err != nil {
		return err
	}
	if relay != nil {
		defer relay.Close()
	}

	go func() { _ = h.Run(ctx) }()
	defer func() {
		if err := gs.Save(); err != nil {
			log.Errorf("host: %v", err)
		}
	}()

	if hostTUI {
		return runHostTUI(ctx, stop, h, gs, relay)
	}

	fmt.Printf("Beetlelink - Host Emulator (%s)\n", role)
	fmt.Printf("Connection: %s\n\n", connInfo)

	go hostCommandLoop(stop, h, gs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-h.Events():
			printEvent(e)
			relayEvent(relay, e)
		}
	}
}

// engineRelay streams game events to the central engine as CBOR records
type engineRelay struct {
	conn net.Conn
	enc  *cbor.Encoder
}

func (r *engineRelay) Close() error { return r.conn.Close() }

func openEngineRelay(cfg *Config) (*engineRelay, error) {
	addr := hostEngine
	if addr == "" && cfg.Engine.Host != "" {
		addr = fmt.Sprintf("%s:%d", cfg.Engine.Host, cfg.Engine.Port)
	}
	if addr == "" {
		return nil, nil
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to reach engine at %s", addr)
	}
	log.Infof("host: relaying events to %s", addr)
	return &engineRelay{conn: conn, enc: cbor.NewEncoder(conn)}, nil
}

func relayEvent(r *engineRelay, e hostlink.Event) {
	if r == nil {
		return
	}
	if err := r.enc.Encode(e); err != nil {
		log.Errorf("host: engine relay: %v", err)
	}
}

func printEvent(e hostlink.Event) {
	switch e.Type {
	case hostlink.EventIMU:
		// High-rate telemetry stays quiet outside the dashboard
	case hostlink.EventShot:
		fmt.Printf("[%s] SHOT  bullets=%d\n", e.Role, e.Bullets)
	case hostlink.EventHit:
		fmt.Printf("[%s] HIT   shield=%d health=%d\n", e.Role, e.Shield, e.Health)
	case hostlink.EventStateSync:
		fmt.Printf("[%s] SYNC  bullets=%d shield=%d health=%d\n", e.Role, e.Bullets, e.Shield, e.Health)
	case hostlink.EventLinkUp:
		fmt.Printf("[%s] LINK UP\n", e.Role)
	case hostlink.EventLinkDown:
		fmt.Printf("[%s] LINK DOWN (%s)\n", e.Role, e.Message)
	default:
		fmt.Printf("[%s] %s %s\n", e.Role, strings.ToUpper(string(e.Type)), e.Message)
	}
}

// hostCommandLoop reads bench commands from stdin
func hostCommandLoop(stop context.CancelFunc, h *hostlink.Host, gs *gamestate.GameState) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "reload":
			h.Reload()
		case "shield":
			h.RefreshShield()
		case "gun":
			if len(fields) == 2 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					h.UpdateGun(uint8(n))
					continue
				}
			}
			fmt.Println("usage: gun <bullets>")
		case "vest":
			if len(fields) == 3 {
				s, err1 := strconv.Atoi(fields[1])
				hp, err2 := strconv.Atoi(fields[2])
				if err1 == nil && err2 == nil {
					h.UpdateVest(uint8(s), uint8(hp))
					continue
				}
			}
			fmt.Println("usage: vest <shield> <health>")
		case "save":
			if err := gs.Save(); err != nil {
				fmt.Printf("save failed: %v\n", err)
			} else {
				fmt.Println("state saved")
			}
		case "quit", "exit":
			stop()
			return
		default:
			fmt.Println("commands: reload, gun <n>, vest <s> <h>, shield, save, quit")
		}
	}
}
