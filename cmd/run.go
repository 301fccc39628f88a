// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package cmd

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lumitag/beetlelink/drivers/rpi"
	"github.com/lumitag/beetlelink/drivers/stub"
	"github.com/lumitag/beetlelink/pkg/necir"
	"github.com/lumitag/beetlelink/pkg/peripheral"
)

// How long to wait before reopening a dead connection
const reconnectInterval = 5 * time.Second

var log = logrus.WithField("cmd", "beetlelink")

// portSet carries whichever capability ports a role needs
type portSet struct {
	trigger peripheral.TriggerPort
	irTx    peripheral.IRTransmitterPort
	irRx    peripheral.IRReceiverPort
	leds    peripheral.LEDStripPort
	imu     peripheral.IMUPort
}

// Default hardware attachment points, overridable via config pins
const (
	defaultTriggerPin = "GPIO17"
	defaultIRTxPin    = "GPIO18"
	defaultIRRxPin    = "GPIO23"
)

func pinOr(pin, fallback string) string {
	if pin != "" {
		return pin
	}
	return fallback
}

// buildPorts assembles the role's capability ports: simulated stubs with
// --sim, periph.io hardware otherwise. A sensor that fails to initialise is
// fatal; the peripheral must not proceed to handshake without it.
func buildPorts(role peripheral.RoleID, dev *DeviceConfig, ledCount int) (*portSet, error) {
	if simMode {
		ps := &portSet{leds: stub.NewLEDStrip(ledCount)}
		switch role {
		case peripheral.RoleGun:
			ps.trigger = stub.NewTrigger()
			ps.irTx = stub.NewIRTransmitter()
			ps.imu = stub.NewIMU()
		case peripheral.RoleVest:
			ps.irRx = stub.NewIRReceiver()
		case peripheral.RoleHand:
			ps.imu = stub.NewIMU()
		}
		return ps, nil
	}

	if err := rpi.Init(); err != nil {
		return nil, err
	}

	var pins PinConfig
	if dev != nil {
		pins = dev.Pins
	}

	ps := &portSet{}
	var err error
	switch role {
	case peripheral.RoleGun:
		if ps.trigger, err = rpi.NewTrigger(pinOr(pins.Trigger, defaultTriggerPin)); err != nil {
			return nil, err
		}
		if ps.irTx, err = rpi.NewIRTransmitter(pinOr(pins.IRTx, defaultIRTxPin)); err != nil {
			return nil, err
		}
		if ps.leds, err = rpi.NewWS2812(pins.LEDPort, ledCount); err != nil {
			return nil, err
		}
		if ps.imu, err = rpi.NewMPU6050(pins.I2CBus); err != nil {
			return nil, err
		}
	case peripheral.RoleVest:
		if ps.irRx, err = rpi.NewIRReceiver(pinOr(pins.IRRx, defaultIRRxPin)); err != nil {
			return nil, err
		}
		if ps.leds, err = rpi.NewWS2812(pins.LEDPort, ledCount); err != nil {
			return nil, err
		}
	case peripheral.RoleHand:
		if ps.imu, err = rpi.NewMPU6050(pins.I2CBus); err != nil {
			return nil, err
		}
	}
	return ps, nil
}

// makeRole builds a fresh role instance; a restart after KILL starts from
// power-up defaults
func makeRole(role peripheral.RoleID, ps *portSet) peripheral.Role {
	switch role {
	case peripheral.RoleGun:
		return peripheral.NewGun(ps.trigger, ps.irTx, ps.leds)
	case peripheral.RoleVest:
		return peripheral.NewVest(ps.irRx, ps.leds)
	default:
		return peripheral.NewHand()
	}
}

// runRole is the shared daemon body for the gun, vest and hand commands:
// connect, run the link until it dies, reconnect forever
func runRole(role peripheral.RoleID, ledCount int) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	dev := cfg.Device(string(role))

	ports, err := buildPorts(role, dev, ledCount)
	if err != nil {
		log.Errorf("%s: driver init failed: %v", role, err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if simMode {
		go simInputLoop(ctx, role, ports)
	}

	var opts []peripheral.Option
	if ports.imu != nil {
		var cal CalibrationConfig
		if dev != nil {
			cal = dev.Calibration
		}
		opts = append(opts, peripheral.WithIMU(ports.imu, cal.calibration()))
	}

	for {
		conn, info, err := OpenConnection(dev)
		if err != nil {
			log.Errorf("%s: %v; retrying in %s", role, err, reconnectInterval)
			if !sleepCtx(ctx, reconnectInterval) {
				return nil
			}
			continue
		}
		log.Infof("%s: connected via %s", role, info)

		p := peripheral.New(makeRole(role, ports), conn, opts...)
		err = p.Run(ctx)
		_ = conn.Close()

		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, peripheral.ErrKilled), errors.Is(err, peripheral.ErrDesync):
			log.Warnf("%s: link reset (%v), restarting", role, err)
		default:
			log.Warnf("%s: connection lost (%v); retrying in %s", role, err, reconnectInterval)
			if !sleepCtx(ctx, reconnectInterval) {
				return nil
			}
		}
	}
}

// sleepCtx sleeps unless the context ends first; returns false on cancel
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// simInputLoop turns stdin lines into simulated inputs: a line pulls the
// gun trigger or lands a hit on the vest
func simInputLoop(ctx context.Context, role peripheral.RoleID, ps *portSet) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch role {
		case peripheral.RoleGun:
			trigger, ok := ps.trigger.(*stub.Trigger)
			if !ok {
				return
			}
			trigger.Press()
			time.Sleep(60 * time.Millisecond)
			trigger.Release()
			log.Info("sim: trigger pulled")
		case peripheral.RoleVest:
			rx, ok := ps.irRx.(*stub.IRReceiver)
			if !ok {
				return
			}
			rx.Inject(necir.ShotRawCode)
			log.Info("sim: hit landed")
		}
	}
}
