// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package rpi

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Trigger samples an active-high momentary switch on a GPIO pin. Debouncing
// is the link engine's job; this port only reports the raw level.
type Trigger struct {
	pin gpio.PinIO
}

// NewTrigger opens the named pin (e.g. "GPIO17") with a pull-down so the
// released level reads low
func NewTrigger(pinName string) (*Trigger, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, errors.Errorf("no such pin %q", pinName)
	}
	if err := pin.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "failed to configure %s as input", pinName)
	}
	return &Trigger{pin: pin}, nil
}

// Pressed implements peripheral.TriggerPort
func (t *Trigger) Pressed() bool {
	return t.pin.Read() == gpio.High
}
