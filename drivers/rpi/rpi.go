// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

// Package rpi implements the peripheral capability ports on top of periph.io
// for single-board computers (tested on Raspberry Pi): a GPIO trigger
// switch, an MPU-6050 inertial unit on I2C, a WS2812 pixel strip driven over
// SPI, and GPIO-timed NEC infrared transmit/receive.
package rpi

import (
	"github.com/pkg/errors"
	"periph.io/x/host/v3"
)

// Init initialises the periph host drivers. Must be called once before any
// port constructor.
func Init() error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "periph host init failed")
	}
	return nil
}
