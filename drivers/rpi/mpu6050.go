// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package rpi

import (
	"math"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// MPU-6050 registers
const (
	mpuAddr       = 0x68
	regPwrMgmt1   = 0x6B
	regWhoAmI     = 0x75
	regAccelXOutH = 0x3B

	whoAmIValue = 0x68

	// Full-scale defaults: ±2 g and ±250 °/s
	accelLSBPerG   = 16384.0
	gyroLSBPerDPS  = 131.0
	gravity        = 9.80665
	degreesPerRad  = 180.0 / math.Pi
)

// MPU6050 reads the inertial unit over I2C. A failed probe at construction
// is fatal for the peripheral: the main loop must not proceed to handshake
// without a working sensor.
type MPU6050 struct {
	bus i2c.BusCloser
	dev i2c.Dev
}

// NewMPU6050 opens the I2C bus ("" for the first available), verifies the
// chip identity and wakes it from sleep
func NewMPU6050(busName string) (*MPU6050, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open I2C bus")
	}

	m := &MPU6050{bus: bus, dev: i2c.Dev{Addr: mpuAddr, Bus: bus}}

	id := make([]byte, 1)
	if err := m.dev.Tx([]byte{regWhoAmI}, id); err != nil {
		_ = bus.Close()
		return nil, errors.Wrap(err, "MPU-6050 not responding")
	}
	if id[0] != whoAmIValue {
		_ = bus.Close()
		return nil, errors.Errorf("unexpected WHO_AM_I 0x%02X", id[0])
	}

	// Clear the sleep bit, internal oscillator
	if err := m.dev.Tx([]byte{regPwrMgmt1, 0x00}, nil); err != nil {
		_ = bus.Close()
		return nil, errors.Wrap(err, "failed to wake MPU-6050")
	}

	return m, nil
}

// Read implements peripheral.IMUPort: accelerometer in m/s², gyroscope in
// rad/s
func (m *MPU6050) Read() (ax, ay, az, gx, gy, gz float64, err error) {
	// 14 bytes: accel xyz, temperature, gyro xyz, all big-endian int16
	raw := make([]byte, 14)
	if err := m.dev.Tx([]byte{regAccelXOutH}, raw); err != nil {
		return 0, 0, 0, 0, 0, 0, errors.Wrap(err, "MPU-6050 burst read failed")
	}

	word := func(i int) int16 {
		return int16(uint16(raw[i])<<8 | uint16(raw[i+1]))
	}

	ax = float64(word(0)) / accelLSBPerG * gravity
	ay = float64(word(2)) / accelLSBPerG * gravity
	az = float64(word(4)) / accelLSBPerG * gravity
	gx = float64(word(8)) / gyroLSBPerDPS / degreesPerRad
	gy = float64(word(10)) / gyroLSBPerDPS / degreesPerRad
	gz = float64(word(12)) / gyroLSBPerDPS / degreesPerRad
	return ax, ay, az, gx, gy, gz, nil
}

// Close releases the I2C bus
func (m *MPU6050) Close() error {
	return m.bus.Close()
}
