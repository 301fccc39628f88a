// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package peripheral

import (
	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
)

// Calibration holds per-unit zero offsets subtracted from raw sensor values
// before scaling: accelerometer in m/s², gyroscope in rad/s.
type Calibration struct {
	AccX, AccY, AccZ float64
	GyrX, GyrY, GyrZ float64
}

type imuSampler struct {
	port IMUPort
	cal  Calibration
}

// scale converts an offset-corrected sensor value to the wire encoding:
// value × 100 clamped into int16 range
func scale(v, offset float64) int16 {
	scaled := (v - offset) * 100
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}

func (s *imuSampler) sample() (beetle.IMUSample, error) {
	ax, ay, az, gx, gy, gz, err := s.port.Read()
	if err != nil {
		return beetle.IMUSample{}, err
	}
	return beetle.IMUSample{
		AccX: scale(ax, s.cal.AccX),
		AccY: scale(ay, s.cal.AccY),
		AccZ: scale(az, s.cal.AccZ),
		GyrX: scale(gx, s.cal.GyrX),
		GyrY: scale(gy, s.cal.GyrY),
		GyrZ: scale(gz, s.cal.GyrZ),
	}, nil
}
