// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package beetle_protocol

import "fmt"

// FormatFrame formats a frame into a human-readable string
func FormatFrame(f *Frame) string {
	timestamp := f.Timestamp().Format("15:04:05.000")
	frameType := FormatFrameType(f.Type())

	result := fmt.Sprintf("[%s] %s ('%c') seq=%d\n", timestamp, frameType, f.Type(), f.Seq())
	result += FormatPayload(f.Type(), f)
	return result
}

// FormatFrameType returns the human-readable name for a frame type
func FormatFrameType(frameType byte) string {
	switch frameType {
	case FrameSyn:
		return "SYN"
	case FrameAck:
		return "ACK"
	case FrameNak:
		return "NAK"
	case FrameKill:
		return "KILL"
	case FrameIMU:
		return "IMU"
	case FrameGunshot:
		return "GUNSHOT"
	case FrameVestshot:
		return "VESTSHOT"
	case FrameReload:
		return "RELOAD"
	case FrameUpdateState:
		return "UPDATE_STATE"
	case FrameGunStateAck:
		return "GUNSTATE_ACK"
	case FrameVestStateAck:
		return "VESTSTATE_ACK"
	default:
		return "UNKNOWN"
	}
}

// FormatPayload formats the payload based on frame type
func FormatPayload(frameType byte, f *Frame) string {
	switch frameType {
	case FrameIMU:
		s := f.IMU()
		return fmt.Sprintf("  Accel: X=%d, Y=%d, Z=%d\n  Gyro:  X=%d, Y=%d, Z=%d\n",
			s.AccX, s.AccY, s.AccZ, s.GyrX, s.GyrY, s.GyrZ)

	case FrameGunshot, FrameReload, FrameGunStateAck:
		bullets, _ := f.StateBytes()
		return fmt.Sprintf("  Bullets: %d\n", bullets)

	case FrameVestshot, FrameVestStateAck:
		shield, health := f.StateBytes()
		return fmt.Sprintf("  Shield: %d, Health: %d\n", shield, health)

	case FrameSyn, FrameAck, FrameUpdateState:
		a, b := f.StateBytes()
		return fmt.Sprintf("  State: [%d, %d]\n", a, b)

	case FrameNak:
		return fmt.Sprintf("  Expected seq: %d\n", f.Seq())

	case FrameKill:
		return "  (no payload)\n"
	}

	// Default: hex dump
	result := "  Payload: "
	for i, b := range f.Payload() {
		if i > 0 && i%16 == 0 {
			result += "\n           "
		}
		result += fmt.Sprintf("%02X ", b)
	}
	return result + "\n"
}
