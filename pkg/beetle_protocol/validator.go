// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package beetle_protocol

import "fmt"

// AnomalyType represents different types of frame anomalies
type AnomalyType int

const (
	AnomalyUnknownType AnomalyType = iota
	AnomalyBulletRange
	AnomalyShieldRange
	AnomalyHealthRange
	AnomalyCRCError
	AnomalyDecodeError
)

// ValidationError represents a frame validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateFrame validates frame contents and detects anomalies. A frame that
// fails validation still passed its CRC check; these are semantic checks on
// the carried values. Returns a slice of validation errors (empty if the
// frame is valid).
func ValidateFrame(f *Frame) []ValidationError {
	errors := []ValidationError{}

	switch f.Type() {
	case FrameSyn, FrameAck, FrameNak, FrameKill, FrameIMU, FrameUpdateState:
		// SYN/ACK/UPDATE_STATE state bytes are role dependent and cannot be
		// range checked without knowing the role; IMU values are raw sensor
		// readings with no invalid encodings.

	case FrameGunshot, FrameReload, FrameGunStateAck:
		bullets, _ := f.StateBytes()
		if bullets > MagazineSize {
			errors = append(errors, ValidationError{
				Type:    AnomalyBulletRange,
				Message: fmt.Sprintf("Invalid bullet count %d (max %d)", bullets, MagazineSize),
			})
		}

	case FrameVestshot, FrameVestStateAck:
		shield, health := f.StateBytes()
		if shield > MaxShield {
			errors = append(errors, ValidationError{
				Type:    AnomalyShieldRange,
				Message: fmt.Sprintf("Invalid shield %d (max %d)", shield, MaxShield),
			})
		}
		if health > MaxHealth {
			errors = append(errors, ValidationError{
				Type:    AnomalyHealthRange,
				Message: fmt.Sprintf("Invalid health %d (max %d)", health, MaxHealth),
			})
		}

	default:
		errors = append(errors, ValidationError{
			Type:    AnomalyUnknownType,
			Message: fmt.Sprintf("Unknown frame type 0x%02X", f.Type()),
		})
	}

	return errors
}
