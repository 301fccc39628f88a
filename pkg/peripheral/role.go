// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package peripheral

import (
	"time"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
)

// RoleID identifies which payload semantics a peripheral gives to protocol
// frames
type RoleID string

const (
	RoleGun  RoleID = "gun"
	RoleVest RoleID = "vest"
	RoleHand RoleID = "hand"
)

// Role is the per-device logic the link engine drives: gun magazine and shot
// sequencing, vest damage arithmetic, or nothing at all for the hand unit.
// All methods are called from the engine's single loop.
type Role interface {
	ID() RoleID

	// ShotType returns the self-originated data frame type the host confirms
	// by echoing its sequence number, or 0 if the role originates none
	ShotType() byte

	// StageHandshake latches the host-chosen state carried in a SYN into the
	// pending copy; the closing ACK promotes it
	StageHandshake(a, b uint8)

	// Promote applies the pending state to canonical and redraws the LEDs
	Promote()

	// Discard drops the pending state after the retransmit budget is spent
	Discard()

	// WireState returns the two state bytes outgoing frames report: the
	// pending values while a mutation is unconfirmed, canonical otherwise
	WireState() (uint8, uint8)

	// Poll samples the role's inputs (trigger, IR receiver) and returns a
	// data frame to originate, or nil. The engine stamps the sequence number
	// and tracks the acknowledgement. ready is false while a frame is still
	// in flight; the role keeps its input state fresh but must not originate.
	Poll(now time.Time, ready bool) *beetle.Frame

	// HandleCommand processes an in-order host command frame: stages the
	// commanded state and returns the reply frame. Returns nil for command
	// types the role does not accept.
	HandleCommand(f *beetle.Frame) *beetle.Frame
}
