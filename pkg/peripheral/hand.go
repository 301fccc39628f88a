// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package peripheral

import (
	"time"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
)

// Hand implements the glove role. It originates nothing but IMU telemetry,
// which the engine's sampler handles; the role itself only answers the
// handshake.
type Hand struct{}

// NewHand creates the hand role; the IMU is attached to the engine with
// WithIMU
func NewHand() *Hand { return &Hand{} }

// ID implements Role
func (h *Hand) ID() RoleID { return RoleHand }

// ShotType implements Role: the hand originates no sequence-tracked frames
func (h *Hand) ShotType() byte { return 0 }

// StageHandshake implements Role; the hand carries no role state
func (h *Hand) StageHandshake(_, _ uint8) {}

// Promote implements Role
func (h *Hand) Promote() {}

// Discard implements Role
func (h *Hand) Discard() {}

// WireState implements Role
func (h *Hand) WireState() (uint8, uint8) { return 0, 0 }

// Poll implements Role
func (h *Hand) Poll(_ time.Time, _ bool) *beetle.Frame { return nil }

// HandleCommand implements Role
func (h *Hand) HandleCommand(_ *beetle.Frame) *beetle.Frame { return nil }
