// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package peripheral

import "errors"

var (
	// ErrKilled is returned when the host sends a KILL frame. The caller is
	// expected to restart the peripheral from power-up defaults.
	ErrKilled = errors.New("peripheral: kill received")

	// ErrDesync is returned when the host NAKs a frame that is no longer in
	// the retransmit window. The peripheral has already emitted KILL; the
	// caller restarts and waits for a fresh handshake.
	ErrDesync = errors.New("peripheral: sequence desync beyond window")

	// ErrConnClosed is returned when the underlying byte stream fails
	ErrConnClosed = errors.New("peripheral: connection closed")
)
