// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package beetle_protocol

// Frame builder functions create Frame structs ready for encoding. These are
// convenience wrappers around NewFrame that ensure correct payload byte usage
// per the Beetle protocol specification.

// NewSyn creates a SYN frame ('S'). The host sends its last-known role state
// so the peripheral can resynchronise on reconnection: {bullets, 0} for the
// gun, {shield, health} for the vest. Handshake frames never consume a
// sequence number; seq is always 0.
func NewSyn(stateA, stateB uint8) *Frame {
	f := NewFrame(FrameSyn, 0)
	f.SetStateBytes(stateA, stateB)
	return f
}

// NewAck creates an ACK frame ('A') echoing the handshake role state
func NewAck(stateA, stateB uint8) *Frame {
	f := NewFrame(FrameAck, 0)
	f.SetStateBytes(stateA, stateB)
	return f
}

// NewNak creates a NAK frame ('N'). The seq field carries the sequence
// number the receiver expects next; the payload is ignored.
func NewNak(expected uint8) *Frame {
	return NewFrame(FrameNak, expected)
}

// NewKill creates a KILL frame ('K') instructing the peer to reset
func NewKill() *Frame {
	return NewFrame(FrameKill, 0)
}

// NewIMUData creates an IMU telemetry frame ('M'). IMU frames are
// best-effort: they carry no meaningful sequence number and are never
// acknowledged or retransmitted.
func NewIMUData(s IMUSample) *Frame {
	f := NewFrame(FrameIMU, 0)
	f.SetIMU(s)
	return f
}

// NewGunshot creates a GUNSHOT frame ('G') carrying the magazine count the
// gun intends to commit once the host echoes this sequence number
func NewGunshot(seq uint8, remainingBullets uint8) *Frame {
	f := NewFrame(FrameGunshot, seq)
	f.SetStateBytes(remainingBullets, 0)
	return f
}

// NewVestshot creates a VESTSHOT frame ('V') carrying post-damage shield and
// health
func NewVestshot(seq uint8, shield, health uint8) *Frame {
	f := NewFrame(FrameVestshot, seq)
	f.SetStateBytes(shield, health)
	return f
}

// NewReload creates a RELOAD frame ('R'). Sent host→gun as a command; the
// gun echoes the same type back as its acknowledgement.
func NewReload(seq uint8, remainingBullets uint8) *Frame {
	f := NewFrame(FrameReload, seq)
	f.SetStateBytes(remainingBullets, 0)
	return f
}

// NewUpdateState creates an UPDATE_STATE frame ('U') setting role state:
// {bullets, 0} for the gun, {shield, health} for the vest
func NewUpdateState(seq uint8, stateA, stateB uint8) *Frame {
	f := NewFrame(FrameUpdateState, seq)
	f.SetStateBytes(stateA, stateB)
	return f
}

// NewGunStateAck creates a GUNSTATE_ACK frame ('X') confirming a gun
// UPDATE_STATE at the given sequence number
func NewGunStateAck(seq uint8, remainingBullets uint8) *Frame {
	f := NewFrame(FrameGunStateAck, seq)
	f.SetStateBytes(remainingBullets, 0)
	return f
}

// NewVestStateAck creates a VESTSTATE_ACK frame ('W') confirming a vest
// UPDATE_STATE at the given sequence number
func NewVestStateAck(seq uint8, shield, health uint8) *Frame {
	f := NewFrame(FrameVestStateAck, seq)
	f.SetStateBytes(shield, health)
	return f
}
