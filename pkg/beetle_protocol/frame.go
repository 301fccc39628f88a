// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package beetle_protocol

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Frame represents one decoded Beetle protocol frame
type Frame struct {
	frameType byte
	seq       uint8
	payload   [PayloadSize]byte
	crc       uint8
	timestamp time.Time
}

// NewFrame creates a frame of the given type and sequence number with a
// zero payload
func NewFrame(frameType byte, seq uint8) *Frame {
	return &Frame{
		frameType: frameType,
		seq:       seq,
		timestamp: time.Now(),
	}
}

// Type returns the frame's type code (one printable ASCII character)
func (f *Frame) Type() byte {
	return f.frameType
}

// Seq returns the frame's sequence number. For NAK frames this is the
// sequence number the sender expects, not a number it has consumed.
func (f *Frame) Seq() uint8 {
	return f.seq
}

// SetSeq stamps the frame's sequence number. The link engine assigns
// sequence numbers at transmit time, overwriting whatever seq the frame was
// built with.
func (f *Frame) SetSeq(seq uint8) {
	f.seq = seq
}

// Payload returns the frame's 16 payload bytes
func (f *Frame) Payload() []byte {
	return f.payload[:]
}

// CRC returns the frame's CRC value as read by DecodeFrame or last computed
// by Encode; zero for a built frame that has not been encoded yet
func (f *Frame) CRC() uint8 {
	return f.crc
}

// Timestamp returns the frame's decode timestamp
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}

// StateBytes returns the two role-state bytes carried at the head of the
// payload: {remainingBullets, 0} for the gun, {shield, health} for the vest.
func (f *Frame) StateBytes() (uint8, uint8) {
	return f.payload[0], f.payload[1]
}

// SetStateBytes writes the two role-state bytes at the head of the payload
func (f *Frame) SetStateBytes(a, b uint8) {
	f.payload[0] = a
	f.payload[1] = b
}

// IMUSample holds one inertial reading, already offset-corrected and scaled
// by 100 into int16 range
type IMUSample struct {
	AccX, AccY, AccZ int16
	GyrX, GyrY, GyrZ int16
}

// SetIMU writes the six little-endian int16 sensor values into the payload
func (f *Frame) SetIMU(s IMUSample) {
	vals := [6]int16{s.AccX, s.AccY, s.AccZ, s.GyrX, s.GyrY, s.GyrZ}
	for i, v := range vals {
		binary.LittleEndian.PutUint16(f.payload[i*2:i*2+2], uint16(v))
	}
}

// IMU reads the six little-endian int16 sensor values from the payload
func (f *Frame) IMU() IMUSample {
	var vals [6]int16
	for i := range vals {
		vals[i] = int16(binary.LittleEndian.Uint16(f.payload[i*2 : i*2+2]))
	}
	return IMUSample{
		AccX: vals[0], AccY: vals[1], AccZ: vals[2],
		GyrX: vals[3], GyrY: vals[4], GyrZ: vals[5],
	}
}

// Encode serializes the frame to its 20-byte wire format, computing the CRC
// over bytes 0..18
func (f *Frame) Encode() []byte {
	data := make([]byte, FrameSize)
	data[offsetType] = f.frameType
	data[offsetSeq] = f.seq
	copy(data[offsetPayload:offsetPayload+PayloadSize], f.payload[:])
	data[offsetCRC] = CalculateCRC(data[:offsetCRC])
	f.crc = data[offsetCRC]
	return data
}

// CRCError reports a frame whose trailing CRC did not match the checksum
// computed over its first 19 bytes
type CRCError struct {
	Expected uint8
	Got      uint8
}

// Error implements the error interface
func (e *CRCError) Error() string {
	return fmt.Sprintf("CRC mismatch: expected 0x%02X, got 0x%02X", e.Expected, e.Got)
}

// DecodeFrame parses a 20-byte candidate frame, verifying its CRC.
// The input slice must be exactly FrameSize bytes.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) != FrameSize {
		return nil, fmt.Errorf("invalid frame size: %d (want %d)", len(data), FrameSize)
	}

	calculated := CalculateCRC(data[:offsetCRC])
	if data[offsetCRC] != calculated {
		return nil, &CRCError{Expected: calculated, Got: data[offsetCRC]}
	}

	f := &Frame{
		frameType: data[offsetType],
		seq:       data[offsetSeq],
		crc:       data[offsetCRC],
		timestamp: time.Now(),
	}
	copy(f.payload[:], data[offsetPayload:offsetPayload+PayloadSize])
	return f, nil
}
