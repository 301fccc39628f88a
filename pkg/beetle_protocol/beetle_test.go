// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package beetle_protocol

import (
	"bytes"
	"testing"
)

// ============================================================
// CRC Tests
// ============================================================

func TestCalculateCRC_Empty(t *testing.T) {
	crc := CalculateCRC([]byte{})
	if crc != crcInitial {
		t.Errorf("CRC of empty data should be initial value, got 0x%02X", crc)
	}
}

func TestCalculateCRC_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint8
	}{
		{
			name:     "ASCII '123456789'",
			data:     []byte("123456789"),
			expected: 0xF4, // Standard CRC-8 check value
		},
		{
			name:     "single 0x01",
			data:     []byte{0x01},
			expected: 0x07,
		},
		{
			name:     "single zero byte",
			data:     []byte{0x00},
			expected: 0x00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crc := CalculateCRC(tt.data)
			if crc != tt.expected {
				t.Errorf("CRC mismatch: expected 0x%02X, got 0x%02X", tt.expected, crc)
			}
		})
	}
}

func TestCalculateCRC_Deterministic(t *testing.T) {
	data := []byte{'G', 0x00, 0x05, 0x00, 0x00, 0x00}
	crc1 := CalculateCRC(data)
	crc2 := CalculateCRC(data)
	if crc1 != crc2 {
		t.Errorf("CRC should be deterministic: 0x%02X != 0x%02X", crc1, crc2)
	}
}

// ============================================================
// Frame Tests
// ============================================================

func TestEncodeFrame_Size(t *testing.T) {
	f := NewGunshot(0, 5)
	data := f.Encode()
	if len(data) != FrameSize {
		t.Fatalf("Encoded frame size %d, want %d", len(data), FrameSize)
	}
}

func TestEncodeFrame_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
	}{
		{"SYN with vest state", NewSyn(0, 100)},
		{"ACK", NewAck(0, 100)},
		{"NAK expecting 7", NewNak(7)},
		{"KILL", NewKill()},
		{"gunshot seq 3", NewGunshot(3, 4)},
		{"vestshot", NewVestshot(12, 25, 95)},
		{"reload", NewReload(0, MagazineSize)},
		{"update state", NewUpdateState(9, 3, 0)},
		{"gun state ack", NewGunStateAck(9, 3)},
		{"vest state ack", NewVestStateAck(2, 30, 100)},
		{"imu", NewIMUData(IMUSample{AccX: -981, AccY: 12, AccZ: 32767, GyrX: -32768, GyrY: 0, GyrZ: 100})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.frame.Encode()
			decoded, err := DecodeFrame(data)
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if decoded.Type() != tt.frame.Type() {
				t.Errorf("Type mismatch: got '%c', want '%c'", decoded.Type(), tt.frame.Type())
			}
			if decoded.Seq() != tt.frame.Seq() {
				t.Errorf("Seq mismatch: got %d, want %d", decoded.Seq(), tt.frame.Seq())
			}
			if !bytes.Equal(decoded.Payload(), tt.frame.Payload()) {
				t.Errorf("Payload mismatch: got % X, want % X", decoded.Payload(), tt.frame.Payload())
			}
		})
	}
}

func TestDecodeFrame_WrongSize(t *testing.T) {
	if _, err := DecodeFrame(make([]byte, FrameSize-1)); err == nil {
		t.Error("Expected error for short frame")
	}
	if _, err := DecodeFrame(make([]byte, FrameSize+1)); err == nil {
		t.Error("Expected error for long frame")
	}
}

// Every single-bit corruption of a valid frame must be rejected; CRC-8
// detects all single-bit errors.
func TestDecodeFrame_SingleBitFlip(t *testing.T) {
	f := NewVestshot(5, 25, 95)
	data := f.Encode()

	for byteIdx := 0; byteIdx < FrameSize; byteIdx++ {
		for bit := 0; bit < 8; bit++ {
			corrupted := make([]byte, FrameSize)
			copy(corrupted, data)
			corrupted[byteIdx] ^= 1 << bit

			if _, err := DecodeFrame(corrupted); err == nil {
				t.Errorf("Flip of byte %d bit %d was not rejected", byteIdx, bit)
			}
		}
	}
}

func TestFrame_IMURoundTrip(t *testing.T) {
	sample := IMUSample{AccX: -100, AccY: 200, AccZ: -300, GyrX: 400, GyrY: -500, GyrZ: 600}
	f := NewIMUData(sample)
	if got := f.IMU(); got != sample {
		t.Errorf("IMU roundtrip mismatch: got %+v, want %+v", got, sample)
	}
}

func TestFrame_StateBytes(t *testing.T) {
	f := NewFrame(FrameUpdateState, 1)
	f.SetStateBytes(3, 0)
	a, b := f.StateBytes()
	if a != 3 || b != 0 {
		t.Errorf("StateBytes: got (%d, %d), want (3, 0)", a, b)
	}
}

// ============================================================
// Decoder Tests
// ============================================================

func TestDecoder_SingleFrame(t *testing.T) {
	d := NewDecoder()
	d.Push(NewGunshot(0, 5).Encode())

	frame, err := d.Next()
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if frame == nil {
		t.Fatal("Expected a frame")
	}
	if frame.Type() != FrameGunshot {
		t.Errorf("Type: got '%c', want 'G'", frame.Type())
	}
	if d.Buffered() != 0 {
		t.Errorf("Buffer should be drained, %d bytes left", d.Buffered())
	}
}

func TestDecoder_SplitDelivery(t *testing.T) {
	d := NewDecoder()
	data := NewVestshot(2, 30, 100).Encode()

	// Feed one byte at a time; the frame completes only on the last byte
	for i, b := range data {
		d.Push([]byte{b})
		frame, err := d.Next()
		if err != nil {
			t.Fatalf("Next error at byte %d: %v", i, err)
		}
		if i < len(data)-1 && frame != nil {
			t.Fatalf("Frame completed early at byte %d", i)
		}
		if i == len(data)-1 && frame == nil {
			t.Fatal("Frame not completed after final byte")
		}
	}
}

func TestDecoder_BackToBackFrames(t *testing.T) {
	d := NewDecoder()
	var stream []byte
	for seq := uint8(0); seq < 3; seq++ {
		stream = append(stream, NewGunshot(seq, 5-seq).Encode()...)
	}
	d.Push(stream)

	for seq := uint8(0); seq < 3; seq++ {
		frame, err := d.Next()
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		if frame == nil {
			t.Fatalf("Missing frame %d", seq)
		}
		if frame.Seq() != seq {
			t.Errorf("Seq: got %d, want %d", frame.Seq(), seq)
		}
	}
}

func TestDecoder_CRCMismatchFlushesBuffer(t *testing.T) {
	d := NewDecoder()

	corrupted := NewUpdateState(0, 3, 0).Encode()
	corrupted[5] ^= 0xFF
	d.Push(corrupted)
	d.Push(NewUpdateState(1, 4, 0).Encode())

	_, err := d.Next()
	if err == nil {
		t.Fatal("Expected CRC error")
	}
	if _, ok := err.(*CRCError); !ok {
		t.Fatalf("Expected *CRCError, got %T", err)
	}

	// The good frame behind the corrupted one is gone too: the whole buffer
	// is discarded to re-align the stream.
	if d.Buffered() != 0 {
		t.Errorf("Buffer not flushed after CRC error: %d bytes", d.Buffered())
	}
}

func TestDecoder_RecoversAfterFlush(t *testing.T) {
	d := NewDecoder()

	corrupted := NewGunshot(0, 5).Encode()
	corrupted[0] ^= 0x01
	d.Push(corrupted)

	if _, err := d.Next(); err == nil {
		t.Fatal("Expected CRC error")
	}

	// Retransmission arrives; decoding proceeds normally
	d.Push(NewGunshot(0, 5).Encode())
	frame, err := d.Next()
	if err != nil {
		t.Fatalf("Next error after flush: %v", err)
	}
	if frame == nil || frame.Type() != FrameGunshot {
		t.Fatal("Expected gunshot frame after recovery")
	}
}

func TestDecoder_PartialFrameReturnsNil(t *testing.T) {
	d := NewDecoder()
	d.Push(make([]byte, FrameSize-1))
	frame, err := d.Next()
	if frame != nil || err != nil {
		t.Errorf("Partial frame: got (%v, %v), want (nil, nil)", frame, err)
	}
}

// ============================================================
// Validator Tests
// ============================================================

func TestValidateFrame(t *testing.T) {
	tests := []struct {
		name      string
		frame     *Frame
		wantCount int
	}{
		{"valid gunshot", NewGunshot(0, 5), 0},
		{"bullets over magazine", NewGunshot(0, 9), 1},
		{"valid vestshot", NewVestshot(0, 30, 100), 0},
		{"shield too high", NewVestshot(0, 31, 100), 1},
		{"health too high", NewVestshot(0, 0, 120), 1},
		{"shield and health both bad", NewVestshot(0, 200, 200), 2},
		{"unknown type", NewFrame('Z', 0), 1},
		{"imu always valid", NewIMUData(IMUSample{}), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateFrame(tt.frame)
			if len(errs) != tt.wantCount {
				t.Errorf("ValidateFrame: got %d errors (%v), want %d", len(errs), errs, tt.wantCount)
			}
		})
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Update(t *testing.T) {
	s := NewStatistics()

	s.Update(NewGunshot(0, 5), nil, nil)
	s.Update(NewIMUData(IMUSample{}), nil, nil)
	s.Update(nil, &CRCError{Expected: 0x10, Got: 0x20}, nil)
	bad := NewGunshot(1, 9)
	s.Update(bad, nil, ValidateFrame(bad))

	if s.TotalFrames != 4 {
		t.Errorf("TotalFrames: got %d, want 4", s.TotalFrames)
	}
	if s.ValidFrames != 2 {
		t.Errorf("ValidFrames: got %d, want 2", s.ValidFrames)
	}
	if s.CRCErrors != 1 {
		t.Errorf("CRCErrors: got %d, want 1", s.CRCErrors)
	}
	if s.MalformedFrames != 1 {
		t.Errorf("MalformedFrames: got %d, want 1", s.MalformedFrames)
	}
	if s.GunshotFrames != 2 {
		t.Errorf("GunshotFrames: got %d, want 2", s.GunshotFrames)
	}
}
