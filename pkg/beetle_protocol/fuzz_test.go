// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package beetle_protocol

import (
	"bytes"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

var fuzzFrameTypes = []byte{
	FrameSyn, FrameAck, FrameNak, FrameKill, FrameIMU,
	FrameGunshot, FrameVestshot, FrameReload, FrameUpdateState,
	FrameGunStateAck, FrameVestStateAck,
}

func randomFrame(rng *rand.Rand) *Frame {
	f := NewFrame(fuzzFrameTypes[rng.Intn(len(fuzzFrameTypes))], uint8(rng.Intn(256)))
	payload := make([]byte, PayloadSize)
	rng.Read(payload)
	copy(f.payload[:], payload)
	return f
}

// FuzzRoundTrip: any frame must survive encode → decode unchanged
func TestFuzz_RoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		f := randomFrame(rng)
		decoded, err := DecodeFrame(f.Encode())
		if err != nil {
			t.Fatalf("Round %d: decode error: %v", i, err)
		}
		if decoded.Type() != f.Type() || decoded.Seq() != f.Seq() || !bytes.Equal(decoded.Payload(), f.Payload()) {
			t.Fatalf("Round %d: roundtrip mismatch", i)
		}
	}
}

// FuzzCorruption: a random single-byte corruption is rejected unless the
// mutation happens to leave the byte unchanged
func TestFuzz_Corruption(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		data := randomFrame(rng).Encode()
		idx := rng.Intn(FrameSize)
		mutation := byte(rng.Intn(255) + 1) // never zero
		data[idx] ^= mutation

		if _, err := DecodeFrame(data); err == nil {
			t.Fatalf("Round %d: corruption of byte %d (xor 0x%02X) accepted", i, idx, mutation)
		}
	}
}

// FuzzGarbageStream: arbitrary bytes through the stream decoder must never
// panic, and every frame that comes out must carry a valid CRC
func TestFuzz_GarbageStream(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	d := NewDecoder()
	for i := 0; i < rounds; i++ {
		chunk := make([]byte, rng.Intn(64))
		rng.Read(chunk)
		d.Push(chunk)

		for {
			frame, err := d.Next()
			if err != nil {
				continue
			}
			if frame == nil {
				break
			}
			raw := frame.Encode()
			if CalculateCRC(raw[:offsetCRC]) != raw[offsetCRC] {
				t.Fatalf("Round %d: decoder emitted frame with bad CRC", i)
			}
		}
	}
}

// FuzzInterleaved: valid frames interleaved with garbage; every valid frame
// after a flush-recovery boundary must eventually decode
func TestFuzz_InterleavedGarbage(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds() / 10

	for i := 0; i < rounds; i++ {
		d := NewDecoder()

		garbage := make([]byte, rng.Intn(FrameSize*2))
		rng.Read(garbage)
		d.Push(garbage)

		// Drain whatever the garbage produced, flushing on CRC errors
		for {
			frame, err := d.Next()
			if err == nil && frame == nil {
				break
			}
		}

		// A clean frame pushed after the buffer settles must decode
		want := randomFrame(rng)
		d.Reset()
		d.Push(want.Encode())
		frame, err := d.Next()
		if err != nil {
			t.Fatalf("Round %d: decode after garbage: %v", i, err)
		}
		if frame == nil || frame.Type() != want.Type() {
			t.Fatalf("Round %d: lost frame after garbage", i)
		}
	}
}
