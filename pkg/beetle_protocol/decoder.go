// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package beetle_protocol

import "errors"

// Input buffer capacity. The protocol only requires 2x the frame size; extra
// headroom absorbs a burst read without reallocating.
const maxBufferSize = 8 * FrameSize

// Decoder reassembles the incoming byte stream into fixed 20-byte frames.
//
// There is no inter-frame delimiter on the wire. While the buffer holds at
// least one frame's worth of bytes the decoder extracts a candidate and
// verifies its CRC. A CRC failure almost certainly means a byte was lost or
// inserted mid-stream, so the whole buffer is discarded to re-align; the
// caller is expected to request the missing frame again with a NAK.
type Decoder struct {
	buffer []byte
}

// NewDecoder creates a new stream decoder
func NewDecoder() *Decoder {
	return &Decoder{
		buffer: make([]byte, 0, maxBufferSize),
	}
}

// Reset discards all buffered input
func (d *Decoder) Reset() {
	d.buffer = d.buffer[:0]
}

// Buffered returns the number of bytes waiting in the reassembly buffer
func (d *Decoder) Buffered() int {
	return len(d.buffer)
}

// Push appends raw bytes read from the wire to the reassembly buffer.
// If the buffer overflows, the oldest bytes are dropped; the next CRC
// failure re-aligns the stream.
func (d *Decoder) Push(data []byte) {
	d.buffer = append(d.buffer, data...)
	if len(d.buffer) > maxBufferSize {
		excess := len(d.buffer) - maxBufferSize
		d.buffer = append(d.buffer[:0], d.buffer[excess:]...)
	}
}

// Next extracts one complete frame from the buffer.
// Returns (nil, nil) when fewer than FrameSize bytes are buffered.
// On CRC mismatch the entire buffer is flushed and the CRCError returned;
// the caller should answer with NAK(rx_expected).
func (d *Decoder) Next() (*Frame, error) {
	if len(d.buffer) < FrameSize {
		return nil, nil
	}

	frame, err := DecodeFrame(d.buffer[:FrameSize])
	if err != nil {
		var crcErr *CRCError
		if errors.As(err, &crcErr) {
			d.Reset()
		}
		return nil, err
	}

	d.buffer = append(d.buffer[:0], d.buffer[FrameSize:]...)
	return frame, nil
}
