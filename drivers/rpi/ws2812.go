// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package rpi

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// WS2812 drives a GRB pixel strip through the SPI MOSI line. Each WS2812
// bit becomes four SPI bits at 3.2 MHz: 1000 for a zero, 1100 for a one,
// which lands inside the chip's timing tolerances without any kernel-level
// PWM support.
type WS2812 struct {
	port   spi.PortCloser
	conn   spi.Conn
	pixels [][3]uint8 // stored GRB
}

const ws2812Freq = 3200 * physic.KiloHertz

// NewWS2812 opens the SPI port ("" for the first available) for a strip of
// n pixels
func NewWS2812(portName string, n int) (*WS2812, error) {
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open SPI port")
	}
	conn, err := port.Connect(ws2812Freq, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, errors.Wrap(err, "failed to configure SPI")
	}
	return &WS2812{
		port:   port,
		conn:   conn,
		pixels: make([][3]uint8, n),
	}, nil
}

// SetPixel implements peripheral.LEDStripPort; colours are given as RGB and
// stored in the strip's GRB order
func (w *WS2812) SetPixel(i int, r, g, b uint8) {
	if i < 0 || i >= len(w.pixels) {
		return
	}
	w.pixels[i] = [3]uint8{g, r, b}
}

// Show implements peripheral.LEDStripPort: streams the whole strip followed
// by a latch gap of zero bytes
func (w *WS2812) Show() {
	// 3 colour bytes x 4 SPI bits per bit, plus >50 µs of low for the latch
	out := make([]byte, 0, len(w.pixels)*12+30)
	for _, p := range w.pixels {
		for _, c := range p {
			out = append(out, expandByte(c)...)
		}
	}
	out = append(out, make([]byte, 30)...)
	_ = w.conn.Tx(out, nil)
}

// expandByte maps one colour byte to four SPI bytes, two WS2812 bits each
func expandByte(c uint8) []byte {
	const (
		zero = 0x8 // 1000
		one  = 0xC // 1100
	)
	out := make([]byte, 4)
	for i := 0; i < 4; i++ {
		var hi, lo byte = zero, zero
		if c&(0x80>>(i*2)) != 0 {
			hi = one
		}
		if c&(0x40>>(i*2)) != 0 {
			lo = one
		}
		out[i] = hi<<4 | lo
	}
	return out
}

// Close releases the SPI port
func (w *WS2812) Close() error {
	return w.port.Close()
}
