// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package rpi

import (
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/lumitag/beetlelink/pkg/necir"
)

// NEC timing. The emitter module carries its own 38 kHz oscillator, so the
// GPIO only gates mark/space envelopes; the receiver module demodulates and
// presents the same envelope back.
const (
	necUnit       = 562500 * time.Nanosecond
	necLeadMark   = 16 * necUnit // 9 ms
	necLeadSpace  = 8 * necUnit  // 4.5 ms
	necBitMark    = necUnit
	necZeroSpace  = necUnit
	necOneSpace   = 3 * necUnit
	necTolerance  = necUnit / 2
	necFrameGuard = 15 * time.Millisecond
)

// IRTransmitter emits NEC frames by gating a modulated IR LED module
type IRTransmitter struct {
	pin gpio.PinIO
}

// NewIRTransmitter opens the named output pin (e.g. "GPIO18")
func NewIRTransmitter(pinName string) (*IRTransmitter, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, errors.Errorf("no such pin %q", pinName)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, errors.Wrapf(err, "failed to configure %s as output", pinName)
	}
	return &IRTransmitter{pin: pin}, nil
}

// SendNEC implements peripheral.IRTransmitterPort: lead pulse, then the
// code's bits first-transmitted-first from the most significant end
func (t *IRTransmitter) SendNEC(code uint32, bits int) error {
	t.mark(necLeadMark)
	t.space(necLeadSpace)

	for i := bits - 1; i >= 0; i-- {
		t.mark(necBitMark)
		if code&(1<<uint(i)) != 0 {
			t.space(necOneSpace)
		} else {
			t.space(necZeroSpace)
		}
	}
	t.mark(necBitMark) // trail
	return t.pin.Out(gpio.Low)
}

func (t *IRTransmitter) mark(d time.Duration) {
	_ = t.pin.Out(gpio.High)
	time.Sleep(d)
}

func (t *IRTransmitter) space(d time.Duration) {
	_ = t.pin.Out(gpio.Low)
	time.Sleep(d)
}

// IRReceiver decodes NEC frames from a demodulating receiver module. A
// goroutine measures edge-to-edge intervals and assembles codes; Decode
// hands them to the vest loop without blocking.
type IRReceiver struct {
	pin   gpio.PinIO
	codes chan uint32
	stop  chan struct{}
}

// NewIRReceiver opens the named input pin (e.g. "GPIO23") and starts the
// decode goroutine. Receiver modules idle high and pull low on carrier.
func NewIRReceiver(pinName string) (*IRReceiver, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, errors.Errorf("no such pin %q", pinName)
	}
	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, errors.Wrapf(err, "failed to configure %s as input", pinName)
	}

	r := &IRReceiver{
		pin:   pin,
		codes: make(chan uint32, 8),
		stop:  make(chan struct{}),
	}
	go r.decodeLoop()
	return r, nil
}

// Decode implements peripheral.IRReceiverPort
func (r *IRReceiver) Decode() (uint32, bool) {
	select {
	case code := <-r.codes:
		return code, true
	default:
		return 0, false
	}
}

// Close stops the decode goroutine
func (r *IRReceiver) Close() error {
	close(r.stop)
	return nil
}

func (r *IRReceiver) decodeLoop() {
	var (
		code     uint32
		bitCount int
		inFrame  bool
	)
	last := time.Now()

	for {
		select {
		case <-r.stop:
			return
		default:
		}

		if !r.pin.WaitForEdge(necFrameGuard) {
			// Silence: whatever was in progress is abandoned
			inFrame = false
			bitCount = 0
			continue
		}

		now := time.Now()
		gap := now.Sub(last)
		last = now

		// Falling edge after a space carries the bit value; everything is
		// classified by interval length against the NEC unit grid.
		switch {
		case within(gap, necLeadSpace):
			inFrame = true
			code = 0
			bitCount = 0

		case inFrame && within(gap, necOneSpace):
			code = code<<1 | 1
			bitCount++

		case inFrame && within(gap, necZeroSpace) && r.pin.Read() == gpio.Low:
			code = code << 1
			bitCount++
		}

		if inFrame && bitCount >= necir.CodeBits {
			select {
			case r.codes <- code:
			default:
			}
			inFrame = false
			bitCount = 0
		}
	}
}

// within reports whether a measured interval matches a nominal NEC interval
func within(got, want time.Duration) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff <= necTolerance
}
