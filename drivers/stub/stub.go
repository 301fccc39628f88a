// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

// Package stub provides in-memory implementations of the peripheral
// capability ports. They back the test suites and the --sim mode, where a
// full gun-versus-vest session runs with no hardware attached.
package stub

import (
	"sync"
)

// Trigger is a settable trigger switch
type Trigger struct {
	mu      sync.Mutex
	pressed bool
}

// NewTrigger creates a released trigger
func NewTrigger() *Trigger { return &Trigger{} }

// Press sets the switch level high
func (t *Trigger) Press() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pressed = true
}

// Release sets the switch level low
func (t *Trigger) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pressed = false
}

// Pressed implements peripheral.TriggerPort
func (t *Trigger) Pressed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pressed
}

// IMU yields a fixed or scripted inertial reading
type IMU struct {
	mu   sync.Mutex
	ax, ay, az float64
	gx, gy, gz float64
	err  error
}

// NewIMU creates an IMU resting flat: 1 g on the Z axis, no rotation
func NewIMU() *IMU {
	return &IMU{az: 9.81}
}

// Set replaces the current reading
func (m *IMU) Set(ax, ay, az, gx, gy, gz float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ax, m.ay, m.az, m.gx, m.gy, m.gz = ax, ay, az, gx, gy, gz
}

// Fail makes subsequent reads return err
func (m *IMU) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Read implements peripheral.IMUPort
func (m *IMU) Read() (float64, float64, float64, float64, float64, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, 0, 0, 0, 0, 0, m.err
	}
	return m.ax, m.ay, m.az, m.gx, m.gy, m.gz, nil
}

// IRReceiver queues raw NEC codes for the vest to decode
type IRReceiver struct {
	mu    sync.Mutex
	codes []uint32
}

// NewIRReceiver creates an empty receiver
func NewIRReceiver() *IRReceiver { return &IRReceiver{} }

// Inject queues a raw code as if it arrived at the sensor
func (r *IRReceiver) Inject(code uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
}

// Decode implements peripheral.IRReceiverPort
func (r *IRReceiver) Decode() (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.codes) == 0 {
		return 0, false
	}
	code := r.codes[0]
	r.codes = r.codes[1:]
	return code, true
}

// IRTransmitter records emitted codes; wiring a receiver turns it into an
// open-air IR path for simulation
type IRTransmitter struct {
	mu   sync.Mutex
	sent []uint32
	rx   *IRReceiver
}

// NewIRTransmitter creates a transmitter with no receiver in range
func NewIRTransmitter() *IRTransmitter { return &IRTransmitter{} }

// AimAt points the emitter at a receiver; every sent code is injected there
func (t *IRTransmitter) AimAt(rx *IRReceiver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rx = rx
}

// Sent returns all codes emitted so far
func (t *IRTransmitter) Sent() []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]uint32, len(t.sent))
	copy(out, t.sent)
	return out
}

// SendNEC implements peripheral.IRTransmitterPort
func (t *IRTransmitter) SendNEC(code uint32, _ int) error {
	t.mu.Lock()
	rx := t.rx
	t.sent = append(t.sent, code)
	t.mu.Unlock()
	if rx != nil {
		rx.Inject(code)
	}
	return nil
}

// LEDStrip records pixel state in memory
type LEDStrip struct {
	mu     sync.Mutex
	pixels [][3]uint8
	shows  int
}

// NewLEDStrip creates a strip with n pixels, all dark
func NewLEDStrip(n int) *LEDStrip {
	return &LEDStrip{pixels: make([][3]uint8, n)}
}

// SetPixel implements peripheral.LEDStripPort
func (l *LEDStrip) SetPixel(i int, r, g, b uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.pixels) {
		return
	}
	l.pixels[i] = [3]uint8{r, g, b}
}

// Show implements peripheral.LEDStripPort
func (l *LEDStrip) Show() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shows++
}

// Pixel returns the last colour set for pixel i
func (l *LEDStrip) Pixel(i int) (r, g, b uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.pixels[i]
	return p[0], p[1], p[2]
}

// Lit returns the number of non-dark pixels
func (l *LEDStrip) Lit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	lit := 0
	for _, p := range l.pixels {
		if p[0] != 0 || p[1] != 0 || p[2] != 0 {
			lit++
		}
	}
	return lit
}

// Shows returns how many times Show has been called
func (l *LEDStrip) Shows() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shows
}
