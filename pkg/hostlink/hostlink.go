// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

// Package hostlink implements the relay-laptop side of the Beetle link for
// one peripheral: it drives the SYN/ACK/ACK handshake, echoes
// sequence-tracked shots, answers NAKs, issues commands and keeps the
// authoritative game state in step. The real deployment runs this against a
// radio bridge; the bench runs it against a simulated peripheral.
package hostlink

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
	"github.com/lumitag/beetlelink/pkg/gamestate"
	"github.com/lumitag/beetlelink/pkg/peripheral"
)

// EventType classifies game events the host surfaces to its consumers
type EventType string

const (
	EventLinkUp    EventType = "link_up"
	EventLinkDown  EventType = "link_down"
	EventShot      EventType = "shot"
	EventHit       EventType = "hit"
	EventStateSync EventType = "state_sync"
	EventIMU       EventType = "imu"
	EventWarning   EventType = "warning"
)

// Event is one game-relevant occurrence, shaped for the engine relay
type Event struct {
	Type    EventType          `cbor:"1,keyasint"`
	Role    string             `cbor:"2,keyasint"`
	Bullets uint8              `cbor:"3,keyasint,omitempty"`
	Shield  uint8              `cbor:"4,keyasint,omitempty"`
	Health  uint8              `cbor:"5,keyasint,omitempty"`
	IMU     *beetle.IMUSample  `cbor:"6,keyasint,omitempty"`
	Message string             `cbor:"7,keyasint,omitempty"`
	Time    int64              `cbor:"8,keyasint"`
}

type linkState = int32

const (
	stateIdle linkState = iota
	stateSynSent
	stateRunning
)

const (
	synRetryInterval = time.Second
	tickInterval     = time.Millisecond
)

// Host runs the host side of one peripheral's link
type Host struct {
	role  peripheral.RoleID
	conn  io.ReadWriter
	dec   *beetle.Decoder
	gs    *gamestate.GameState
	clock peripheral.Clock
	log   peripheral.Logger
	stats *beetle.Statistics

	state      atomic.Int32
	lastSyn    time.Time
	txSeq      uint8
	rxExpected uint8
	cmdRing    [beetle.WindowSize][]byte
	echoRing   [beetle.WindowSize][]byte

	cmdPending  bool
	cmdSentAt   time.Time
	resendCount int

	commands chan *beetle.Frame
	events   chan Event

	rx    chan []byte
	rxErr chan error
}

// New creates a host link for one peripheral role
func New(role peripheral.RoleID, conn io.ReadWriter, gs *gamestate.GameState, opts ...Option) *Host {
	h := &Host{
		role:     role,
		conn:     conn,
		dec:      beetle.NewDecoder(),
		gs:       gs,
		clock:    peripheral.SystemClock(),
		log:      peripheral.GetLogger(),
		stats:    beetle.NewStatistics(),
		commands: make(chan *beetle.Frame, 8),
		events:   make(chan Event, 64),
		rx:       make(chan []byte, 128),
		rxErr:    make(chan error, 1),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Option configures a Host
type Option func(*Host)

// WithClock replaces the wall clock for tests
func WithClock(c peripheral.Clock) Option {
	return func(h *Host) { h.clock = c }
}

// WithLogger replaces the host logger
func WithLogger(l peripheral.Logger) Option {
	return func(h *Host) { h.log = l }
}

// Events returns the stream of game events for relays and dashboards
func (h *Host) Events() <-chan Event {
	return h.events
}

// Stats returns the link statistics tracker
func (h *Host) Stats() *beetle.Statistics {
	return h.stats
}

// Connected reports whether the handshake is currently established
func (h *Host) Connected() bool {
	return h.state.Load() == stateRunning
}

// Reload queues a RELOAD command for the gun
func (h *Host) Reload() {
	h.gs.Gun.Reload()
	h.queue(beetle.NewReload(0, beetle.MagazineSize))
}

// UpdateGun queues an UPDATE_STATE command setting the magazine
func (h *Host) UpdateGun(bullets uint8) {
	h.gs.Gun.Update(bullets)
	h.queue(beetle.NewUpdateState(0, bullets, 0))
}

// UpdateVest queues an UPDATE_STATE command setting shield and health
func (h *Host) UpdateVest(shield, health uint8) {
	h.gs.Vest.Update(shield, health)
	h.queue(beetle.NewUpdateState(0, shield, health))
}

// RefreshShield queues the shield recharge the engine grants on a
// shield action
func (h *Host) RefreshShield() {
	_, health := h.gs.Vest.Get()
	h.gs.Vest.RefreshShield()
	h.queue(beetle.NewUpdateState(0, beetle.MaxShield, health))
}

func (h *Host) queue(f *beetle.Frame) {
	select {
	case h.commands <- f:
	default:
		h.emit(Event{Type: EventWarning, Message: "command queue full"})
	}
}

// Run drives the host loop until the context is cancelled or the
// connection dies
func (h *Host) Run(ctx context.Context) error {
	go h.rxPump(ctx)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-h.rxErr:
			h.emit(Event{Type: EventLinkDown, Message: err.Error()})
			return err
		case <-ticker.C:
			h.tick(h.clock.Now())
		}
	}
}

func (h *Host) rxPump(ctx context.Context) {
	buf := make([]byte, 4*beetle.FrameSize)
	for {
		n, err := h.conn.Read(buf)
		if err != nil {
			select {
			case h.rxErr <- err:
			default:
			}
			return
		}
		if n == 0 {
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case h.rx <- data:
		case <-ctx.Done():
			return
		}
	}
}

// tick is one host loop iteration
func (h *Host) tick(now time.Time) {
	h.drainInput()

	for {
		frame, err := h.dec.Next()
		if err != nil {
			h.stats.Update(nil, err, nil)
			h.send(beetle.NewNak(h.rxExpected))
			continue
		}
		if frame == nil {
			break
		}
		h.stats.Update(frame, nil, beetle.ValidateFrame(frame))
		h.handleFrame(frame, now)
	}

	// Drive the handshake until it sticks
	if h.state.Load() != stateRunning && now.Sub(h.lastSyn) >= synRetryInterval {
		h.sendSyn(now)
	}

	// One command in flight at a time
	if h.state.Load() == stateRunning && !h.cmdPending {
		select {
		case f := <-h.commands:
			h.sendCommand(f, now)
		default:
		}
	}

	if h.cmdPending && now.Sub(h.cmdSentAt) > beetle.ResponseTimeout {
		h.retransmitCommand(now)
	}
}

func (h *Host) drainInput() {
	for {
		select {
		case data := <-h.rx:
			h.dec.Push(data)
		default:
			return
		}
	}
}

func (h *Host) sendSyn(now time.Time) {
	var a, b uint8
	switch h.role {
	case peripheral.RoleGun:
		a = h.gs.Gun.Get()
	case peripheral.RoleVest:
		a, b = h.gs.Vest.Get()
	}
	h.txSeq = 0
	h.rxExpected = 0
	h.cmdPending = false
	h.cmdRing = [beetle.WindowSize][]byte{}
	h.echoRing = [beetle.WindowSize][]byte{}
	h.send(beetle.NewSyn(a, b))
	h.state.Store(stateSynSent)
	h.lastSyn = now
	h.log.Debugf("host/%s: SYN sent [%d %d]", h.role, a, b)
}

func (h *Host) handleFrame(f *beetle.Frame, now time.Time) {
	switch f.Type() {
	case beetle.FrameAck:
		if h.state.Load() == stateSynSent {
			// Close the handshake; the peripheral promotes on this ACK
			a, b := f.StateBytes()
			h.send(beetle.NewAck(a, b))
			h.state.Store(stateRunning)
			h.emit(Event{Type: EventLinkUp, Role: string(h.role)})
			h.log.Infof("host/%s: handshake established", h.role)
		}

	case beetle.FrameKill:
		h.log.Warnf("host/%s: KILL from peripheral, restarting handshake", h.role)
		h.state.Store(stateIdle)
		h.lastSyn = time.Time{}
		h.emit(Event{Type: EventLinkDown, Role: string(h.role), Message: "kill"})

	case beetle.FrameNak:
		h.handleNak(f.Seq())

	case beetle.FrameGunshot:
		h.handleShot(f, now, true)

	case beetle.FrameVestshot:
		h.handleShot(f, now, false)

	case beetle.FrameReload, beetle.FrameGunStateAck, beetle.FrameVestStateAck:
		h.handleCommandAck(f)

	case beetle.FrameIMU:
		if h.state.Load() == stateRunning {
			sample := f.IMU()
			h.emit(Event{Type: EventIMU, Role: string(h.role), IMU: &sample})
		}

	default:
		h.log.Debugf("host/%s: ignoring frame '%c'", h.role, f.Type())
	}
}

// handleNak retransmits a cached command. A NAK with nothing cached is
// usually the peripheral reacting to a corrupted shot echo; the
// peripheral's own retransmit timer recovers that, so the host stays quiet
// rather than tearing the session down.
func (h *Host) handleNak(seq uint8) {
	if data := h.cmdRing[seq%beetle.WindowSize]; data != nil && data[1] == seq {
		h.write(data)
		return
	}
	h.log.Debugf("host/%s: NAK seq=%d with nothing cached, ignoring", h.role, seq)
}

// handleShot processes a peripheral-originated GUNSHOT or VESTSHOT with
// duplicate suppression, echoing the frame verbatim as the acknowledgement
func (h *Host) handleShot(f *beetle.Frame, _ time.Time, isGun bool) {
	if h.state.Load() != stateRunning {
		return
	}

	seq := f.Seq()
	behind := uint8(h.rxExpected - seq)
	switch {
	case seq == h.rxExpected:
		h.applyShot(f, isGun)
		echo := h.echoFrame(f)
		h.echoRing[seq%beetle.WindowSize] = echo
		h.write(echo)
		h.rxExpected++

	case behind >= 1 && behind <= beetle.WindowSize:
		// Duplicate: our echo was lost; repeat it without re-applying
		if data := h.echoRing[seq%beetle.WindowSize]; data != nil {
			h.write(data)
		}

	default:
		h.send(beetle.NewNak(h.rxExpected))
	}
}

func (h *Host) applyShot(f *beetle.Frame, isGun bool) {
	if isGun {
		bullets, _ := f.StateBytes()
		h.gs.Gun.UseBullet()
		if !h.gs.Gun.Apply(bullets) {
			h.emit(Event{Type: EventWarning, Role: string(h.role),
				Message: "gunshot state mismatch"})
			return
		}
		h.emit(Event{Type: EventShot, Role: string(h.role), Bullets: bullets})
		return
	}

	shield, health := f.StateBytes()
	h.gs.Vest.ApplyDamage(beetle.HitDamage)
	if !h.gs.Vest.Apply(shield, health) {
		h.emit(Event{Type: EventWarning, Role: string(h.role),
			Message: "vestshot state mismatch"})
		return
	}
	h.emit(Event{Type: EventHit, Role: string(h.role), Shield: shield, Health: health})
}

// echoFrame rebuilds the shot frame byte-for-byte as the acknowledgement
func (h *Host) echoFrame(f *beetle.Frame) []byte {
	echo := beetle.NewFrame(f.Type(), f.Seq())
	a, b := f.StateBytes()
	echo.SetStateBytes(a, b)
	return echo.Encode()
}

func (h *Host) sendCommand(f *beetle.Frame, now time.Time) {
	f.SetSeq(h.txSeq)
	data := f.Encode()
	h.cmdRing[h.txSeq%beetle.WindowSize] = data
	h.write(data)
	h.cmdPending = true
	h.cmdSentAt = now
	h.resendCount = 0
	h.log.Debugf("host/%s: command '%c' seq=%d", h.role, f.Type(), f.Seq())
}

func (h *Host) handleCommandAck(f *beetle.Frame) {
	if !h.cmdPending || f.Seq() != h.txSeq {
		return
	}
	a, b := f.StateBytes()
	var applied bool
	switch f.Type() {
	case beetle.FrameReload, beetle.FrameGunStateAck:
		applied = h.gs.Gun.Apply(a)
	case beetle.FrameVestStateAck:
		applied = h.gs.Vest.Apply(a, b)
	}
	if !applied {
		h.emit(Event{Type: EventWarning, Role: string(h.role),
			Message: "command ack state mismatch"})
	} else {
		shield, health := h.gs.Vest.Get()
		h.emit(Event{Type: EventStateSync, Role: string(h.role),
			Bullets: h.gs.Gun.Get(), Shield: shield, Health: health})
	}
	h.cmdPending = false
	h.resendCount = 0
	h.txSeq++
}

func (h *Host) retransmitCommand(now time.Time) {
	if h.resendCount >= beetle.MaxResend {
		h.log.Warnf("host/%s: command seq=%d abandoned", h.role, h.txSeq)
		h.cmdPending = false
		h.resendCount = 0
		h.emit(Event{Type: EventWarning, Role: string(h.role), Message: "command abandoned"})
		return
	}
	if data := h.cmdRing[h.txSeq%beetle.WindowSize]; data != nil {
		h.resendCount++
		h.cmdSentAt = now
		h.write(data)
	}
}

func (h *Host) emit(e Event) {
	e.Time = h.clock.Now().UnixMilli()
	if e.Role == "" {
		e.Role = string(h.role)
	}
	select {
	case h.events <- e:
	default:
		// Consumers that fall behind lose events; the link must not stall
	}
}

func (h *Host) send(f *beetle.Frame) {
	h.write(f.Encode())
}

func (h *Host) write(data []byte) {
	if _, err := h.conn.Write(data); err != nil {
		h.log.Errorf("host/%s: write failed: %v", h.role, err)
	}
}
