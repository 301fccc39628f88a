// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package peripheral

import (
	"context"
	"io"
	"time"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
)

const defaultTickInterval = time.Millisecond

// Peripheral runs one device's side of the Beetle link: frame reassembly,
// handshake, sequence-tracked delivery with selective repeat, the
// pending-state arbiter, and the role logic on top.
//
// All protocol state is owned by the single cooperative loop; the only
// concurrency is a reader goroutine pumping raw bytes from the connection
// into a channel the loop drains without blocking.
type Peripheral struct {
	role  Role
	conn  io.ReadWriter
	dec   *beetle.Decoder
	clock Clock
	log   Logger

	imu *imuSampler

	tickInterval    time.Duration
	imuInterval     time.Duration
	responseTimeout time.Duration
	maxResend       int

	hasHandshake bool
	seqs         sequencer

	waitingAck   bool
	resendCount  int
	lastShotTime time.Time
	lastIMUTime  time.Time

	rx    chan []byte
	rxErr chan error
}

// New creates a peripheral for the given role over a byte-stream connection
func New(role Role, conn io.ReadWriter, opts ...Option) *Peripheral {
	p := &Peripheral{
		role:            role,
		conn:            conn,
		dec:             beetle.NewDecoder(),
		clock:           SystemClock(),
		log:             GetLogger(),
		tickInterval:    defaultTickInterval,
		imuInterval:     beetle.IMUInterval,
		responseTimeout: beetle.ResponseTimeout,
		maxResend:       beetle.MaxResend,
		rx:              make(chan []byte, 128),
		rxErr:           make(chan error, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastIMUTime = p.clock.Now()
	return p
}

// HasHandshake reports whether application traffic is currently gated open
func (p *Peripheral) HasHandshake() bool {
	return p.hasHandshake
}

// Run drives the cooperative loop until the context is cancelled, the
// connection dies, or the link demands a reset (ErrKilled, ErrDesync).
// After ErrKilled or ErrDesync the caller restarts from a fresh Peripheral,
// which is the software equivalent of the reset vector.
func (p *Peripheral) Run(ctx context.Context) error {
	go p.rxPump(ctx)

	ticker := time.NewTicker(p.tickInterval)
	defer ticker.Stop()

	p.log.Infof("%s: waiting for handshake", p.role.ID())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-p.rxErr:
			p.log.Errorf("%s: read failed: %v", p.role.ID(), err)
			return ErrConnClosed
		case <-ticker.C:
			if err := p.tick(p.clock.Now()); err != nil {
				return err
			}
		}
	}
}

// rxPump reads raw bytes off the connection and hands them to the loop
func (p *Peripheral) rxPump(ctx context.Context) {
	buf := make([]byte, 4*beetle.FrameSize)
	for {
		n, err := p.conn.Read(buf)
		if err != nil {
			select {
			case p.rxErr <- err:
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
		case p.rx <- data:
		case <-ctx.Done():
			return
		}
	}
}

// tick is one loop iteration. Strictly in this order: drain serial input and
// process at most one complete frame, poll role inputs, IMU cadence,
// retransmit timer.
func (p *Peripheral) tick(now time.Time) error {
	p.drainInput()

	frame, err := p.dec.Next()
	if err != nil {
		// CRC failure: the decoder already flushed its buffer; ask for the
		// expected frame again
		p.log.Debugf("%s: %v", p.role.ID(), err)
		p.send(beetle.NewNak(p.seqs.rxExpected))
	} else if frame != nil {
		if err := p.handleFrame(frame); err != nil {
			return err
		}
	}

	if p.hasHandshake {
		if f := p.role.Poll(now, !p.waitingAck); f != nil {
			p.originate(f, now)
		}
	}

	if p.hasHandshake && p.imu != nil && now.Sub(p.lastIMUTime) >= p.imuInterval {
		p.sendIMU()
		p.lastIMUTime = now
	}

	if p.waitingAck && now.Sub(p.lastShotTime) > p.responseTimeout {
		p.retransmit(now)
	}

	return nil
}

func (p *Peripheral) drainInput() {
	for {
		select {
		case data := <-p.rx:
			p.dec.Push(data)
		default:
			return
		}
	}
}

func (p *Peripheral) handleFrame(f *beetle.Frame) error {
	switch f.Type() {
	case beetle.FrameSyn:
		// Fresh SYN at any time resynchronises: counters to zero, rings
		// cleared, pending latched from the host's state payload. Promotion
		// waits for the closing ACK.
		p.hasHandshake = false
		p.seqs.reset()
		p.waitingAck = false
		p.resendCount = 0
		a, b := f.StateBytes()
		p.role.StageHandshake(a, b)
		wa, wb := p.role.WireState()
		p.send(beetle.NewAck(wa, wb))
		p.log.Infof("%s: SYN received, state [%d %d]", p.role.ID(), a, b)
		return nil

	case beetle.FrameAck:
		if !p.hasHandshake {
			p.role.Promote()
			p.hasHandshake = true
			p.log.Infof("%s: handshake established", p.role.ID())
		}
		return nil

	case beetle.FrameKill:
		p.log.Warnf("%s: KILL received", p.role.ID())
		return ErrKilled
	}

	if !p.hasHandshake {
		// Until the handshake completes only SYN and ACK are accepted
		return nil
	}

	switch f.Type() {
	case beetle.FrameNak:
		return p.handleNak(f.Seq())

	case p.role.ShotType():
		p.handleShotEcho(f)
		return nil

	case beetle.FrameReload, beetle.FrameUpdateState:
		p.handleCommand(f)
		return nil
	}

	p.log.Debugf("%s: ignoring frame type '%c'", p.role.ID(), f.Type())
	return nil
}

// handleNak serves a selective-repeat request. A NAK for a frame that has
// left the 4-slot window means the peer is irrecoverably behind: the only
// safe move is to emit KILL and restart the session.
func (p *Peripheral) handleNak(seq uint8) error {
	if data, ok := p.seqs.lookup(seq); ok {
		p.log.Debugf("%s: NAK seq=%d, retransmitting", p.role.ID(), seq)
		p.write(data)
		return nil
	}
	p.log.Errorf("%s: NAK seq=%d outside window, resetting link", p.role.ID(), seq)
	p.send(beetle.NewKill())
	return ErrDesync
}

// handleShotEcho confirms an in-flight self-originated frame when the host
// echoes its sequence number
func (p *Peripheral) handleShotEcho(f *beetle.Frame) {
	if !p.waitingAck || f.Seq() != p.seqs.txSeq {
		// Stale echo from a frame already confirmed or abandoned
		return
	}
	p.waitingAck = false
	p.resendCount = 0
	p.role.Promote()
	p.seqs.advanceTx()
	p.log.Debugf("%s: seq=%d confirmed", p.role.ID(), f.Seq())
}

// handleCommand applies a host-originated command frame with duplicate
// suppression: in-order frames are applied once and acknowledged; duplicates
// replay the cached acknowledgement without re-applying; gaps are NAK'd.
func (p *Peripheral) handleCommand(f *beetle.Frame) {
	switch p.seqs.classify(f.Seq()) {
	case classInOrder:
		reply := p.role.HandleCommand(f)
		if reply == nil {
			p.log.Warnf("%s: unsupported command '%c'", p.role.ID(), f.Type())
			return
		}
		reply.SetSeq(p.seqs.rxExpected)
		data := reply.Encode()
		p.write(data)
		p.seqs.storeReply(p.seqs.rxExpected, data)
		p.role.Promote()
		p.seqs.advanceRx()

	case classDuplicate:
		if data, ok := p.seqs.reply(f.Seq()); ok {
			p.log.Debugf("%s: duplicate seq=%d, replaying ACK", p.role.ID(), f.Seq())
			p.write(data)
		}

	case classGap:
		p.log.Debugf("%s: gap at seq=%d, expected %d", p.role.ID(), f.Seq(), p.seqs.rxExpected)
		p.send(beetle.NewNak(p.seqs.rxExpected))
	}
}

// originate transmits a sequence-tracked self-originated frame and starts
// the acknowledgement timer
func (p *Peripheral) originate(f *beetle.Frame, now time.Time) {
	f.SetSeq(p.seqs.txSeq)
	data := f.Encode()
	p.seqs.storeTx(p.seqs.txSeq, data)
	p.write(data)
	p.waitingAck = true
	p.resendCount = 0
	p.lastShotTime = now
	p.log.Debugf("%s: sent '%c' seq=%d", p.role.ID(), f.Type(), f.Seq())
}

// retransmit replays the in-flight frame, giving up after the retry budget
// is spent; the pending state is then discarded and the next handshake
// resynchronises
func (p *Peripheral) retransmit(now time.Time) {
	if p.resendCount >= p.maxResend {
		p.log.Warnf("%s: seq=%d abandoned after %d retransmits", p.role.ID(), p.seqs.txSeq, p.resendCount)
		p.waitingAck = false
		p.resendCount = 0
		p.role.Discard()
		return
	}
	if data, ok := p.seqs.lookup(p.seqs.txSeq); ok {
		p.resendCount++
		p.lastShotTime = now
		p.write(data)
		p.log.Debugf("%s: retransmit seq=%d (%d/%d)", p.role.ID(), p.seqs.txSeq, p.resendCount, p.maxResend)
	}
}

func (p *Peripheral) sendIMU() {
	sample, err := p.imu.sample()
	if err != nil {
		p.log.Warnf("%s: IMU read failed: %v", p.role.ID(), err)
		return
	}
	p.send(beetle.NewIMUData(sample))
}

// send encodes and writes an untracked frame
func (p *Peripheral) send(f *beetle.Frame) {
	p.write(f.Encode())
}

// write puts exactly one frame on the wire in a single write call
func (p *Peripheral) write(data []byte) {
	if n, err := p.conn.Write(data); err != nil {
		p.log.Errorf("%s: write failed: %v", p.role.ID(), err)
	} else if n != len(data) {
		p.log.Errorf("%s: short write: %d of %d bytes", p.role.ID(), n, len(data))
	}
}
