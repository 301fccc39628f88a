// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package peripheral

import (
	"sync"
	"time"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
	"github.com/lumitag/beetlelink/pkg/necir"
)

// Magazine LED colour: low-intensity green
const (
	magR, magG, magB = 0, 10, 0
)

// Gun implements the gun role: trigger-fired IR shots against a six-round
// magazine, host-confirmed one shot at a time. The engine loop owns all
// mutations; the mutex only makes the state readable from dashboards.
type Gun struct {
	trigger TriggerPort
	irTx    IRTransmitterPort
	leds    LEDStripPort
	log     Logger

	mu    sync.Mutex
	state stateArbiter

	// Trigger debounce: a press counts once the level has been stable high
	// for the debounce interval. Engine loop only.
	lastLevel  bool
	lastChange time.Time
	fired      bool
}

// NewGun creates the gun role over its three capability ports
func NewGun(trigger TriggerPort, irTx IRTransmitterPort, leds LEDStripPort) *Gun {
	g := &Gun{
		trigger: trigger,
		irTx:    irTx,
		leds:    leds,
		log:     GetLogger(),
	}
	g.state.canonical = roleState{a: beetle.MagazineSize}
	return g
}

// ID implements Role
func (g *Gun) ID() RoleID { return RoleGun }

// ShotType implements Role: the host confirms gunshots by echoing 'G'
func (g *Gun) ShotType() byte { return beetle.FrameGunshot }

// RemainingBullets returns the canonical magazine count
func (g *Gun) RemainingBullets() uint8 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.canonical.a
}

// StageHandshake implements Role
func (g *Gun) StageHandshake(a, _ uint8) {
	if a > beetle.MagazineSize {
		a = beetle.MagazineSize
	}
	g.mu.Lock()
	g.state.stage(roleState{a: a})
	g.mu.Unlock()
}

// Promote implements Role
func (g *Gun) Promote() {
	g.mu.Lock()
	g.state.promote()
	bullets := g.state.effective().a
	g.mu.Unlock()
	g.redraw(bullets)
}

// Discard implements Role
func (g *Gun) Discard() {
	g.mu.Lock()
	g.state.discard()
	bullets := g.state.effective().a
	g.mu.Unlock()
	g.redraw(bullets)
}

// WireState implements Role
func (g *Gun) WireState() (uint8, uint8) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.effective().a, 0
}

// Poll implements Role: on a debounced rising trigger edge with bullets in
// the magazine, fire the IR code, stage the decrement and originate a
// GUNSHOT frame. While the previous shot is in flight the edge is consumed
// without firing.
func (g *Gun) Poll(now time.Time, ready bool) *beetle.Frame {
	if !g.pressEdge(now) {
		return nil
	}
	if !ready {
		g.log.Debugf("gun: trigger ignored, shot in flight")
		return nil
	}

	g.mu.Lock()
	if g.state.canonical.a == 0 {
		g.mu.Unlock()
		g.log.Infof("gun: trigger pulled on empty magazine")
		return nil
	}
	remaining := g.state.canonical.a - 1
	g.state.stage(roleState{a: remaining})
	g.mu.Unlock()

	if err := g.irTx.SendNEC(necir.ShotRawCode, necir.CodeBits); err != nil {
		g.log.Errorf("gun: IR emit failed: %v", err)
	}

	g.redraw(remaining)
	g.log.Infof("gun: shot fired, %d bullets pending", remaining)
	return beetle.NewGunshot(0, remaining)
}

// pressEdge debounces the trigger: the switch must read high for the full
// debounce interval, and must return low before the next press counts
func (g *Gun) pressEdge(now time.Time) bool {
	level := g.trigger.Pressed()
	if level != g.lastLevel {
		g.lastLevel = level
		g.lastChange = now
	}
	if !level {
		g.fired = false
		return false
	}
	if g.fired || now.Sub(g.lastChange) < beetle.DebounceInterval {
		return false
	}
	g.fired = true
	return true
}

// HandleCommand implements Role: RELOAD refills the magazine, UPDATE_STATE
// sets it outright. Both are staged and promoted when the reply goes out.
func (g *Gun) HandleCommand(f *beetle.Frame) *beetle.Frame {
	switch f.Type() {
	case beetle.FrameReload:
		g.mu.Lock()
		g.state.stage(roleState{a: beetle.MagazineSize})
		g.mu.Unlock()
		g.log.Infof("gun: reload")
		return beetle.NewReload(0, beetle.MagazineSize)

	case beetle.FrameUpdateState:
		bullets, _ := f.StateBytes()
		if bullets > beetle.MagazineSize {
			bullets = beetle.MagazineSize
		}
		g.mu.Lock()
		g.state.stage(roleState{a: bullets})
		g.mu.Unlock()
		g.log.Infof("gun: state update, %d bullets", bullets)
		return beetle.NewGunStateAck(0, bullets)
	}
	return nil
}

// redraw lights pixel i when i < remaining bullets
func (g *Gun) redraw(bullets uint8) {
	for i := 0; i < beetle.MagazineSize; i++ {
		if i < int(bullets) {
			g.leds.SetPixel(i, magR, magG, magB)
		} else {
			g.leds.SetPixel(i, 0, 0, 0)
		}
	}
	g.leds.Show()
}
