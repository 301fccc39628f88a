// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package peripheral

import (
	"sync"
	"time"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
	"github.com/lumitag/beetlelink/pkg/necir"
)

const hpBarPixels = 10

// Vest implements the vest role: IR hit detection with shield-then-health
// damage arithmetic and a ten-pixel HP bar. The engine loop owns all
// mutations; the mutex only makes the state readable from dashboards.
type Vest struct {
	irRx IRReceiverPort
	leds LEDStripPort
	log  Logger

	mu    sync.Mutex
	state stateArbiter // a=shield, b=health
}

// NewVest creates the vest role over its two capability ports
func NewVest(irRx IRReceiverPort, leds LEDStripPort) *Vest {
	v := &Vest{
		irRx: irRx,
		leds: leds,
		log:  GetLogger(),
	}
	v.state.canonical = roleState{a: 0, b: beetle.MaxHealth}
	return v
}

// ID implements Role
func (v *Vest) ID() RoleID { return RoleVest }

// ShotType implements Role: the host confirms vestshots by echoing 'V'
func (v *Vest) ShotType() byte { return beetle.FrameVestshot }

// ShieldHealth returns the canonical shield and health values
func (v *Vest) ShieldHealth() (uint8, uint8) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.canonical.a, v.state.canonical.b
}

// StageHandshake implements Role
func (v *Vest) StageHandshake(shield, health uint8) {
	if shield > beetle.MaxShield {
		shield = beetle.MaxShield
	}
	if health > beetle.MaxHealth || health == 0 {
		health = beetle.MaxHealth
	}
	v.mu.Lock()
	v.state.stage(roleState{a: shield, b: health})
	v.mu.Unlock()
}

// Promote implements Role
func (v *Vest) Promote() {
	v.mu.Lock()
	v.state.promote()
	health := v.state.effective().b
	v.mu.Unlock()
	v.redraw(health)
}

// Discard implements Role
func (v *Vest) Discard() {
	v.mu.Lock()
	v.state.discard()
	health := v.state.effective().b
	v.mu.Unlock()
	v.redraw(health)
}

// WireState implements Role
func (v *Vest) WireState() (uint8, uint8) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state.effective()
	return s.a, s.b
}

// Poll implements Role: a decoded shot code applies damage to the pending
// copy and originates a VESTSHOT carrying the post-damage state. While a
// VESTSHOT is in flight the receiver is left unread so hits queue in the
// decoder.
func (v *Vest) Poll(_ time.Time, ready bool) *beetle.Frame {
	if !ready {
		return nil
	}
	raw, ok := v.irRx.Decode()
	if !ok || !necir.IsShot(raw) {
		return nil
	}

	v.mu.Lock()
	shield, health := applyDamage(v.state.canonical.a, v.state.canonical.b, beetle.HitDamage)
	v.state.stage(roleState{a: shield, b: health})
	v.mu.Unlock()

	v.redraw(health)
	v.log.Infof("vest: hit, shield=%d health=%d pending", shield, health)
	return beetle.NewVestshot(0, shield, health)
}

// HandleCommand implements Role: UPDATE_STATE sets shield and health
func (v *Vest) HandleCommand(f *beetle.Frame) *beetle.Frame {
	if f.Type() != beetle.FrameUpdateState {
		return nil
	}
	shield, health := f.StateBytes()
	if shield > beetle.MaxShield {
		shield = beetle.MaxShield
	}
	if health > beetle.MaxHealth {
		health = beetle.MaxHealth
	}
	v.mu.Lock()
	v.state.stage(roleState{a: shield, b: health})
	v.mu.Unlock()
	v.log.Infof("vest: state update, shield=%d health=%d", shield, health)
	return beetle.NewVestStateAck(0, shield, health)
}

// applyDamage consumes shield before health. Health never rests at zero on
// the peripheral: dropping to or below zero snaps to full health with no
// shield, and the host decides what respawn means.
func applyDamage(shield, health, damage uint8) (uint8, uint8) {
	if shield >= damage {
		return shield - damage, health
	}
	remaining := damage - shield
	if health <= remaining {
		return 0, beetle.MaxHealth
	}
	return 0, health - remaining
}

// redraw paints the HP bar: one pixel per 10 health, bright for full
// increments, dim for a partial trailing increment
func (v *Vest) redraw(health uint8) {
	full := int(health) / 10
	remainder := int(health) % 10

	for i := 0; i < hpBarPixels; i++ {
		switch {
		case i < full:
			v.leds.SetPixel(i, 0, 10, 0)
		case i == full && remainder > 0:
			v.leds.SetPixel(i, 0, 2, 0)
		default:
			v.leds.SetPixel(i, 0, 0, 0)
		}
	}
	v.leds.Show()
}
