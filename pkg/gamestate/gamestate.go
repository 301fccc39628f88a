// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

// Package gamestate tracks the host's authoritative view of one player's
// gun and vest. Mutations follow the same two-phase discipline as the
// peripherals: updates land in a pending copy and are applied only when the
// confirmed values coming back over the link match.
package gamestate

import (
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
)

// VestState is the authoritative shield/health pair
type VestState struct {
	mu      sync.Mutex
	shield  uint8
	health  uint8
	pending *vestValues
}

type vestValues struct {
	shield uint8
	health uint8
}

// NewVestState starts a vest at no shield, full health
func NewVestState() *VestState {
	return &VestState{health: beetle.MaxHealth}
}

// Get returns the committed shield and health
func (v *VestState) Get() (shield, health uint8) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.shield, v.health
}

// Update stages new shield/health values without committing them
func (v *VestState) Update(shield, health uint8) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = &vestValues{shield: shield, health: health}
}

// ApplyDamage stages the result of a hit: shield absorbs first, health
// snapping to full when it would reach zero
func (v *VestState) ApplyDamage(damage uint8) {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := vestValues{shield: v.shield, health: v.health}
	if next.shield >= damage {
		next.shield -= damage
	} else {
		remaining := damage - next.shield
		next.shield = 0
		if next.health <= remaining {
			next.health = beetle.MaxHealth
		} else {
			next.health -= remaining
		}
	}
	v.pending = &next
}

// RefreshShield stages a full shield recharge
func (v *VestState) RefreshShield() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = &vestValues{shield: beetle.MaxShield, health: v.health}
}

// Apply commits the pending values if they match what the peripheral
// confirmed. Returns false when nothing is pending or the values disagree.
func (v *VestState) Apply(shield, health uint8) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pending == nil {
		return false
	}
	if v.pending.shield != shield || v.pending.health != health {
		v.pending = nil
		return false
	}
	v.shield = v.pending.shield
	v.health = v.pending.health
	v.pending = nil
	return true
}

// GunState is the authoritative magazine count
type GunState struct {
	mu      sync.Mutex
	bullets uint8
	pending *uint8
}

// NewGunState starts a gun with a full magazine
func NewGunState() *GunState {
	return &GunState{bullets: beetle.MagazineSize}
}

// Get returns the committed bullet count
func (g *GunState) Get() uint8 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bullets
}

// Update stages a new bullet count without committing it
func (g *GunState) Update(bullets uint8) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := bullets
	g.pending = &b
}

// UseBullet stages a single decrement; returns false on an empty magazine
func (g *GunState) UseBullet() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bullets == 0 {
		return false
	}
	b := g.bullets - 1
	g.pending = &b
	return true
}

// Reload stages a full magazine
func (g *GunState) Reload() {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := uint8(beetle.MagazineSize)
	g.pending = &b
}

// Apply commits the pending count if it matches the confirmed value
func (g *GunState) Apply(bullets uint8) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return false
	}
	if *g.pending != bullets {
		g.pending = nil
		return false
	}
	g.bullets = *g.pending
	g.pending = nil
	return true
}

// Snapshot is the persisted per-player state
type Snapshot struct {
	Shield  uint8 `cbor:"1,keyasint"`
	Health  uint8 `cbor:"2,keyasint"`
	Bullets uint8 `cbor:"3,keyasint"`
}

// GameState bundles one player's vest and gun with snapshot persistence
type GameState struct {
	Vest *VestState
	Gun  *GunState
	path string
}

// New creates a game state persisted at path; pass "" to disable
// persistence
func New(path string) *GameState {
	gs := &GameState{
		Vest: NewVestState(),
		Gun:  NewGunState(),
		path: path,
	}
	if path != "" {
		if err := gs.load(); err != nil && !os.IsNotExist(err) {
			// A corrupt snapshot falls back to defaults
			_ = os.Remove(path)
		}
	}
	return gs
}

// Snapshot returns the committed state
func (gs *GameState) Snapshot() Snapshot {
	shield, health := gs.Vest.Get()
	return Snapshot{
		Shield:  shield,
		Health:  health,
		Bullets: gs.Gun.Get(),
	}
}

// Save writes the committed state to the snapshot file
func (gs *GameState) Save() error {
	if gs.path == "" {
		return nil
	}
	data, err := cbor.Marshal(gs.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(gs.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (gs *GameState) load() error {
	data, err := os.ReadFile(gs.path)
	if err != nil {
		return err
	}
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	gs.Vest.Update(snap.Shield, snap.Health)
	gs.Vest.Apply(snap.Shield, snap.Health)
	gs.Gun.Update(snap.Bullets)
	gs.Gun.Apply(snap.Bullets)
	return nil
}
