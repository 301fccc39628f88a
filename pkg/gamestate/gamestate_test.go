// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package gamestate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVestState_ApplyDamage(t *testing.T) {
	v := NewVestState()

	v.ApplyDamage(5)
	assert.True(t, v.Apply(0, 95))
	shield, health := v.Get()
	assert.Equal(t, uint8(0), shield)
	assert.Equal(t, uint8(95), health)
}

func TestVestState_ShieldAbsorbsFirst(t *testing.T) {
	v := NewVestState()
	v.Update(30, 100)
	require.True(t, v.Apply(30, 100))

	v.ApplyDamage(5)
	assert.True(t, v.Apply(25, 100))
	shield, health := v.Get()
	assert.Equal(t, uint8(25), shield)
	assert.Equal(t, uint8(100), health)
}

func TestVestState_DeathSnapsToFullHealth(t *testing.T) {
	v := NewVestState()
	v.Update(0, 5)
	require.True(t, v.Apply(0, 5))

	v.ApplyDamage(5)
	assert.True(t, v.Apply(0, 100))
	shield, health := v.Get()
	assert.Equal(t, uint8(0), shield)
	assert.Equal(t, uint8(100), health)
}

func TestVestState_ApplyMismatchRejected(t *testing.T) {
	v := NewVestState()
	v.ApplyDamage(5)

	// Peripheral confirmed something else: do not commit
	assert.False(t, v.Apply(0, 90))
	_, health := v.Get()
	assert.Equal(t, uint8(100), health)

	// Pending was consumed by the failed apply
	assert.False(t, v.Apply(0, 95))
}

func TestVestState_ApplyWithoutPending(t *testing.T) {
	v := NewVestState()
	assert.False(t, v.Apply(0, 95))
}

func TestVestState_RefreshShield(t *testing.T) {
	v := NewVestState()
	v.RefreshShield()
	assert.True(t, v.Apply(30, 100))
	shield, _ := v.Get()
	assert.Equal(t, uint8(30), shield)
}

func TestGunState_UseBullet(t *testing.T) {
	g := NewGunState()

	require.True(t, g.UseBullet())
	assert.True(t, g.Apply(5))
	assert.Equal(t, uint8(5), g.Get())
}

func TestGunState_EmptyMagazine(t *testing.T) {
	g := NewGunState()
	g.Update(0)
	require.True(t, g.Apply(0))

	assert.False(t, g.UseBullet())
	assert.Equal(t, uint8(0), g.Get())
}

func TestGunState_Reload(t *testing.T) {
	g := NewGunState()
	g.Update(1)
	require.True(t, g.Apply(1))

	g.Reload()
	assert.True(t, g.Apply(6))
	assert.Equal(t, uint8(6), g.Get())
}

func TestGameState_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p1_game_state.cbor")

	gs := New(path)
	gs.Vest.Update(25, 80)
	require.True(t, gs.Vest.Apply(25, 80))
	gs.Gun.Update(3)
	require.True(t, gs.Gun.Apply(3))
	require.NoError(t, gs.Save())

	restored := New(path)
	shield, health := restored.Vest.Get()
	assert.Equal(t, uint8(25), shield)
	assert.Equal(t, uint8(80), health)
	assert.Equal(t, uint8(3), restored.Gun.Get())
}

func TestGameState_MissingSnapshotUsesDefaults(t *testing.T) {
	gs := New(filepath.Join(t.TempDir(), "nope.cbor"))
	shield, health := gs.Vest.Get()
	assert.Equal(t, uint8(0), shield)
	assert.Equal(t, uint8(100), health)
	assert.Equal(t, uint8(6), gs.Gun.Get())
}
