// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package peripheral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
	"github.com/lumitag/beetlelink/pkg/necir"
)

func TestApplyDamage(t *testing.T) {
	tests := []struct {
		name                     string
		shield, health           uint8
		wantShield, wantHealth   uint8
	}{
		{"full shield absorbs", 30, 100, 25, 100},
		{"shield exactly covers", 5, 100, 0, 100},
		{"no shield hits health", 0, 100, 0, 95},
		{"shield partially absorbs", 3, 100, 0, 98},
		{"health to exactly zero snaps", 0, 5, 0, 100},
		{"health below zero snaps", 2, 2, 0, 100},
		{"low health survives", 0, 6, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, h := applyDamage(tt.shield, tt.health, beetle.HitDamage)
			assert.Equal(t, tt.wantShield, s, "shield")
			assert.Equal(t, tt.wantHealth, h, "health")
		})
	}
}

// Any hit sequence reduces deterministically: replaying the same hits from
// the same start always lands on the same state
func TestApplyDamage_SequenceDeterministic(t *testing.T) {
	run := func() (uint8, uint8) {
		s, h := uint8(12), uint8(40)
		for i := 0; i < 25; i++ {
			s, h = applyDamage(s, h, beetle.HitDamage)
		}
		return s, h
	}
	s1, h1 := run()
	s2, h2 := run()
	assert.Equal(t, s1, s2)
	assert.Equal(t, h1, h2)
	assert.LessOrEqual(t, s1, uint8(beetle.MaxShield))
	assert.Positive(t, h1)
}

func TestVest_HitEmitsVestshot(t *testing.T) {
	r := newVestRig(t)
	handshake(t, r.p, r.clock, r.conn, 0, 100)

	r.irRx.Inject(necir.ShotRawCode)
	tickOK(t, r.p, r.clock)

	sent := r.conn.frames(t)
	require.Len(t, sent, 1)
	require.Equal(t, byte(beetle.FrameVestshot), sent[0].Type())
	shield, health := sent[0].StateBytes()
	assert.Equal(t, uint8(0), shield)
	assert.Equal(t, uint8(95), health)

	// Canonical waits for the host echo
	cs, ch := r.vest.ShieldHealth()
	assert.Equal(t, uint8(100), ch)
	_ = cs

	inject(t, r.p, beetle.NewVestshot(0, 0, 95))
	tickOK(t, r.p, r.clock)
	_, ch = r.vest.ShieldHealth()
	assert.Equal(t, uint8(95), ch)
}

func TestVest_ForeignCodeIgnored(t *testing.T) {
	r := newVestRig(t)
	handshake(t, r.p, r.clock, r.conn, 0, 100)

	// A TV remote in the arena is not a gunshot
	r.irRx.Inject(necir.MakeRawCode(0x20, 0x0C))
	tickOK(t, r.p, r.clock)
	assert.Empty(t, r.conn.frames(t))

	_, health := r.vest.ShieldHealth()
	assert.Equal(t, uint8(100), health)
}

func TestVest_HPBar(t *testing.T) {
	tests := []struct {
		health     uint8
		wantBright int
		wantDim    int
	}{
		{100, 10, 0},
		{95, 9, 1},
		{50, 5, 0},
		{9, 0, 1},
		{1, 0, 1},
	}

	for _, tt := range tests {
		r := newVestRig(t)
		handshake(t, r.p, r.clock, r.conn, 0, tt.health)

		bright, dim := 0, 0
		for i := 0; i < hpBarPixels; i++ {
			_, g, _ := r.leds.Pixel(i)
			switch g {
			case 10:
				bright++
			case 2:
				dim++
			}
		}
		assert.Equal(t, tt.wantBright, bright, "health=%d bright", tt.health)
		assert.Equal(t, tt.wantDim, dim, "health=%d dim", tt.health)
	}
}

func TestVest_UpdateStateRedrawsBar(t *testing.T) {
	r := newVestRig(t)
	handshake(t, r.p, r.clock, r.conn, 0, 100)

	inject(t, r.p, beetle.NewUpdateState(0, 30, 40))
	tickOK(t, r.p, r.clock)

	acks := r.conn.frames(t)
	require.Len(t, acks, 1)
	require.Equal(t, byte(beetle.FrameVestStateAck), acks[0].Type())

	shield, health := r.vest.ShieldHealth()
	assert.Equal(t, uint8(30), shield)
	assert.Equal(t, uint8(40), health)
	assert.Equal(t, 4, r.leds.Lit())
}

func TestVest_HitQueuedWhileInFlight(t *testing.T) {
	r := newVestRig(t)
	handshake(t, r.p, r.clock, r.conn, 0, 100)

	r.irRx.Inject(necir.ShotRawCode)
	tickOK(t, r.p, r.clock)
	require.Len(t, r.conn.frames(t), 1)

	// While the first VESTSHOT is unconfirmed the engine does not poll the
	// receiver; the code stays queued until the echo arrives
	r.irRx.Inject(necir.ShotRawCode)
	tickOK(t, r.p, r.clock)
	assert.Empty(t, r.conn.frames(t))

	inject(t, r.p, beetle.NewVestshot(0, 0, 95))
	tickOK(t, r.p, r.clock)

	sent := r.conn.frames(t)
	require.Len(t, sent, 1)
	assert.Equal(t, byte(beetle.FrameVestshot), sent[0].Type())
	assert.Equal(t, uint8(1), sent[0].Seq())
	_, health := sent[0].StateBytes()
	assert.Equal(t, uint8(90), health)
}
