// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package peripheral

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
)

func TestGun_ShortPressDebounced(t *testing.T) {
	r := newGunRig(t)
	handshake(t, r.p, r.clock, r.conn, 6, 0)

	// A 10 ms bounce never fires
	r.trigger.Press()
	tickOK(t, r.p, r.clock)
	r.clock.advance(10 * time.Millisecond)
	tickOK(t, r.p, r.clock)
	r.trigger.Release()
	tickOK(t, r.p, r.clock)

	assert.Empty(t, r.conn.frames(t))
	assert.Empty(t, r.irTx.Sent())
	assert.Equal(t, uint8(6), r.gun.RemainingBullets())
}

func TestGun_HeldTriggerFiresOnce(t *testing.T) {
	r := newGunRig(t)
	handshake(t, r.p, r.clock, r.conn, 6, 0)

	r.trigger.Press()
	tickOK(t, r.p, r.clock)
	r.clock.advance(beetle.DebounceInterval)
	tickOK(t, r.p, r.clock)
	require.Len(t, r.conn.frames(t), 1)

	// Confirm the shot, keep holding: no second round
	inject(t, r.p, beetle.NewGunshot(0, 5))
	tickOK(t, r.p, r.clock)
	r.clock.advance(time.Second)
	tickOK(t, r.p, r.clock)

	assert.Empty(t, r.conn.frames(t))
	assert.Len(t, r.irTx.Sent(), 1)
}

func TestGun_EmptyMagazine(t *testing.T) {
	r := newGunRig(t)
	handshake(t, r.p, r.clock, r.conn, 0, 0)
	require.Equal(t, uint8(0), r.gun.RemainingBullets())

	pullTrigger(t, r)

	assert.Empty(t, r.conn.frames(t))
	assert.Empty(t, r.irTx.Sent())
	assert.Equal(t, 0, r.leds.Lit())
}

func TestGun_LastBullet(t *testing.T) {
	r := newGunRig(t)
	handshake(t, r.p, r.clock, r.conn, 1, 0)

	pullTrigger(t, r)
	sent := r.conn.frames(t)
	require.Len(t, sent, 1)
	bullets, _ := sent[0].StateBytes()
	assert.Equal(t, uint8(0), bullets)

	inject(t, r.p, beetle.NewGunshot(0, 0))
	tickOK(t, r.p, r.clock)
	assert.Equal(t, uint8(0), r.gun.RemainingBullets())
	assert.Equal(t, 0, r.leds.Lit())
}

func TestGun_HandshakeClampsMagazine(t *testing.T) {
	r := newGunRig(t)

	// A nonsense magazine count in the SYN is clamped; the ACK reports the
	// clamped value back to the host
	inject(t, r.p, beetle.NewSyn(200, 0))
	tickOK(t, r.p, r.clock)

	replies := r.conn.frames(t)
	require.Len(t, replies, 1)
	bullets, _ := replies[0].StateBytes()
	require.Equal(t, uint8(beetle.MagazineSize), bullets)

	inject(t, r.p, beetle.NewAck(bullets, 0))
	tickOK(t, r.p, r.clock)
	assert.Equal(t, uint8(beetle.MagazineSize), r.gun.RemainingBullets())
}

func TestGun_MagazineLEDsTrackBullets(t *testing.T) {
	r := newGunRig(t)
	handshake(t, r.p, r.clock, r.conn, 6, 0)
	require.Equal(t, beetle.MagazineSize, r.leds.Lit())

	for want := 5; want >= 0; want-- {
		pullTrigger(t, r)
		inject(t, r.p, beetle.NewGunshot(uint8(5-want), uint8(want)))
		tickOK(t, r.p, r.clock)
		r.conn.frames(t)
		assert.Equal(t, want, r.leds.Lit(), "after shot %d", 6-want)
	}
}
