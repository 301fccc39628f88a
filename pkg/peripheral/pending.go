// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package peripheral

// roleState is the two role-state bytes that cross the wire: {bullets, 0}
// for the gun, {shield, health} for the vest.
type roleState struct {
	a, b uint8
}

// stateArbiter keeps the pending/canonical split: every optimistic local
// mutation lands in the pending copy first and is promoted to canonical only
// when the host acknowledges it. Two plain value copies and a dirty flag;
// no aliasing.
type stateArbiter struct {
	canonical roleState
	pending   roleState
	dirty     bool
}

// stage records an optimistic mutation in the shadow copy
func (s *stateArbiter) stage(next roleState) {
	s.pending = next
	s.dirty = true
}

// promote applies the pending state; no-op when nothing is pending
func (s *stateArbiter) promote() {
	if !s.dirty {
		return
	}
	s.canonical = s.pending
	s.dirty = false
}

// discard drops the pending state, leaving canonical untouched
func (s *stateArbiter) discard() {
	s.dirty = false
}

// effective returns the state outgoing frames report: the peripheral's
// intended state while a mutation is pending, canonical otherwise
func (s *stateArbiter) effective() roleState {
	if s.dirty {
		return s.pending
	}
	return s.canonical
}
