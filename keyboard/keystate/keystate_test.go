package keystate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/latinkbd/kbdswitch/keyboard/keystate"
)

func TestKeyStateTransitions(t *testing.T) {
	tests := []struct {
		name   string
		kind   keystate.Kind
		steps  func(k *keystate.KeyState)
		expect keystate.State
	}{
		{
			name:   "initial",
			kind:   keystate.KindShift,
			steps:  func(k *keystate.KeyState) {},
			expect: keystate.Released,
		},
		{
			name:   "press",
			kind:   keystate.KindShift,
			steps:  func(k *keystate.KeyState) { k.OnPress() },
			expect: keystate.Pressing,
		},
		{
			name: "press then chord",
			kind: keystate.KindMode,
			steps: func(k *keystate.KeyState) {
				k.OnPress()
				k.OnOtherKeyPressed()
			},
			expect: keystate.Chording,
		},
		{
			name: "press on shifted then chord ignores",
			kind: keystate.KindShift,
			steps: func(k *keystate.KeyState) {
				k.OnPressOnShifted()
				k.OnOtherKeyPressed()
			},
			expect: keystate.Ignoring,
		},
		{
			name:   "mode key has no shifted press",
			kind:   keystate.KindMode,
			steps:  func(k *keystate.KeyState) { k.OnPressOnShifted() },
			expect: keystate.Pressing,
		},
		{
			name:   "other key while released",
			kind:   keystate.KindShift,
			steps:  func(k *keystate.KeyState) { k.OnOtherKeyPressed() },
			expect: keystate.Released,
		},
		{
			name: "release from ignoring",
			kind: keystate.KindShift,
			steps: func(k *keystate.KeyState) {
				k.OnPressOnShifted()
				k.OnOtherKeyPressed()
				k.OnRelease()
			},
			expect: keystate.Released,
		},
		{
			name: "press again from ignoring",
			kind: keystate.KindShift,
			steps: func(k *keystate.KeyState) {
				k.OnPressOnShifted()
				k.OnOtherKeyPressed()
				k.OnPress()
			},
			expect: keystate.Pressing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := keystate.New(tt.kind, "test")
			tt.steps(k)
			assert.Equal(t, tt.expect, k.State())
		})
	}
}

func TestKeyStateQueries(t *testing.T) {
	k := keystate.New(keystate.KindShift, "Shift")
	assert.Equal(t, keystate.KindShift, k.Kind())
	assert.True(t, k.IsReleasing())
	assert.False(t, k.IsMomentary())

	k.OnPress()
	assert.True(t, k.IsPressing())
	assert.False(t, k.IsMomentary(), "a plain hold is not a chord yet")

	k.OnOtherKeyPressed()
	assert.True(t, k.IsMomentary())
	assert.False(t, k.IsPressing())

	k.OnRelease()
	assert.True(t, k.IsReleasing())

	k.OnPressOnShifted()
	assert.True(t, k.IsPressingOnShifted())
	k.OnOtherKeyPressed()
	assert.True(t, k.IsIgnoring())
	assert.Equal(t, "Shift:ignoring", k.String())
}
