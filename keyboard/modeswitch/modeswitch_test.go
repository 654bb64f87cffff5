package modeswitch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latinkbd/kbdswitch/keyboard"
	"github.com/latinkbd/kbdswitch/keyboard/modeswitch"
)

// driver plays the caller role: it tracks which layout is shown and reports
// mode toggles back to the machine.
type driver struct {
	m      *modeswitch.Machine
	onMain bool
}

func newDriver() *driver {
	return &driver{m: modeswitch.New(), onMain: true}
}

func (d *driver) run(a modeswitch.Action) {
	if a == modeswitch.ActionToggleMode {
		d.onMain = !d.onMain
		d.m.ModeToggled(d.onMain)
	}
}

func (d *driver) key(code, pointers int) modeswitch.Action {
	a := d.m.OnKey(code, pointers, d.onMain)
	d.run(a)
	return a
}

// enterSymbol puts the driver on the symbols layout in the Symbol state.
func (d *driver) enterSymbol(t *testing.T) {
	d.run(modeswitch.ActionToggleMode)
	require.Equal(t, modeswitch.SymbolBegin, d.m.State())
	d.key('1', 1)
	require.Equal(t, modeswitch.Symbol, d.m.State())
}

func TestSymbolSnapBack(t *testing.T) {
	codes := []struct {
		name  string
		code  int
		snaps bool
	}{
		{"space", keyboard.CodeSpace, true},
		{"enter", keyboard.CodeEnter, true},
		{"apostrophe", '\'', true},
		{"double quote", '"', true},
		{"right single quote", 0x2019, true},
		{"guillemet", 0xbb, true},
		{"digit", '7', false},
		{"period", keyboard.CodePeriod, false},
		{"delete", keyboard.CodeDelete, false},
		{"shift", keyboard.CodeShift, false},
	}
	for _, start := range []modeswitch.State{modeswitch.Symbol, modeswitch.ChordingSymbol} {
		for _, tt := range codes {
			t.Run(start.String()+"/"+tt.name, func(t *testing.T) {
				d := newDriver()
				d.enterSymbol(t)
				if start == modeswitch.ChordingSymbol {
					d.m.OnShiftPressedInSymbols()
					d.key('x', 2)
					require.Equal(t, modeswitch.ChordingSymbol, d.m.State())
				}
				a := d.key(tt.code, 1)
				if tt.snaps {
					assert.Equal(t, modeswitch.ActionToggleMode, a)
					assert.Equal(t, modeswitch.Alpha, d.m.State())
					assert.True(t, d.onMain)
				} else {
					assert.Equal(t, modeswitch.ActionNone, a)
					assert.Equal(t, start, d.m.State())
				}
			})
		}
	}
}

func TestSymbolBegin(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		state  modeswitch.State
		action modeswitch.Action
	}{
		{"letter", 'a', modeswitch.Symbol, modeswitch.ActionNone},
		{"space stays", keyboard.CodeSpace, modeswitch.SymbolBegin, modeswitch.ActionNone},
		{"enter stays", keyboard.CodeEnter, modeswitch.SymbolBegin, modeswitch.ActionNone},
		{"functional key stays", keyboard.CodeDelete, modeswitch.SymbolBegin, modeswitch.ActionNone},
		{"quote snaps back", '\'', modeswitch.Alpha, modeswitch.ActionToggleMode},
		{"low-9 quote snaps back", 0x201a, modeswitch.Alpha, modeswitch.ActionToggleMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDriver()
			d.run(modeswitch.ActionToggleMode)
			a := d.key(tt.code, 1)
			assert.Equal(t, tt.action, a)
			assert.Equal(t, tt.state, d.m.State())
		})
	}
}

func TestMomentaryAlphaAndSymbol(t *testing.T) {
	t.Run("tap only", func(t *testing.T) {
		d := newDriver()
		d.run(modeswitch.ActionToggleMode)
		d.m.OnModePressed()
		assert.True(t, d.m.IsMomentary())
		a := d.key(keyboard.CodeSwitchAlphaSymbol, 1)
		assert.Equal(t, modeswitch.ActionNone, a)
		assert.Equal(t, modeswitch.SymbolBegin, d.m.State())
		assert.Equal(t, modeswitch.ActionNone, d.m.OnModeReleased())
	})

	t.Run("tap only back to main", func(t *testing.T) {
		d := newDriver()
		d.m.OnModePressed()
		d.key(keyboard.CodeSwitchAlphaSymbol, 1)
		assert.Equal(t, modeswitch.Alpha, d.m.State())
	})

	t.Run("slide snaps back", func(t *testing.T) {
		d := newDriver()
		d.run(modeswitch.ActionToggleMode)
		d.m.OnModePressed()
		a := d.key('1', 1)
		assert.Equal(t, modeswitch.ActionToggleMode, a)
		assert.Equal(t, modeswitch.Alpha, d.m.State())
	})

	t.Run("chord defers to release", func(t *testing.T) {
		d := newDriver()
		d.run(modeswitch.ActionToggleMode)
		d.m.OnModePressed()
		a := d.key('1', 2)
		assert.Equal(t, modeswitch.ActionNone, a)
		assert.Equal(t, modeswitch.ChordingAlpha, d.m.State())
		assert.Equal(t, modeswitch.ActionToggleMode, d.m.OnModeReleased())
	})
}

func TestMomentarySymbolAndMore(t *testing.T) {
	t.Run("tap only", func(t *testing.T) {
		d := newDriver()
		d.enterSymbol(t)
		d.m.OnShiftPressedInSymbols()
		assert.Equal(t, modeswitch.ActionNone, d.key(keyboard.CodeShift, 1))
		assert.Equal(t, modeswitch.SymbolBegin, d.m.State())
		assert.Equal(t, modeswitch.ActionNone, d.m.OnShiftReleasedInSymbols())
	})

	t.Run("slide toggles shift", func(t *testing.T) {
		d := newDriver()
		d.enterSymbol(t)
		d.m.OnShiftPressedInSymbols()
		assert.Equal(t, modeswitch.ActionToggleShift, d.key('#', 1))
		assert.Equal(t, modeswitch.Symbol, d.m.State())
	})

	t.Run("chord defers to release", func(t *testing.T) {
		d := newDriver()
		d.enterSymbol(t)
		d.m.OnShiftPressedInSymbols()
		assert.Equal(t, modeswitch.ActionNone, d.key('#', 3))
		assert.Equal(t, modeswitch.ChordingSymbol, d.m.State())
		assert.Equal(t, modeswitch.ActionToggleShift, d.m.OnShiftReleasedInSymbols())
	})
}

func TestOnCancel(t *testing.T) {
	m := modeswitch.New()
	assert.Equal(t, modeswitch.ActionNone, m.OnCancel(1), "alpha")

	m.OnModePressed()
	assert.Equal(t, modeswitch.ActionNone, m.OnCancel(2))
	assert.Equal(t, modeswitch.ActionNone, m.OnCancel(0))
	assert.Equal(t, modeswitch.ActionToggleMode, m.OnCancel(1))

	m.OnShiftPressedInSymbols()
	assert.Equal(t, modeswitch.ActionToggleShift, m.OnCancel(1))
	assert.Equal(t, modeswitch.Symbol, m.State())
	assert.Equal(t, modeswitch.ActionNone, m.OnCancel(1), "second cancel")
	assert.Equal(t, modeswitch.ActionNone, m.OnKey('a', 1, false), "key after cancel")

	m.Reset()
	assert.Equal(t, modeswitch.Alpha, m.State())
	assert.False(t, m.IsMomentary())
}

func TestAlphaIgnoresKeys(t *testing.T) {
	m := modeswitch.New()
	for _, c := range []int{'a', ' ', '\'', keyboard.CodeShift, keyboard.CodeSwitchAlphaSymbol} {
		assert.Equal(t, modeswitch.ActionNone, m.OnKey(c, 1, true))
		assert.Equal(t, modeswitch.Alpha, m.State())
	}
}

func TestParseState(t *testing.T) {
	s, err := modeswitch.ParseState("chording-symbol")
	require.NoError(t, err)
	assert.Equal(t, modeswitch.ChordingSymbol, s)
	_, err = modeswitch.ParseState("nope")
	assert.Error(t, err)
}
