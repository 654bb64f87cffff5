// Package modeswitch decides when the keyboard snaps back between the
// alphabet and symbol layouts without an explicit mode key tap.
//
// The Machine never touches layouts itself. Each input returns the Action the
// caller must run; layout toggles are reported back through ModeToggled.
package modeswitch

import (
	"fmt"

	"github.com/latinkbd/kbdswitch/keyboard"
)

type State int

const (
	Alpha State = iota
	SymbolBegin
	Symbol
	// Only reachable on surfaces that deliver mode and shift presses
	// separately from key codes.
	MomentaryAlphaAndSymbol
	MomentarySymbolAndMore
	ChordingAlpha
	ChordingSymbol
)

var stateNames = [...]string{
	"alpha", "symbol-begin", "symbol",
	"momentary-alpha-and-symbol", "momentary-symbol-and-more",
	"chording-alpha", "chording-symbol",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	for i, n := range stateNames {
		if n == s {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown switch state %q", s)
}

// Action is the follow-up the caller runs after feeding an input.
type Action int

const (
	ActionNone Action = iota
	// ActionToggleMode switches between the main and symbols layouts.
	ActionToggleMode
	// ActionToggleShift switches between the symbols and shifted symbols layouts.
	ActionToggleShift
)

func (a Action) String() string {
	switch a {
	case ActionToggleMode:
		return "toggle-mode"
	case ActionToggleShift:
		return "toggle-shift"
	default:
		return "none"
	}
}

type Machine struct {
	state State
}

func New() *Machine { return &Machine{} }

func (m *Machine) State() State { return m.state }

// Reset returns to Alpha. Called on every keyboard load.
func (m *Machine) Reset() { m.state = Alpha }

func (m *Machine) IsMomentary() bool {
	return m.state == MomentaryAlphaAndSymbol || m.state == MomentarySymbolAndMore
}

// ModeToggled records that the caller swapped layouts; toMain is true when
// the main layout is now displayed.
func (m *Machine) ModeToggled(toMain bool) {
	if toMain {
		m.state = Alpha
	} else {
		m.state = SymbolBegin
	}
}

// OnModePressed must be called after the caller has toggled the layout for
// the mode key press.
func (m *Machine) OnModePressed() { m.state = MomentaryAlphaAndSymbol }

// OnShiftPressedInSymbols must be called after the caller has toggled the
// symbols shift for the shift key press.
func (m *Machine) OnShiftPressedInSymbols() { m.state = MomentarySymbolAndMore }

func (m *Machine) OnModeReleased() Action {
	if m.state == ChordingAlpha {
		return ActionToggleMode
	}
	return ActionNone
}

func (m *Machine) OnShiftReleasedInSymbols() Action {
	if m.state == ChordingSymbol {
		return ActionToggleShift
	}
	return ActionNone
}

// OnCancel handles an aborted sliding gesture. Once the returned action has
// run the machine is no longer momentary, so a repeated cancel is a no-op.
func (m *Machine) OnCancel(pointers int) Action {
	if pointers != 1 {
		return ActionNone
	}
	switch m.state {
	case MomentaryAlphaAndSymbol:
		return ActionToggleMode
	case MomentarySymbolAndMore:
		m.state = Symbol
		return ActionToggleShift
	}
	return ActionNone
}

// OnKey feeds a delivered key code. pointers is the number of touches
// currently down and onMain whether the main layout is displayed.
func (m *Machine) OnKey(code, pointers int, onMain bool) Action {
	switch m.state {
	case MomentaryAlphaAndSymbol:
		switch {
		case code == keyboard.CodeSwitchAlphaSymbol:
			// The mode key was tapped on its own.
			if onMain {
				m.state = Alpha
			} else {
				m.state = SymbolBegin
			}
		case pointers == 1:
			// Slid from the mode key to another key and lifted.
			return ActionToggleMode
		default:
			m.state = ChordingAlpha
		}
	case MomentarySymbolAndMore:
		switch {
		case code == keyboard.CodeShift:
			m.state = SymbolBegin
		case pointers == 1:
			m.state = Symbol
			return ActionToggleShift
		default:
			m.state = ChordingSymbol
		}
	case SymbolBegin:
		if !keyboard.IsSpaceCode(code) && code >= 0 {
			m.state = Symbol
		}
		if keyboard.IsQuoteCode(code) {
			return ActionToggleMode
		}
	case Symbol, ChordingSymbol:
		if keyboard.IsSpaceCode(code) || keyboard.IsQuoteCode(code) {
			return ActionToggleMode
		}
	}
	return ActionNone
}
