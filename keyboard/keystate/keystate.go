// Package keystate tracks the press/release protocol of the shift and mode keys.
package keystate

import "fmt"

// Kind tags a tracker with the key it follows.
type Kind int

const (
	KindShift Kind = iota
	KindMode
)

func (k Kind) String() string {
	if k == KindMode {
		return "mode"
	}
	return "shift"
}

// State is the position of a modifier key in its press protocol.
type State int

const (
	Released State = iota
	Pressing
	// PressingOnShifted is a shift press that started while the layout was
	// already shifted.
	PressingOnShifted
	// Chording means another key went down while this one was held.
	Chording
	// Ignoring is a chord that started from PressingOnShifted; its release
	// must not toggle anything.
	Ignoring
)

var stateNames = [...]string{"released", "pressing", "pressing-on-shifted", "chording", "ignoring"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// KeyState follows one modifier key. The zero value is not usable; call New.
type KeyState struct {
	kind  Kind
	name  string
	state State
}

func New(kind Kind, name string) *KeyState {
	return &KeyState{kind: kind, name: name}
}

func (k *KeyState) Kind() Kind   { return k.kind }
func (k *KeyState) State() State { return k.state }

func (k *KeyState) OnPress() {
	k.state = Pressing
}

// OnPressOnShifted records a press made while the layout was already shifted.
// Mode keys have no such distinction and record a plain press.
func (k *KeyState) OnPressOnShifted() {
	if k.kind != KindShift {
		k.OnPress()
		return
	}
	k.state = PressingOnShifted
}

func (k *KeyState) OnRelease() {
	k.state = Released
}

func (k *KeyState) OnOtherKeyPressed() {
	switch k.state {
	case Pressing:
		k.state = Chording
	case PressingOnShifted:
		if k.kind == KindShift {
			k.state = Ignoring
		}
	}
}

func (k *KeyState) IsReleasing() bool         { return k.state == Released }
func (k *KeyState) IsPressing() bool          { return k.state == Pressing }
func (k *KeyState) IsPressingOnShifted() bool { return k.state == PressingOnShifted }
func (k *KeyState) IsIgnoring() bool          { return k.state == Ignoring }

// IsMomentary reports whether the key is held in a chord, in which case its
// release undoes the change made by its press.
func (k *KeyState) IsMomentary() bool { return k.state == Chording }

func (k *KeyState) String() string {
	return fmt.Sprintf("%s:%s", k.name, k.state)
}
