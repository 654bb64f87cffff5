package keyboard

import (
	"errors"
	"fmt"
)

// ErrResourceExhausted marks a build failure that may succeed once memory has
// been reclaimed. Builders wrap it; callers test with errors.Is.
var ErrResourceExhausted = errors.New("keyboard: resource exhausted")

// Layout is a built keyboard. It tracks its own visual state; the switcher
// decides when that state changes.
type Layout interface {
	ID() ID
	Theme() int

	SetShifted(shifted bool) bool
	SetShiftLocked(locked bool) bool
	SetAutomaticTemporaryUpperCase()
	ShiftState() ShiftState
	IsShiftedOrShiftLocked() bool
	IsShiftLocked() bool
	IsAutomaticTemporaryUpperCase() bool
	IsManualTemporaryUpperCase() bool
	IsManualTemporaryUpperCaseFromAuto() bool
	HasShiftLockKey() bool

	NeedsAutoCorrectionSpacebarLed() bool
	OnAutoCorrectionStateChanged(active bool) *Key
	SetSpacebarTextFadeFactor(f float64)
	SpacebarTextFadeFactor() float64
	UpdateShortcutKey(available bool) *Key
	ShortcutAvailable() bool
}

// BuildFunc constructs the layout for an identity.
type BuildFunc func(id ID) (Layout, error)

// Keyboard is the default Layout. Key geometry is not modelled; only the keys
// whose visual state the switcher drives are kept.
type Keyboard struct {
	id    ID
	theme int
	shift ShiftState

	shiftKey    *Key
	spaceKey    *Key
	shortcutKey *Key

	autoCorrectionActive bool
	fadeFactor           float64
}

// Build returns a Keyboard for id drawn with the given theme.
func Build(id ID, theme int) (*Keyboard, error) {
	if id.Width < 0 {
		return nil, fmt.Errorf("keyboard: invalid width %d for %s", id.Width, id)
	}
	if id.Kind < KindAlpha || id.Kind > KindPhoneShifted {
		return nil, fmt.Errorf("keyboard: no layout for kind %s", id.Kind)
	}
	k := &Keyboard{
		id:       id,
		theme:    theme,
		spaceKey: &Key{Code: CodeSpace, Label: id.Locale.String()},
	}
	switch id.Kind {
	case KindAlpha, KindSymbols, KindSymbolsShifted:
		k.shiftKey = &Key{Code: CodeShift}
	}
	if id.F2KeyMode == F2KeyShortcutIME || id.F2KeyMode == F2KeyShortcutIMEOrSettings {
		k.shortcutKey = &Key{Code: CodeShortcut}
	}
	return k, nil
}

// Builder adapts Build to a BuildFunc bound to a theme.
func Builder(theme int) BuildFunc {
	return func(id ID) (Layout, error) {
		k, err := Build(id, theme)
		if err != nil {
			return nil, err
		}
		return k, nil
	}
}

func (k *Keyboard) ID() ID     { return k.id }
func (k *Keyboard) Theme() int { return k.theme }

func (k *Keyboard) SetShifted(shifted bool) bool {
	changed := k.shift.setShifted(shifted)
	k.syncShiftKey()
	return changed
}

func (k *Keyboard) SetShiftLocked(locked bool) bool {
	changed := k.shift.setShiftLocked(locked)
	k.syncShiftKey()
	return changed
}

func (k *Keyboard) SetAutomaticTemporaryUpperCase() {
	k.shift = ShiftAuto
	k.syncShiftKey()
}

func (k *Keyboard) syncShiftKey() {
	if k.shiftKey != nil {
		k.shiftKey.On = k.shift.isShiftLocked()
	}
}

func (k *Keyboard) ShiftState() ShiftState                  { return k.shift }
func (k *Keyboard) IsShiftedOrShiftLocked() bool            { return k.shift != ShiftNormal }
func (k *Keyboard) IsShiftLocked() bool                     { return k.shift.isShiftLocked() }
func (k *Keyboard) IsAutomaticTemporaryUpperCase() bool     { return k.shift == ShiftAuto }
func (k *Keyboard) IsManualTemporaryUpperCase() bool        { return k.shift.isManualTemporaryUpperCase() }
func (k *Keyboard) IsManualTemporaryUpperCaseFromAuto() bool { return k.shift == ShiftManualFromAuto }

// HasShiftLockKey reports whether the layout has a sticky shift (the ALT key
// of the shifted symbols layout).
func (k *Keyboard) HasShiftLockKey() bool {
	return k.id.Kind == KindSymbolsShifted
}

// NeedsAutoCorrectionSpacebarLed reports whether the spacebar shows the
// auto-correction indicator. Only text alphabet layouts have it.
func (k *Keyboard) NeedsAutoCorrectionSpacebarLed() bool {
	return k.id.Kind == KindAlpha && !k.id.PasswordInput
}

// OnAutoCorrectionStateChanged updates the spacebar indicator and returns the
// key to redraw, or nil when nothing changed.
func (k *Keyboard) OnAutoCorrectionStateChanged(active bool) *Key {
	if k.autoCorrectionActive == active {
		return nil
	}
	k.autoCorrectionActive = active
	if !k.NeedsAutoCorrectionSpacebarLed() {
		return nil
	}
	k.spaceKey.On = active
	return k.spaceKey
}

func (k *Keyboard) AutoCorrectionActive() bool { return k.autoCorrectionActive }

func (k *Keyboard) SetSpacebarTextFadeFactor(f float64) {
	switch {
	case f < 0:
		f = 0
	case f > 1:
		f = 1
	}
	k.fadeFactor = f
}

func (k *Keyboard) SpacebarTextFadeFactor() float64 { return k.fadeFactor }

// UpdateShortcutKey enables or disables the shortcut key and returns it, or
// nil if the layout has none.
func (k *Keyboard) UpdateShortcutKey(available bool) *Key {
	if k.shortcutKey == nil {
		return nil
	}
	k.shortcutKey.On = available
	return k.shortcutKey
}

func (k *Keyboard) ShortcutAvailable() bool {
	return k.shortcutKey != nil && k.shortcutKey.On
}

func (k *Keyboard) String() string {
	return fmt.Sprintf("%s shift=%s", k.id, k.shift)
}
