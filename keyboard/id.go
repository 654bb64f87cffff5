// Package keyboard defines keyboard identities and the layout instances built from them.
package keyboard

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Kind selects the layout definition a keyboard is built from.
type Kind int

const (
	KindAlpha Kind = iota
	KindSymbols
	KindSymbolsShifted
	KindNumber
	KindPhone
	KindPhoneShifted
)

var kindNames = [...]string{"alpha", "symbols", "symbols-shifted", "number", "phone", "phone-shifted"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(n, s) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown layout kind %q", s)
}

// Mode is the keyboard mode derived from the editor attributes.
type Mode int

const (
	ModeText Mode = iota
	ModeURL
	ModeEmail
	ModeIM
	ModeWeb
	ModePhone
	ModeNumber
)

var modeNames = [...]string{"text", "url", "email", "im", "web", "phone", "number"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(n, s) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown keyboard mode %q", s)
}

type Orientation int

const (
	OrientationPortrait Orientation = iota
	OrientationLandscape
)

func (o Orientation) String() string {
	if o == OrientationLandscape {
		return "landscape"
	}
	return "portrait"
}

// ParseOrientation accepts "portrait" and "landscape"; empty means portrait.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(s) {
	case "", "portrait":
		return OrientationPortrait, nil
	case "landscape":
		return OrientationLandscape, nil
	default:
		return 0, fmt.Errorf("unknown orientation %q", s)
	}
}

// ImeAction is the editor action shown on the enter key.
type ImeAction int

const (
	ActionUnspecified ImeAction = iota
	ActionNone
	ActionGo
	ActionSearch
	ActionSend
	ActionNext
	ActionDone
	ActionPrevious
)

var imeActionNames = [...]string{"unspecified", "none", "go", "search", "send", "next", "done", "previous"}

func (a ImeAction) String() string {
	if a < 0 || int(a) >= len(imeActionNames) {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return imeActionNames[a]
}

// ParseImeAction is the inverse of ImeAction.String; empty means unspecified.
func ParseImeAction(s string) (ImeAction, error) {
	if s == "" {
		return ActionUnspecified, nil
	}
	for i, n := range imeActionNames {
		if strings.EqualFold(n, s) {
			return ImeAction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown editor action %q", s)
}

// F2KeyMode controls what the key left of the spacebar shows.
type F2KeyMode int

const (
	F2KeyNone F2KeyMode = iota
	F2KeySettings
	F2KeyShortcutIME
	F2KeyShortcutIMEOrSettings
)

func (m F2KeyMode) String() string {
	switch m {
	case F2KeySettings:
		return "settings"
	case F2KeyShortcutIME:
		return "shortcut-ime"
	case F2KeyShortcutIMEOrSettings:
		return "shortcut-ime-or-settings"
	default:
		return "none"
	}
}

// ID identifies one distinct keyboard configuration. IDs are plain values:
// two IDs with equal fields are interchangeable, which makes ID usable as a
// map key.
type ID struct {
	Kind          Kind
	Locale        language.Tag
	Orientation   Orientation
	Width         int
	Mode          Mode
	ImeAction     ImeAction
	PasswordInput bool

	HasSettingsKey     bool
	F2KeyMode          F2KeyMode
	ClobberSettingsKey bool
	VoiceKeyEnabled    bool
	HasVoiceKey        bool
}

// WithGeometry returns a copy of id laid out for a different screen.
func (id ID) WithGeometry(o Orientation, width int) ID {
	id.Orientation = o
	id.Width = width
	return id
}

func (id ID) IsAlphabet() bool { return id.Kind == KindAlpha }

// IsSymbols reports whether id is one of the symbol layouts reached through the mode key.
func (id ID) IsSymbols() bool {
	return id.Kind == KindSymbols || id.Kind == KindSymbolsShifted
}

func (id ID) String() string {
	return fmt.Sprintf("[%s %s %s w=%d mode=%s%s%s%s f2=%s%s]",
		id.Kind, id.Locale, id.Orientation, id.Width, id.Mode,
		flag(id.PasswordInput, " password"),
		flag(id.HasSettingsKey, " settingsKey"),
		flag(id.ClobberSettingsKey, " clobberSettingsKey"),
		id.F2KeyMode,
		flag(id.HasVoiceKey, " voiceKey"),
	)
}

// MarshalText renders the ID the way String does, for JSON snapshots.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func flag(b bool, s string) string {
	if b {
		return s
	}
	return ""
}
