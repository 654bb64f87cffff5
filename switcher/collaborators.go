package switcher

import (
	"golang.org/x/text/language"

	"github.com/latinkbd/kbdswitch/keyboard"
)

// View is the surface that draws the current layout and reports touches.
type View interface {
	SetKeyboard(l keyboard.Layout)
	InvalidateAllKeys()
	InvalidateKey(k *keyboard.Key)
	// PointerCount is the number of touches currently down.
	PointerCount() int
	HasDistinctMultitouch() bool
	StartIgnoringDoubleTap()
	IsInSlidingKeyInput() bool
}

// Host is the input method hosting the controller.
type Host interface {
	CancelUpdateShiftState()
	AutoCapsState() bool
	StartDisplayLanguageOnSpacebar(localeChanged bool)
	IsShortcutIMEReady() bool
	InputLocale() language.Tag
	DisplayWidth() int
	Orientation() keyboard.Orientation
	HasMultipleEnabledIMEs() bool
}

// Preferences reads user preferences. Missing keys yield def.
type Preferences interface {
	String(key, def string) string
}

// MapPreferences is a fixed in-memory Preferences.
type MapPreferences map[string]string

func (m MapPreferences) String(key, def string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}
