package headless

import (
	"golang.org/x/text/language"

	"github.com/latinkbd/kbdswitch/keyboard"
)

// Host answers the controller's queries from its fields and counts the
// notifications it receives.
type Host struct {
	AutoCaps      bool
	Locale        language.Tag
	Width         int
	Screen        keyboard.Orientation
	ShortcutReady bool
	MultipleIMEs  bool

	ShiftUpdatesCancelled int
	LanguageHints         int
	LocaleChanges         int
}

func (h *Host) CancelUpdateShiftState() { h.ShiftUpdatesCancelled++ }
func (h *Host) AutoCapsState() bool     { return h.AutoCaps }

func (h *Host) StartDisplayLanguageOnSpacebar(localeChanged bool) {
	h.LanguageHints++
	if localeChanged {
		h.LocaleChanges++
	}
}

func (h *Host) IsShortcutIMEReady() bool          { return h.ShortcutReady }
func (h *Host) InputLocale() language.Tag         { return h.Locale }
func (h *Host) DisplayWidth() int                 { return h.Width }
func (h *Host) Orientation() keyboard.Orientation { return h.Screen }
func (h *Host) HasMultipleEnabledIMEs() bool      { return h.MultipleIMEs }
