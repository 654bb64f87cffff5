// Package switcher decides which keyboard layout and shift state are shown
// at every input event.
//
// A Controller owns the shift and mode key trackers, the mode switch machine
// and the layout cache. It is not safe for concurrent use; hosts serving
// several clients confine each Controller to one owner.
package switcher

import (
	"fmt"
	"log/slog"

	"github.com/latinkbd/kbdswitch/internal/layoutcache"
	"github.com/latinkbd/kbdswitch/keyboard"
	"github.com/latinkbd/kbdswitch/keyboard/keystate"
	"github.com/latinkbd/kbdswitch/keyboard/modeswitch"
)

// BuildFunc builds the layout for an identity drawn with a theme index.
type BuildFunc func(id keyboard.ID, theme int) (keyboard.Layout, error)

func defaultBuild(id keyboard.ID, theme int) (keyboard.Layout, error) {
	return keyboard.Builder(theme)(id)
}

type Config struct {
	PackageName           string             `help:"Package name qualifying private IME options" default:"com.latinkbd"`
	ShowSettingsKeyOption bool               `help:"Honour the settings key preference instead of always showing the key" default:"true" negatable:""`
	DefaultThemeID        string             `help:"Theme index used when the preference is unset" default:"0"`
	Cache                 layoutcache.Config `embed:"" prefix:"cache."`

	Build     BuildFunc             `kong:"-"`
	Reclaimer layoutcache.Reclaimer `kong:"-"`
}

type Controller struct {
	cfg    Config
	view   View
	host   Host
	prefs  Preferences
	logger *slog.Logger
	build  BuildFunc

	cache   *layoutcache.Cache
	shift   *keystate.KeyState
	mode    *keystate.KeyState
	machine *modeswitch.Machine

	mainID           keyboard.ID
	symbolsID        keyboard.ID
	symbolsShiftedID keyboard.ID
	current          keyboard.Layout

	editor   EditorInfo
	settings Settings
	loaded   bool

	theme                int
	windowWidth          int
	autoCorrectionActive bool
	savedShiftLocked     bool
}

// New creates a Controller bound to its collaborators. Nothing is displayed
// until Load.
func New(cfg Config, view View, host Host, prefs Preferences, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if prefs == nil {
		prefs = MapPreferences{}
	}
	cache, err := layoutcache.New(cfg.Cache, cfg.Reclaimer, logger)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		cfg:     cfg,
		view:    view,
		host:    host,
		prefs:   prefs,
		logger:  logger,
		build:   cfg.Build,
		cache:   cache,
		shift:   keystate.New(keystate.KindShift, "Shift"),
		mode:    keystate.New(keystate.KindMode, "Symbol"),
		machine: modeswitch.New(),
	}
	if c.build == nil {
		c.build = defaultBuild
	}
	c.theme = c.themeIndex()
	return c, nil
}

// Close drops every cached layout and detaches the view.
func (c *Controller) Close() {
	c.cache.InvalidateAll()
	c.current = nil
	c.view = nil
	c.loaded = false
}

// Load computes the main, symbols and shifted symbols identities for the
// editor and displays the main layout. On failure the previous layout stays
// displayed.
func (c *Controller) Load(e EditorInfo, s Settings) error {
	c.machine.Reset()
	c.savedShiftLocked = false
	voiceEnabled := s.voiceKeyEnabled(e)
	mainID := c.keyboardID(e, false, false, voiceEnabled, s.VoiceKeyOnMain)
	symbolsID := c.keyboardID(e, true, false, voiceEnabled, s.VoiceKeyOnMain)
	symbolsShiftedID := c.keyboardID(e, true, true, voiceEnabled, s.VoiceKeyOnMain)

	l, err := c.keyboard(mainID)
	if err != nil {
		c.logger.Warn("loading keyboard failed", "id", mainID, "error", err)
		return fmt.Errorf("load keyboard %s: %w", mainID, err)
	}
	c.mainID, c.symbolsID, c.symbolsShiftedID = mainID, symbolsID, symbolsShiftedID
	c.editor, c.settings, c.loaded = e, s, true
	c.setKeyboard(l)
	return nil
}

func (c *Controller) keyboardID(e EditorInfo, isSymbols, isShift, voiceEnabled, voiceOnMain bool) keyboard.ID {
	mode := KeyboardModeOf(e)
	var kind keyboard.Kind
	switch mode {
	case keyboard.ModePhone:
		kind = keyboard.KindPhone
		if isSymbols && isShift {
			kind = keyboard.KindPhoneShifted
		}
	case keyboard.ModeNumber:
		kind = keyboard.KindNumber
	default:
		switch {
		case isSymbols && isShift:
			kind = keyboard.KindSymbolsShifted
		case isSymbols:
			kind = keyboard.KindSymbols
		default:
			kind = keyboard.KindAlpha
		}
	}
	if c.windowWidth == 0 {
		c.windowWidth = c.host.DisplayWidth()
	}
	return keyboard.ID{
		Kind:               kind,
		Locale:             c.host.InputLocale(),
		Orientation:        c.host.Orientation(),
		Width:              c.windowWidth,
		Mode:               mode,
		ImeAction:          e.ImeAction,
		PasswordInput:      e.InputType.IsPassword(),
		HasSettingsKey:     c.hasSettingsKey(e),
		F2KeyMode:          c.f2KeyMode(e),
		ClobberSettingsKey: c.clobberSettingsKey(e),
		VoiceKeyEnabled:    voiceEnabled,
		HasVoiceKey:        voiceEnabled && isSymbols != voiceOnMain,
	}
}

// keyboard fetches the layout for id and resets the visual state a reused
// instance may carry from its last display.
func (c *Controller) keyboard(id keyboard.ID) (keyboard.Layout, error) {
	l, err := c.cache.GetOrBuild(id, func(id keyboard.ID) (keyboard.Layout, error) {
		return c.build(id, c.theme)
	})
	if err != nil {
		return nil, err
	}
	l.OnAutoCorrectionStateChanged(c.autoCorrectionActive)
	l.SetShifted(false)
	l.SetSpacebarTextFadeFactor(0)
	l.UpdateShortcutKey(c.host.IsShortcutIMEReady())
	return l, nil
}

func (c *Controller) setKeyboard(l keyboard.Layout) {
	old := c.current
	c.current = l
	if c.view != nil {
		c.view.SetKeyboard(l)
	}
	localeChanged := old == nil || old.ID().Locale != l.ID().Locale
	c.host.StartDisplayLanguageOnSpacebar(localeChanged)
}

func (c *Controller) OnHideWindow() {
	c.windowWidth = 0
	c.autoCorrectionActive = false
}

// OnGeometryChanged redisplays the current layout for a new screen width and
// orientation. It does nothing until a width is known and a layout is shown.
func (c *Controller) OnGeometryChanged(width int, o keyboard.Orientation) error {
	if width == 0 || c.current == nil {
		return nil
	}
	c.windowWidth = width
	newID := c.current.ID().WithGeometry(o, width)
	l, err := c.keyboard(newID)
	if err != nil {
		c.logger.Warn("reloading keyboard for new geometry failed", "id", newID, "error", err)
		return fmt.Errorf("resize keyboard %s: %w", newID, err)
	}
	c.mainID = c.mainID.WithGeometry(o, width)
	c.symbolsID = c.symbolsID.WithGeometry(o, width)
	c.symbolsShiftedID = c.symbolsShiftedID.WithGeometry(o, width)
	c.setKeyboard(l)
	return nil
}

func (c *Controller) OnAutoCorrectionStateChanged(active bool) {
	if c.autoCorrectionActive == active {
		return
	}
	c.autoCorrectionActive = active
	l := c.current
	if l == nil || !l.NeedsAutoCorrectionSpacebarLed() {
		return
	}
	key := l.OnAutoCorrectionStateChanged(active)
	if key != nil && c.view != nil {
		c.view.InvalidateKey(key)
	}
}

// Current returns the displayed layout, or nil before the first Load.
func (c *Controller) Current() keyboard.Layout { return c.current }

func (c *Controller) CurrentID() (keyboard.ID, bool) {
	if c.current == nil {
		return keyboard.ID{}, false
	}
	return c.current.ID(), true
}

// Identities returns the main, symbols and shifted symbols identities of the
// last Load.
func (c *Controller) Identities() (main, symbols, symbolsShifted keyboard.ID) {
	return c.mainID, c.symbolsID, c.symbolsShiftedID
}

func (c *Controller) KeyboardMode() keyboard.Mode {
	if c.current == nil {
		return keyboard.ModeText
	}
	return c.current.ID().Mode
}

func (c *Controller) IsAlphabetMode() bool {
	return c.current != nil && c.current.ID().IsAlphabet()
}

func (c *Controller) IsKeyboardAvailable() bool {
	return c.view != nil && c.current != nil
}

func (c *Controller) IsShiftedOrShiftLocked() bool {
	return c.current != nil && c.current.IsShiftedOrShiftLocked()
}

func (c *Controller) IsShiftLocked() bool {
	return c.current != nil && c.current.IsShiftLocked()
}

func (c *Controller) IsAutomaticTemporaryUpperCase() bool {
	return c.current != nil && c.current.IsAutomaticTemporaryUpperCase()
}

func (c *Controller) IsManualTemporaryUpperCase() bool {
	return c.current != nil && c.current.IsManualTemporaryUpperCase()
}

func (c *Controller) isManualTemporaryUpperCaseFromAuto() bool {
	return c.current != nil && c.current.IsManualTemporaryUpperCaseFromAuto()
}

func (c *Controller) IsInMomentarySwitchState() bool { return c.machine.IsMomentary() }

// IsVibrateAndSoundFeedbackRequired is false while the user slides across keys.
func (c *Controller) IsVibrateAndSoundFeedbackRequired() bool {
	return c.view == nil || !c.view.IsInSlidingKeyInput()
}

func (c *Controller) HasDistinctMultitouch() bool {
	return c.view != nil && c.view.HasDistinctMultitouch()
}

func (c *Controller) SwitchState() modeswitch.State { return c.machine.State() }
func (c *Controller) ShiftKey() keystate.State      { return c.shift.State() }
func (c *Controller) ModeKey() keystate.State       { return c.mode.State() }
func (c *Controller) ThemeIndex() int               { return c.theme }
func (c *Controller) CacheStats() layoutcache.Stats { return c.cache.Stats() }

func (c *Controller) pointerCount() int {
	if c.view == nil {
		return 0
	}
	return c.view.PointerCount()
}

func (c *Controller) shiftState() keyboard.ShiftState {
	if c.current == nil {
		return keyboard.ShiftNormal
	}
	return c.current.ShiftState()
}
