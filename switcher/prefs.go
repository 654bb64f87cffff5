package switcher

import (
	"strconv"

	"github.com/latinkbd/kbdswitch/keyboard"
)

const (
	PrefKeyboardLayout = "pref_keyboard_layout_20100902"
	PrefSettingsKey    = "settings_key"

	// OptionNoSettingsKey is the private IME option that suppresses the
	// settings key, qualified with Config.PackageName.
	OptionNoSettingsKey = "noSettingsKey"
)

// Settings key visibility modes.
const (
	SettingsKeyAuto       = "auto"
	SettingsKeyAlwaysShow = "always_show"
	SettingsKeyAlwaysHide = "always_hide"

	defaultSettingsKeyMode = SettingsKeyAuto
)

// KeyboardThemes lists the selectable visual themes by index.
var KeyboardThemes = []string{
	"Basic",
	"HighContrast",
	"Stone",
	"StoneBold",
	"Gingerbread",
	"IceCreamSandwich",
}

// themeIndex reads the theme preference, falling back to 0 on anything that
// is not a valid index.
func (c *Controller) themeIndex() int {
	themeID := c.prefs.String(PrefKeyboardLayout, c.cfg.DefaultThemeID)
	if idx, err := strconv.Atoi(themeID); err == nil && idx >= 0 && idx < len(KeyboardThemes) {
		return idx
	}
	c.logger.Warn("illegal keyboard theme in preference, using default", "value", themeID, "default", 0)
	return 0
}

func (c *Controller) settingsKeyMode() string {
	return c.prefs.String(PrefSettingsKey, defaultSettingsKeyMode)
}

func (c *Controller) clobberSettingsKey(e EditorInfo) bool {
	return e.HasPrivateOption(c.cfg.PackageName, OptionNoSettingsKey)
}

// hasSettingsKey decides whether the settings key is shown. Without the show
// option it is always shown unless the editor clobbers it.
func (c *Controller) hasSettingsKey(e EditorInfo) bool {
	show := true
	if c.cfg.ShowSettingsKeyOption {
		switch c.settingsKeyMode() {
		case SettingsKeyAlwaysShow:
			show = true
		case SettingsKeyAuto:
			show = c.host.HasMultipleEnabledIMEs()
		default:
			show = false
		}
	}
	return show && !c.clobberSettingsKey(e)
}

func (c *Controller) f2KeyMode(e EditorInfo) keyboard.F2KeyMode {
	clobber := c.clobberSettingsKey(e)
	switch c.settingsKeyMode() {
	case SettingsKeyAuto:
		if clobber {
			return keyboard.F2KeyShortcutIME
		}
		return keyboard.F2KeyShortcutIMEOrSettings
	case SettingsKeyAlwaysShow:
		if clobber {
			return keyboard.F2KeyNone
		}
		return keyboard.F2KeySettings
	default:
		return keyboard.F2KeyShortcutIME
	}
}

// OnPreferenceChanged reacts to a changed preference key. A new theme drops
// every cached layout; both the theme and the settings key reload the
// keyboard for the last editor.
func (c *Controller) OnPreferenceChanged(key string) error {
	switch key {
	case PrefKeyboardLayout:
		idx := c.themeIndex()
		if idx == c.theme {
			return nil
		}
		c.logger.Info("keyboard theme changed", "from", KeyboardThemes[c.theme], "to", KeyboardThemes[idx])
		c.theme = idx
		c.cache.InvalidateAll()
		return c.reload()
	case PrefSettingsKey:
		return c.reload()
	}
	return nil
}

func (c *Controller) reload() error {
	if !c.loaded {
		return nil
	}
	return c.Load(c.editor, c.settings)
}
