package switcher

func (c *Controller) setManualTemporaryUpperCase(shifted bool) {
	l := c.current
	if l == nil {
		return
	}
	// Without distinct multitouch the release of a shift press is unreliable,
	// so leaving the shifted state also drops the lock here.
	if !c.HasDistinctMultitouch() && !shifted && l.IsShiftLocked() {
		l.SetShiftLocked(false)
	}
	if l.SetShifted(shifted) {
		c.invalidateAllKeys()
	}
}

func (c *Controller) setShiftLocked(locked bool) {
	if l := c.current; l != nil && l.SetShiftLocked(locked) {
		c.invalidateAllKeys()
	}
}

func (c *Controller) setAutomaticTemporaryUpperCase() {
	if l := c.current; l != nil {
		l.SetAutomaticTemporaryUpperCase()
		c.invalidateAllKeys()
	}
}

func (c *Controller) invalidateAllKeys() {
	if c.view != nil {
		c.view.InvalidateAllKeys()
	}
}

// ToggleShift flips the shift state on user request. On a symbol layout it
// swaps between the symbols and shifted symbols layouts.
func (c *Controller) ToggleShift() {
	c.host.CancelUpdateShiftState()
	c.logger.Debug("toggleShift", "keyboard", c.shiftState(), "shiftKey", c.shift)
	if c.IsAlphabetMode() {
		c.setManualTemporaryUpperCase(!c.IsShiftedOrShiftLocked())
	} else {
		c.toggleShiftInSymbol()
	}
}

func (c *Controller) ToggleCapsLock() {
	c.host.CancelUpdateShiftState()
	c.logger.Debug("toggleCapsLock", "keyboard", c.shiftState(), "shiftKey", c.shift)
	if !c.IsAlphabetMode() {
		return
	}
	if c.IsShiftLocked() {
		// Long press while locked returns to normal and counts as a release.
		c.setShiftLocked(false)
		c.shift.OnRelease()
	} else {
		c.setShiftLocked(true)
	}
}

// UpdateShiftState applies the editor's auto-capitalization state.
func (c *Controller) UpdateShiftState() {
	autoCaps := c.host.AutoCapsState()
	c.logger.Debug("updateShiftState", "autoCaps", autoCaps, "keyboard", c.shiftState(), "shiftKey", c.shift)
	if !c.IsAlphabetMode() {
		// Only the alphabet layout has a shift key.
		c.shift.OnRelease()
		return
	}
	if c.IsShiftLocked() || c.shift.IsIgnoring() {
		return
	}
	if c.shift.IsReleasing() && autoCaps {
		c.setAutomaticTemporaryUpperCase()
	} else {
		c.setManualTemporaryUpperCase(c.shift.IsMomentary())
	}
}

func (c *Controller) OnPressShift(sliding bool) {
	if !c.IsKeyboardAvailable() {
		return
	}
	c.logger.Debug("onPressShift", "keyboard", c.shiftState(), "shiftKey", c.shift, "sliding", sliding)
	if !c.IsAlphabetMode() {
		c.shift.OnPress()
		c.ToggleShift()
		c.machine.OnShiftPressedInSymbols()
		return
	}
	switch {
	case c.IsShiftLocked():
		// Treated as a press from the normal state over a locked keyboard.
		c.shift.OnPress()
		c.setManualTemporaryUpperCase(true)
	case c.IsAutomaticTemporaryUpperCase():
		c.shift.OnPress()
		c.setManualTemporaryUpperCase(true)
	case c.IsShiftedOrShiftLocked():
		c.shift.OnPressOnShifted()
	default:
		c.shift.OnPress()
		c.ToggleShift()
	}
}

func (c *Controller) OnReleaseShift(sliding bool) {
	if !c.IsKeyboardAvailable() {
		return
	}
	c.logger.Debug("onReleaseShift", "keyboard", c.shiftState(), "shiftKey", c.shift, "sliding", sliding)
	if c.IsAlphabetMode() {
		switch {
		case c.shift.IsMomentary():
			// Chorded with another key from the normal state.
			c.ToggleShift()
		case c.IsShiftLocked() && !c.shift.IsIgnoring() && !sliding:
			c.ToggleCapsLock()
			// The lock was just undone; a second tap must not lock it again.
			if c.view != nil {
				c.view.StartIgnoringDoubleTap()
			}
		case c.IsShiftedOrShiftLocked() && c.shift.IsPressingOnShifted() && !sliding:
			c.ToggleShift()
		case c.isManualTemporaryUpperCaseFromAuto() && c.shift.IsPressing() && !sliding:
			c.ToggleShift()
		}
	} else {
		c.run(c.machine.OnShiftReleasedInSymbols())
	}
	c.shift.OnRelease()
}

func (c *Controller) toggleShiftInSymbol() {
	if c.IsAlphabetMode() || c.current == nil {
		return
	}
	cur := c.current.ID()
	target := c.symbolsID
	if cur == c.symbolsID || cur != c.symbolsShiftedID {
		target = c.symbolsShiftedID
	}
	l, err := c.keyboard(target)
	if err != nil {
		c.logger.Warn("switching symbols shift failed", "id", target, "error", err)
		return
	}
	// The sticky ALT key of the shifted layout shows as locked.
	l.SetShiftLocked(target == c.symbolsShiftedID && l.HasShiftLockKey())
	c.setKeyboard(l)
}
