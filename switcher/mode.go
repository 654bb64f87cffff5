package switcher

import (
	"github.com/latinkbd/kbdswitch/keyboard/modeswitch"
)

// ChangeKeyboardMode swaps between the main and symbols layouts. A caps lock
// set on the alphabet layout is restored when coming back to it.
func (c *Controller) ChangeKeyboardMode() {
	c.logger.Debug("changeKeyboardMode", "keyboard", c.shiftState(), "shiftKey", c.shift)
	if c.IsAlphabetMode() {
		c.savedShiftLocked = c.IsShiftLocked()
	}
	c.toggleKeyboardMode()
	if c.IsAlphabetMode() && (c.IsShiftLocked() || c.savedShiftLocked) {
		c.setShiftLocked(true)
	}
	c.UpdateShiftState()
}

func (c *Controller) toggleKeyboardMode() {
	if c.current == nil {
		return
	}
	toMain := c.current.ID() != c.mainID
	target := c.symbolsID
	if toMain {
		target = c.mainID
	}
	l, err := c.keyboard(target)
	if err != nil {
		c.logger.Warn("switching keyboard mode failed", "id", target, "error", err)
		return
	}
	c.setKeyboard(l)
	c.machine.ModeToggled(toMain)
}

func (c *Controller) OnPressMode() {
	c.logger.Debug("onPressSymbol", "keyboard", c.shiftState(), "modeKey", c.mode)
	c.ChangeKeyboardMode()
	c.mode.OnPress()
	c.machine.OnModePressed()
}

func (c *Controller) OnReleaseMode() {
	c.logger.Debug("onReleaseSymbol", "keyboard", c.shiftState(), "modeKey", c.mode)
	c.run(c.machine.OnModeReleased())
	c.mode.OnRelease()
}

func (c *Controller) OnOtherKeyPressed() {
	c.logger.Debug("onOtherKeyPressed", "keyboard", c.shiftState(), "shiftKey", c.shift, "modeKey", c.mode)
	c.shift.OnOtherKeyPressed()
	c.mode.OnOtherKeyPressed()
}

// OnCancelInput snaps back from a momentary switch when the user aborts a
// slide. Safe to call in any state.
func (c *Controller) OnCancelInput() {
	c.run(c.machine.OnCancel(c.pointerCount()))
}

// OnKey feeds a delivered key code to the snap-back logic.
func (c *Controller) OnKey(code int) {
	pointers := c.pointerCount()
	c.logger.Debug("onKey", "code", code, "switchState", c.machine.State(), "pointers", pointers)
	onMain := c.current != nil && c.current.ID() == c.mainID
	c.run(c.machine.OnKey(code, pointers, onMain))
}

func (c *Controller) run(a modeswitch.Action) {
	switch a {
	case modeswitch.ActionToggleMode:
		c.ChangeKeyboardMode()
	case modeswitch.ActionToggleShift:
		c.ToggleShift()
	}
}
