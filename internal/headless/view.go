// Package headless runs keyboard switchers without a screen. A Session pairs
// one switcher.Controller with a recording View and a scriptable Host, and
// applies apitypes.Event values to it.
package headless

import (
	"github.com/latinkbd/kbdswitch/keyboard"
)

// View records what the controller asks to draw and answers touch queries
// from its fields.
type View struct {
	Layout             keyboard.Layout
	Pointers           int
	DistinctMultitouch bool
	Sliding            bool
	IgnoringDoubleTap  bool

	// Redraws counts full invalidations, KeyRedraws single key ones.
	Redraws    int
	KeyRedraws int
	// Shown counts SetKeyboard calls.
	Shown int
}

func NewView() *View { return &View{DistinctMultitouch: true} }

func (v *View) SetKeyboard(l keyboard.Layout) {
	v.Layout = l
	v.Shown++
	// A new layout clears any pending double-tap suppression.
	v.IgnoringDoubleTap = false
	v.Redraws++
}

func (v *View) InvalidateAllKeys()          { v.Redraws++ }
func (v *View) InvalidateKey(*keyboard.Key) { v.KeyRedraws++ }
func (v *View) PointerCount() int           { return v.Pointers }
func (v *View) HasDistinctMultitouch() bool { return v.DistinctMultitouch }
func (v *View) StartIgnoringDoubleTap()     { v.IgnoringDoubleTap = true }
func (v *View) IsInSlidingKeyInput() bool   { return v.Sliding }

func (v *View) press() { v.Pointers++ }

func (v *View) release() {
	if v.Pointers > 0 {
		v.Pointers--
	}
}
