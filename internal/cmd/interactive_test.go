package cmd_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latinkbd/kbdswitch/apitypes"
	"github.com/latinkbd/kbdswitch/internal/cmd"
	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/keyboard"
)

func types(evs []apitypes.Event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}

func TestKeymapEvents(t *testing.T) {
	var km cmd.Keymap

	tests := []struct {
		name  string
		in    byte
		types []string
		code  int
		quit  bool
		shift bool
		mode  bool
	}{
		{name: "letter", in: 'a', types: []string{"otherKey", "key"}, code: 'a'},
		{name: "shift down", in: '\t', types: []string{"pressShift"}, shift: true},
		{name: "mode down", in: 0x14, types: []string{"pressMode"}, shift: true, mode: true},
		{name: "shift up", in: '\t', types: []string{"releaseShift"}, mode: true},
		{name: "mode up", in: 0x14, types: []string{"releaseMode"}},
		{name: "enter", in: '\r', types: []string{"otherKey", "key"}, code: keyboard.CodeEnter},
		{name: "backspace", in: 0x7f, types: []string{"otherKey", "key"}, code: keyboard.CodeDelete},
		{name: "caps lock", in: 0x0c, types: []string{"toggleCapsLock"}},
		{name: "hide", in: 0x18, types: []string{"hide"}},
		{name: "unmapped control", in: 0x01, types: []string{}},
		{name: "quit", in: 0x03, types: []string{}, quit: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evs, quit := km.Events(tt.in)
			assert.Equal(t, tt.quit, quit)
			assert.Equal(t, tt.types, types(evs))
			if tt.code != 0 {
				require.NotNil(t, evs[1].Code)
				assert.Equal(t, tt.code, *evs[1].Code)
			}
			assert.Equal(t, tt.shift, km.ShiftDown)
			assert.Equal(t, tt.mode, km.ModeDown)
		})
	}
}

func TestKeymapEscapeReleasesHeldKeys(t *testing.T) {
	km := cmd.Keymap{ShiftDown: true, ModeDown: true}
	evs, quit := km.Events(0x1b)
	assert.False(t, quit)
	assert.Equal(t, []string{"cancel"}, types(evs))
	assert.False(t, km.ShiftDown)
	assert.False(t, km.ModeDown)
}

func TestRenderState(t *testing.T) {
	st := apitypes.SessionState{
		Loaded: true, Layout: "symbols", Locale: "en-US", Orientation: "portrait",
		Mode: "text", SwitchState: "momentary-alpha-and-symbol", ShiftState: "released",
	}
	out := cmd.RenderState(st, cmd.Keymap{ModeDown: true}, errors.New("boom"))
	assert.Contains(t, out, "symbols (en-US, portrait)")
	assert.Contains(t, out, "momentary-alpha-and-symbol")
	assert.Contains(t, out, "mode held")
	assert.Contains(t, out, "boom")
	assert.NotContains(t, out, "No keyboard loaded")
	assert.NotContains(t, out, "\r\n\r\n\r\n")

	out = cmd.RenderState(apitypes.SessionState{}, cmd.Keymap{}, nil)
	assert.Contains(t, out, "No keyboard loaded")
	assert.Contains(t, out, "- (-, -)")
}

type sessionApplier struct{ *headless.Session }

func (s sessionApplier) Close() error { s.Session.Close(); return nil }

func TestDriveAppliesKeystrokes(t *testing.T) {
	s, err := headless.NewSession("drive", apitypes.SessionCreateRequest{
		Editor: &apitypes.EditorInfo{InputClass: "text"},
	}, headless.Options{Switcher: switcherConfig(), Logger: discard()})
	require.NoError(t, err)
	defer s.Close()

	in := make(chan byte, 8)
	// Hold mode, type a symbol, release: a chord returns to alpha.
	for _, b := range []byte{0x14, '1', 0x14} {
		in <- b
	}
	close(in)

	var screen bytes.Buffer
	require.NoError(t, cmd.Drive(sessionApplier{s}, s.State(), in, &screen))
	assert.Equal(t, "alpha", s.State().Layout)
	assert.Equal(t, "alpha", s.State().SwitchState)
	assert.Contains(t, screen.String(), "symbols")
}

type failingApplier struct{ applied []string }

func (f *failingApplier) Apply(ev apitypes.Event) (apitypes.SessionState, error) {
	f.applied = append(f.applied, ev.Type)
	return apitypes.SessionState{}, errors.New("no keyboard")
}

func (f *failingApplier) Close() error { return nil }

func TestDriveStopsBatchOnErrorAndQuits(t *testing.T) {
	in := make(chan byte, 2)
	in <- 'x'
	in <- 0x04

	f := &failingApplier{}
	var screen bytes.Buffer
	require.NoError(t, cmd.Drive(f, apitypes.SessionState{}, in, &screen))
	assert.Equal(t, []string{"otherKey"}, f.applied)
	assert.Contains(t, screen.String(), "otherKey: no keyboard")
}
