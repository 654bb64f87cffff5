package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/latinkbd/kbdswitch/apiclient"
	"github.com/latinkbd/kbdswitch/apitypes"
	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/log"
	"github.com/latinkbd/kbdswitch/keyboard"
	"github.com/latinkbd/kbdswitch/switcher"
)

type Interactive struct {
	Addr       string          `help:"Drive a session on a running server instead of an in-process one"`
	Password   string          `help:"Password of the remote API server" env:"KBDSWITCH_API_PASSWORD"`
	Locale     string          `help:"Keyboard locale" default:"en-US"`
	Width      int             `help:"Display width in pixels" default:"480"`
	InputClass string          `help:"Input class of the edited field" enum:"text,number,phone,datetime" default:"text"`
	Variation  string          `help:"Text variation of the edited field (uri, email-address, password, ...)"`
	Switcher   switcher.Config `embed:"" prefix:"switcher."`
}

// applier is the session the terminal drives.
type applier interface {
	Apply(ev apitypes.Event) (apitypes.SessionState, error)
	Close() error
}

type localSession struct{ s *headless.Session }

func (l localSession) Apply(ev apitypes.Event) (apitypes.SessionState, error) { return l.s.Apply(ev) }
func (l localSession) Close() error                                         { l.s.Close(); return nil }

type remoteSession struct {
	client *apiclient.Client
	stream *apiclient.SessionStream
}

func (r remoteSession) Apply(ev apitypes.Event) (apitypes.SessionState, error) {
	st, err := r.stream.Send(ev)
	if err != nil {
		return apitypes.SessionState{}, err
	}
	return *st, nil
}

func (r remoteSession) Close() error {
	err := r.stream.Close()
	if _, rerr := r.client.SessionRemove(r.stream.ID); rerr != nil {
		err = errors.Join(err, rerr)
	}
	return err
}

// Run is called by Kong when the interactive command is executed.
func (c *Interactive) Run(logger *slog.Logger, events log.EventLogger) error {
	req := c.request()
	sess, initial, err := c.open(req, logger, events)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("closing session", "error", err)
		}
	}()

	stdinFD := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(stdinFD)
	if err != nil {
		return fmt.Errorf("cannot make terminal raw: %w", err)
	}
	defer term.Restore(stdinFD, oldState)

	stdin := make(chan byte)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := os.Stdin.Read(buf); err != nil {
				close(stdin)
				return
			}
			stdin <- buf[0]
		}
	}()
	return Drive(sess, initial, stdin, os.Stderr)
}

func (c *Interactive) request() apitypes.SessionCreateRequest {
	return apitypes.SessionCreateRequest{
		Locale: c.Locale,
		Width:  c.Width,
		Editor: &apitypes.EditorInfo{InputClass: c.InputClass, Variation: c.Variation},
	}
}

func (c *Interactive) open(req apitypes.SessionCreateRequest, logger *slog.Logger, events log.EventLogger) (applier, apitypes.SessionState, error) {
	if c.Addr == "" {
		s, err := headless.NewSession("interactive", req, headless.Options{Switcher: c.Switcher, Events: events, Logger: logger})
		if err != nil {
			return nil, apitypes.SessionState{}, err
		}
		return localSession{s: s}, s.State(), nil
	}

	client := apiclient.NewWithPassword(c.Addr, c.Password)
	stream, st, err := client.SessionCreateAndConnect(context.Background(), &req)
	if err != nil {
		return nil, apitypes.SessionState{}, fmt.Errorf("connect to %s: %w", c.Addr, err)
	}
	logger.Debug("remote session opened", "addr", c.Addr, "id", stream.ID)
	return remoteSession{client: client, stream: stream}, *st, nil
}

// Drive feeds keystrokes from in to sess and redraws w after each one until
// in is closed or the user quits.
func Drive(sess applier, st apitypes.SessionState, in <-chan byte, w io.Writer) error {
	var km Keymap
	var lastErr error
	for {
		_, _ = io.WriteString(w, RenderState(st, km, lastErr))
		b, ok := <-in
		if !ok {
			return nil
		}
		evs, quit := km.Events(b)
		if quit {
			_, _ = io.WriteString(w, "\r\n")
			return nil
		}
		lastErr = nil
		for _, ev := range evs {
			next, err := sess.Apply(ev)
			if err != nil {
				lastErr = fmt.Errorf("%s: %w", ev.Type, err)
				break
			}
			st = next
		}
	}
}

// Keymap turns raw terminal bytes into session events. A terminal reports no
// key releases, so the shift and mode keys toggle between held and released.
type Keymap struct {
	ShiftDown bool
	ModeDown  bool
}

const (
	ctrlC     = 0x03
	ctrlD     = 0x04
	ctrlL     = 0x0c
	ctrlT     = 0x14
	ctrlX     = 0x18
	esc       = 0x1b
	backspace = 0x7f
)

// Events returns the events for one input byte and whether to quit.
func (k *Keymap) Events(b byte) ([]apitypes.Event, bool) {
	key := func(code int) []apitypes.Event {
		evs := []apitypes.Event{{Type: apitypes.EventOtherKey}}
		return append(evs, apitypes.Event{Type: apitypes.EventKey, Code: &code})
	}
	switch {
	case b == ctrlC || b == ctrlD:
		return nil, true
	case b == '\t':
		k.ShiftDown = !k.ShiftDown
		if k.ShiftDown {
			return []apitypes.Event{{Type: apitypes.EventPressShift}}, false
		}
		return []apitypes.Event{{Type: apitypes.EventReleaseShift}}, false
	case b == ctrlT:
		k.ModeDown = !k.ModeDown
		if k.ModeDown {
			return []apitypes.Event{{Type: apitypes.EventPressMode}}, false
		}
		return []apitypes.Event{{Type: apitypes.EventReleaseMode}}, false
	case b == ctrlL:
		return []apitypes.Event{{Type: apitypes.EventToggleCapsLock}}, false
	case b == ctrlX:
		return []apitypes.Event{{Type: apitypes.EventHide}}, false
	case b == esc:
		k.ShiftDown, k.ModeDown = false, false
		return []apitypes.Event{{Type: apitypes.EventCancel}}, false
	case b == '\r' || b == '\n':
		return key(keyboard.CodeEnter), false
	case b == backspace:
		return key(keyboard.CodeDelete), false
	case b >= 0x20 && b < 0x7f:
		return key(int(b)), false
	}
	return nil, false
}

// RenderState draws one screen for st.
func RenderState(st apitypes.SessionState, km Keymap, err error) string {
	ifLine := func(cond bool, s string) string {
		if cond {
			return s
		}
		return ""
	}
	held := func(down bool) string {
		if down {
			return "held"
		}
		return "up"
	}
	lines := []string{
		"\033[m\033[2J\033[H\033[1;34mkbdswitch - interactive keyboard\033[m",
		"",
		fmt.Sprintf("\033[1mLayout:\033[m %s (%s, %s)", orNone(st.Layout), orNone(st.Locale), orNone(st.Orientation)),
		fmt.Sprintf("\033[1mMode:\033[m %s", st.Mode),
		fmt.Sprintf("\033[1mSwitch state:\033[m %s", st.SwitchState),
		fmt.Sprintf("\033[1mShift state:\033[m %s (shifted=%v locked=%v)", st.ShiftState, st.Shifted, st.ShiftLocked),
		fmt.Sprintf("\033[1mKeys:\033[m shift %s (%s), mode %s (%s)", held(km.ShiftDown), st.ShiftKey, held(km.ModeDown), st.ModeKey),
		fmt.Sprintf("\033[1mCache:\033[m %d hits, %d misses, %d builds", st.Cache.Hits, st.Cache.Misses, st.Cache.Builds),
		ifLine(!st.Loaded, "\033[1;33mNo keyboard loaded\033[m"),
		ifLine(err != nil, fmt.Sprintf("\033[1;31mError:\033[0;31m %v\033[m", err)),
		"",
		"Tab shift | ^T mode | ^L caps lock | Esc cancel | ^X hide | ^C quit",
		"",
	}
	out := lines[:0]
	for _, l := range lines {
		if l != "" || len(out) == 0 || out[len(out)-1] != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\r\n")
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
