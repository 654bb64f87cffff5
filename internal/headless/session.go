package headless

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/latinkbd/kbdswitch/apitypes"
	"github.com/latinkbd/kbdswitch/internal/log"
	"github.com/latinkbd/kbdswitch/internal/prefs"
	"github.com/latinkbd/kbdswitch/keyboard"
	"github.com/latinkbd/kbdswitch/switcher"
)

var (
	ErrUnknownEvent = errors.New("unknown event type")
	ErrInvalidEvent = errors.New("invalid event")
)

// DefaultWidth is the display width of a session created without one.
const DefaultWidth = 480

// Options are shared by every session of a Registry.
type Options struct {
	Switcher switcher.Config
	// BasePrefs backs every key a session does not override. May be nil.
	BasePrefs switcher.Preferences
	Events    log.EventLogger
	Logger    *slog.Logger
}

// Session owns one controller. All methods are safe for concurrent use; the
// controller itself is only touched under the session lock.
type Session struct {
	mu     sync.Mutex
	id     string
	ctrl   *switcher.Controller
	view   *View
	host   *Host
	prefs  *prefs.Store
	events log.EventLogger
	logger *slog.Logger
}

// NewSession creates a session and, when req carries an editor, loads its
// keyboard.
func NewSession(id string, req apitypes.SessionCreateRequest, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", id)

	o, err := keyboard.ParseOrientation(req.Orientation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	loc := DefaultLocale
	if req.Locale != "" {
		tag, ok := ResolveLocale(req.Locale)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported locale %q", ErrInvalidEvent, req.Locale)
		}
		loc = tag
	} else {
		loc = SystemLocale(logger)
	}
	width := req.Width
	switch {
	case width < 0:
		return nil, fmt.Errorf("%w: negative width %d", ErrInvalidEvent, width)
	case width == 0:
		width = DefaultWidth
	}

	view := NewView()
	if req.DistinctMultitouch != nil {
		view.DistinctMultitouch = *req.DistinctMultitouch
	}
	host := &Host{
		AutoCaps:      req.AutoCaps,
		Locale:        loc,
		Width:         width,
		Screen:        o,
		ShortcutReady: req.ShortcutReady,
		MultipleIMEs:  req.MultipleIMEs,
	}
	overrides := prefs.NewStore(req.Preferences)
	ctrl, err := switcher.New(opts.Switcher, view, host, layered{overrides, opts.BasePrefs}, logger)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:     id,
		ctrl:   ctrl,
		view:   view,
		host:   host,
		prefs:  overrides,
		events: opts.Events,
		logger: logger,
	}
	if req.Editor != nil {
		if _, err := s.Apply(apitypes.Event{Type: apitypes.EventLoad, Editor: req.Editor}); err != nil {
			ctrl.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Close releases the cached layouts. The session must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Close()
}

func (s *Session) State() apitypes.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Apply dispatches one event to the controller and returns the resulting
// state. A failed event leaves the previous layout displayed; the returned
// state is valid in both cases.
func (s *Session) Apply(ev apitypes.Event) (apitypes.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var before apitypes.SessionState
	if s.events != nil {
		before = s.snapshot()
	}
	err := s.dispatch(ev)
	after := s.snapshot()
	if s.events != nil {
		s.events.Record(s.id, ev, before, after)
	}
	if err != nil {
		s.logger.Debug("event failed", "type", ev.Type, "error", err)
	}
	return after, err
}

// PreferencesChanged forwards changed base preference keys to the controller.
func (s *Session) PreferencesChanged(keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, k := range keys {
		if err := s.ctrl.OnPreferenceChanged(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Controller exposes the controller for callers that already serialise
// access, such as single-threaded tests.
func (s *Session) Controller() *switcher.Controller { return s.ctrl }

func (s *Session) View() *View { return s.view }
func (s *Session) Host() *Host { return s.host }

func (s *Session) dispatch(ev apitypes.Event) error {
	c := s.ctrl
	switch ev.Type {
	case apitypes.EventLoad:
		var dto apitypes.EditorInfo
		if ev.Editor != nil {
			dto = *ev.Editor
		}
		e, settings, err := EditorFromAPI(dto)
		if err != nil {
			return err
		}
		return c.Load(e, settings)
	case apitypes.EventHide:
		c.OnHideWindow()
	case apitypes.EventGeometry:
		o, err := keyboard.ParseOrientation(ev.Orientation)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
		if ev.Width < 0 {
			return fmt.Errorf("%w: negative width %d", ErrInvalidEvent, ev.Width)
		}
		s.host.Width, s.host.Screen = ev.Width, o
		return c.OnGeometryChanged(ev.Width, o)
	case apitypes.EventPressShift:
		s.view.press()
		c.OnPressShift(ev.Sliding)
	case apitypes.EventReleaseShift:
		c.OnReleaseShift(ev.Sliding)
		s.view.release()
	case apitypes.EventPressMode:
		s.view.press()
		c.OnPressMode()
	case apitypes.EventReleaseMode:
		c.OnReleaseMode()
		s.view.release()
	case apitypes.EventOtherKey:
		c.OnOtherKeyPressed()
	case apitypes.EventKey:
		code, err := ev.KeyCode()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
		// A slid key is delivered by a pointer that is already down and lifts
		// with it; a tap brings its own pointer.
		if ev.Sliding {
			c.OnKey(code)
			s.view.release()
		} else {
			s.view.press()
			c.OnKey(code)
			s.view.release()
		}
	case apitypes.EventCancel:
		c.OnCancelInput()
	case apitypes.EventToggleShift:
		c.ToggleShift()
	case apitypes.EventToggleCapsLock:
		c.ToggleCapsLock()
	case apitypes.EventChangeMode:
		c.ChangeKeyboardMode()
	case apitypes.EventUpdateShift:
		c.UpdateShiftState()
	case apitypes.EventAutoCaps:
		s.host.AutoCaps = ev.Value
	case apitypes.EventAutoCorrection:
		c.OnAutoCorrectionStateChanged(ev.Value)
	case apitypes.EventPointers:
		if ev.Count < 0 {
			return fmt.Errorf("%w: negative pointer count %d", ErrInvalidEvent, ev.Count)
		}
		s.view.Pointers = ev.Count
	case apitypes.EventSliding:
		s.view.Sliding = ev.Value
	case apitypes.EventPreference:
		if ev.Key == "" {
			return fmt.Errorf("%w: preference key is required", ErrInvalidEvent)
		}
		if s.prefs.Set(ev.Key, ev.PrefValue) {
			return c.OnPreferenceChanged(ev.Key)
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownEvent, ev.Type)
	}
	return nil
}

func (s *Session) snapshot() apitypes.SessionState {
	c := s.ctrl
	stats := c.CacheStats()
	st := apitypes.SessionState{
		ID:           s.id,
		Mode:         c.KeyboardMode().String(),
		SwitchState:  c.SwitchState().String(),
		ShiftKey:     c.ShiftKey().String(),
		ModeKey:      c.ModeKey().String(),
		Momentary:    c.IsInMomentarySwitchState(),
		Theme:        switcher.KeyboardThemes[c.ThemeIndex()],
		Pointers:     s.view.Pointers,
		Feedback:     c.IsVibrateAndSoundFeedbackRequired(),
		IgnoringTap:  s.view.IgnoringDoubleTap,
		Redraws:      s.view.Redraws,
		LanguageHint: s.host.LanguageHints,
		Cache: apitypes.CacheStats{
			Hits:      stats.Hits,
			Misses:    stats.Misses,
			Builds:    stats.Builds,
			Reclaimed: stats.Reclaimed,
		},
	}
	l := c.Current()
	if l == nil {
		st.ShiftState = keyboard.ShiftNormal.String()
		return st
	}
	id := l.ID()
	st.Loaded = true
	st.Layout = id.Kind.String()
	st.Keyboard = id.String()
	st.Locale = id.Locale.String()
	st.Width = id.Width
	st.Orientation = id.Orientation.String()
	st.ShiftState = l.ShiftState().String()
	st.Shifted = l.IsShiftedOrShiftLocked()
	st.ShiftLocked = l.IsShiftLocked()
	st.Shortcut = l.ShortcutAvailable()
	if k, ok := l.(interface{ AutoCorrectionActive() bool }); ok {
		st.SpacebarLED = l.NeedsAutoCorrectionSpacebarLed() && k.AutoCorrectionActive()
	}
	return st
}

// EditorFromAPI converts the wire description of an editor.
func EditorFromAPI(dto apitypes.EditorInfo) (switcher.EditorInfo, switcher.Settings, error) {
	class, err := switcher.ParseInputClass(dto.InputClass)
	if err != nil {
		return switcher.EditorInfo{}, switcher.Settings{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	variation, err := switcher.ParseInputVariation(dto.Variation)
	if err != nil {
		return switcher.EditorInfo{}, switcher.Settings{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	action, err := keyboard.ParseImeAction(dto.ImeAction)
	if err != nil {
		return switcher.EditorInfo{}, switcher.Settings{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	e := switcher.EditorInfo{
		InputType:         switcher.InputType{Class: class, Variation: variation},
		ImeAction:         action,
		PrivateImeOptions: dto.PrivateImeOptions,
	}
	settings := switcher.Settings{VoiceKeyEnabled: dto.VoiceKeyEnabled, VoiceKeyOnMain: dto.VoiceKeyOnMain}
	return e, settings, nil
}

// layered reads session overrides first, then the shared base.
type layered struct {
	overrides *prefs.Store
	base      switcher.Preferences
}

func (l layered) String(key, def string) string {
	if l.base != nil {
		def = l.base.String(key, def)
	}
	return l.overrides.String(key, def)
}
