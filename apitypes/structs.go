package apitypes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// ApiError represents an RFC 7807 (problem+json) error response.
type ApiError struct {
	// Status is the HTTP-style status code (e.g., 400, 404, 500)
	Status int `json:"status"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Detail is a human-readable explanation specific to this occurrence
	Detail string `json:"detail"`
}

func (e ApiError) Error() string {
	if e.Status == 0 && e.Title == "" {
		return "unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// --

type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
}

// EditorInfo describes the edited field a keyboard is loaded for.
type EditorInfo struct {
	InputClass        string `json:"inputClass,omitempty" yaml:"inputClass,omitempty" toml:"inputClass,omitempty"`
	Variation         string `json:"variation,omitempty" yaml:"variation,omitempty" toml:"variation,omitempty"`
	ImeAction         string `json:"imeAction,omitempty" yaml:"imeAction,omitempty" toml:"imeAction,omitempty"`
	PrivateImeOptions string `json:"privateImeOptions,omitempty" yaml:"privateImeOptions,omitempty" toml:"privateImeOptions,omitempty"`
	VoiceKeyEnabled   bool   `json:"voiceKeyEnabled,omitempty" yaml:"voiceKeyEnabled,omitempty" toml:"voiceKeyEnabled,omitempty"`
	VoiceKeyOnMain    bool   `json:"voiceKeyOnMain,omitempty" yaml:"voiceKeyOnMain,omitempty" toml:"voiceKeyOnMain,omitempty"`
}

// SessionCreateRequest configures the headless surface of a new session.
type SessionCreateRequest struct {
	Locale             string            `json:"locale,omitempty" yaml:"locale,omitempty" toml:"locale,omitempty"`
	Width              int               `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
	Orientation        string            `json:"orientation,omitempty" yaml:"orientation,omitempty" toml:"orientation,omitempty"`
	DistinctMultitouch *bool             `json:"distinctMultitouch,omitempty" yaml:"distinctMultitouch,omitempty" toml:"distinctMultitouch,omitempty"`
	AutoCaps           bool              `json:"autoCaps,omitempty" yaml:"autoCaps,omitempty" toml:"autoCaps,omitempty"`
	ShortcutReady      bool              `json:"shortcutReady,omitempty" yaml:"shortcutReady,omitempty" toml:"shortcutReady,omitempty"`
	MultipleIMEs       bool              `json:"multipleImes,omitempty" yaml:"multipleImes,omitempty" toml:"multipleImes,omitempty"`
	Preferences        map[string]string `json:"preferences,omitempty" yaml:"preferences,omitempty" toml:"preferences,omitempty"`
	// Editor, when set, loads a keyboard right away.
	Editor *EditorInfo `json:"editor,omitempty" yaml:"editor,omitempty" toml:"editor,omitempty"`
}

type SessionListResponse struct {
	Sessions []string `json:"sessions"`
}

type SessionRemoveResponse struct {
	ID string `json:"id"`
}

type CacheStats struct {
	Hits      int `json:"hits"`
	Misses    int `json:"misses"`
	Builds    int `json:"builds"`
	Reclaimed int `json:"reclaimed"`
}

// SessionState is a snapshot of a session after an event.
type SessionState struct {
	ID           string     `json:"id"`
	Loaded       bool       `json:"loaded"`
	Layout       string     `json:"layout,omitempty"`
	Keyboard     string     `json:"keyboard,omitempty"`
	Locale       string     `json:"locale,omitempty"`
	Width        int        `json:"width,omitempty"`
	Orientation  string     `json:"orientation,omitempty"`
	Mode         string     `json:"mode"`
	SwitchState  string     `json:"switchState"`
	ShiftState   string     `json:"shiftState"`
	ShiftKey     string     `json:"shiftKey"`
	ModeKey      string     `json:"modeKey"`
	Shifted      bool       `json:"shifted"`
	ShiftLocked  bool       `json:"shiftLocked"`
	Momentary    bool       `json:"momentary"`
	Theme        string     `json:"theme"`
	Pointers     int        `json:"pointers"`
	Feedback     bool       `json:"feedback"`
	Shortcut     bool       `json:"shortcut"`
	SpacebarLED  bool       `json:"spacebarLed"`
	IgnoringTap  bool       `json:"ignoringDoubleTap"`
	Redraws      int        `json:"redraws"`
	LanguageHint int        `json:"languageHints"`
	Cache        CacheStats `json:"cache"`
}

// Event types accepted by session/{id}/event and the session stream.
const (
	EventLoad           = "load"
	EventHide           = "hide"
	EventGeometry       = "geometry"
	EventPressShift     = "pressShift"
	EventReleaseShift   = "releaseShift"
	EventPressMode      = "pressMode"
	EventReleaseMode    = "releaseMode"
	EventOtherKey       = "otherKey"
	EventKey            = "key"
	EventCancel         = "cancel"
	EventToggleShift    = "toggleShift"
	EventToggleCapsLock = "toggleCapsLock"
	EventChangeMode     = "changeMode"
	EventUpdateShift    = "updateShift"
	EventAutoCaps       = "autoCaps"
	EventAutoCorrection = "autoCorrection"
	EventPointers       = "pointers"
	EventSliding        = "sliding"
	EventPreference     = "preference"
)

// EventTypes lists every accepted event type.
var EventTypes = []string{
	EventLoad, EventHide, EventGeometry, EventPressShift, EventReleaseShift,
	EventPressMode, EventReleaseMode, EventOtherKey, EventKey, EventCancel,
	EventToggleShift, EventToggleCapsLock, EventChangeMode, EventUpdateShift,
	EventAutoCaps, EventAutoCorrection, EventPointers, EventSliding, EventPreference,
}

// Event is one input applied to a session. Only the fields relevant to Type
// are read.
type Event struct {
	Type string `json:"type" yaml:"type" toml:"type"`

	// key
	Code *int   `json:"code,omitempty" yaml:"code,omitempty" toml:"code,omitempty"`
	Char string `json:"char,omitempty" yaml:"char,omitempty" toml:"char,omitempty"`
	// pressShift, releaseShift
	Sliding bool `json:"sliding,omitempty" yaml:"sliding,omitempty" toml:"sliding,omitempty"`
	// geometry
	Width       int    `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
	Orientation string `json:"orientation,omitempty" yaml:"orientation,omitempty" toml:"orientation,omitempty"`
	// pointers
	Count int `json:"count,omitempty" yaml:"count,omitempty" toml:"count,omitempty"`
	// autoCaps, autoCorrection, sliding
	Value bool `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	// preference
	Key       string `json:"key,omitempty" yaml:"key,omitempty" toml:"key,omitempty"`
	PrefValue string `json:"prefValue,omitempty" yaml:"prefValue,omitempty" toml:"prefValue,omitempty"`
	// load
	Editor *EditorInfo `json:"editor,omitempty" yaml:"editor,omitempty" toml:"editor,omitempty"`
}

// KeyCode returns the code of a key event: Code when set, otherwise the
// first rune of Char.
func (e Event) KeyCode() (int, error) {
	if e.Code != nil {
		return *e.Code, nil
	}
	if e.Char == "" {
		return 0, fmt.Errorf("key event needs code or char")
	}
	r, _ := utf8.DecodeRuneInString(e.Char)
	if r == utf8.RuneError {
		return 0, fmt.Errorf("invalid char %q", e.Char)
	}
	return int(r), nil
}

// ParseEvent decodes a single JSON event and rejects unknown fields.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("event type is required")
	}
	return ev, nil
}
