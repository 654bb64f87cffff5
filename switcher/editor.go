package switcher

import (
	"fmt"
	"strings"

	"github.com/latinkbd/kbdswitch/keyboard"
)

// InputClass is the broad content class of the edited field.
type InputClass int

const (
	ClassText InputClass = iota
	ClassNumber
	ClassPhone
	ClassDatetime
)

var inputClassNames = [...]string{"text", "number", "phone", "datetime"}

func (c InputClass) String() string {
	if c < 0 || int(c) >= len(inputClassNames) {
		return fmt.Sprintf("class(%d)", int(c))
	}
	return inputClassNames[c]
}

func ParseInputClass(s string) (InputClass, error) {
	if s == "" {
		return ClassText, nil
	}
	for i, n := range inputClassNames {
		if strings.EqualFold(n, s) {
			return InputClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown input class %q", s)
}

// InputVariation refines a text or number class.
type InputVariation int

const (
	VariationNormal InputVariation = iota
	VariationURI
	VariationEmailAddress
	VariationWebEmailAddress
	VariationShortMessage
	VariationWebEditText
	VariationFilter
	VariationPassword
	VariationVisiblePassword
	VariationWebPassword
	VariationNumberPassword
)

var inputVariationNames = [...]string{
	"normal", "uri", "email", "web-email", "short-message", "web-edit-text",
	"filter", "password", "visible-password", "web-password", "number-password",
}

func (v InputVariation) String() string {
	if v < 0 || int(v) >= len(inputVariationNames) {
		return fmt.Sprintf("variation(%d)", int(v))
	}
	return inputVariationNames[v]
}

func ParseInputVariation(s string) (InputVariation, error) {
	if s == "" {
		return VariationNormal, nil
	}
	for i, n := range inputVariationNames {
		if strings.EqualFold(n, s) {
			return InputVariation(i), nil
		}
	}
	return 0, fmt.Errorf("unknown input variation %q", s)
}

type InputType struct {
	Class     InputClass
	Variation InputVariation
}

// IsPassword reports whether the field hides its content.
func (t InputType) IsPassword() bool {
	switch t.Variation {
	case VariationPassword, VariationVisiblePassword, VariationWebPassword, VariationNumberPassword:
		return true
	}
	return false
}

// EditorInfo describes the field being edited.
type EditorInfo struct {
	InputType         InputType
	ImeAction         keyboard.ImeAction
	PrivateImeOptions string
}

// HasPrivateOption reports whether the comma separated private options carry
// pkg + "." + option.
func (e EditorInfo) HasPrivateOption(pkg, option string) bool {
	want := pkg + "." + option
	for _, o := range strings.Split(e.PrivateImeOptions, ",") {
		if strings.TrimSpace(o) == want {
			return true
		}
	}
	return false
}

// KeyboardModeOf maps editor attributes to a keyboard mode.
func KeyboardModeOf(e EditorInfo) keyboard.Mode {
	switch e.InputType.Class {
	case ClassNumber, ClassDatetime:
		return keyboard.ModeNumber
	case ClassPhone:
		return keyboard.ModePhone
	case ClassText:
		switch e.InputType.Variation {
		case VariationEmailAddress, VariationWebEmailAddress:
			return keyboard.ModeEmail
		case VariationURI:
			return keyboard.ModeURL
		case VariationShortMessage:
			return keyboard.ModeIM
		case VariationWebEditText:
			return keyboard.ModeWeb
		}
	}
	return keyboard.ModeText
}

// Settings are the user settings that shape keyboard identities.
type Settings struct {
	VoiceKeyEnabled bool
	VoiceKeyOnMain  bool
}

// voiceKeyEnabled reports whether the voice key may appear in e. Password
// fields never get one.
func (s Settings) voiceKeyEnabled(e EditorInfo) bool {
	return s.VoiceKeyEnabled && !e.InputType.IsPassword()
}
