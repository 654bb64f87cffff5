package headless

import (
	"log/slog"
	"strings"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
)

// DefaultLocale is used when no candidate resolves to a supported locale.
var DefaultLocale = language.AmericanEnglish

// SupportedLocales are the input locales a keyboard layout exists for.
var SupportedLocales = []language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.English,
	language.German,
	language.French,
	language.CanadianFrench,
	language.Spanish,
	language.Italian,
	language.Portuguese,
	language.BrazilianPortuguese,
	language.Dutch,
	language.Swedish,
	language.Danish,
	language.Norwegian,
	language.Finnish,
	language.Russian,
	language.Czech,
	language.Polish,
}

func supported(tag language.Tag) bool {
	s := tag.String()
	for _, t := range SupportedLocales {
		if t.String() == s {
			return true
		}
	}
	return false
}

// ResolveLocale returns the first candidate, or one of its parents, that is
// supported. Candidates may use POSIX spelling ("de_DE.UTF-8").
func ResolveLocale(candidates ...string) (language.Tag, bool) {
	for _, c := range candidates {
		c, _, _ = strings.Cut(c, ".")
		c, _, _ = strings.Cut(c, "@")
		c = strings.ReplaceAll(c, "_", "-")
		if c == "" || c == "C" || c == "POSIX" {
			continue
		}
		tag, err := language.Parse(c)
		if err != nil {
			continue
		}
		for tag != language.Und {
			if supported(tag) {
				return tag, true
			}
			tag = tag.Parent()
		}
	}
	return DefaultLocale, false
}

// SystemLocale resolves the locales configured for the current user.
func SystemLocale(logger *slog.Logger) language.Tag {
	locs, err := locale.GetLocales()
	if err != nil {
		logger.Warn("could not detect system locales", "error", err)
	}
	tag, ok := ResolveLocale(locs...)
	if !ok {
		logger.Debug("no supported system locale, using default", "locales", locs, "default", tag)
	}
	return tag
}
