package explain

import (
	"strings"
	"time"

	"medibill-ai/internal/coverage"
)

// AudienceMode selects the register of an explanation.
type AudienceMode string

const (
	ModeClinical AudienceMode = "clinical"
	ModeFamily   AudienceMode = "family"
)

// DefaultMode is used when a session has not chosen a mode.
const DefaultMode = ModeFamily

// Modes lists every audience mode.
var Modes = []AudienceMode{ModeFamily, ModeClinical}

// IsValid reports whether the mode is known.
func (m AudienceMode) IsValid() bool {
	return m == ModeClinical || m == ModeFamily
}

// ParseAudienceMode parses a mode. Empty input yields the default.
func ParseAudienceMode(value string) (AudienceMode, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return DefaultMode, nil
	}
	mode := AudienceMode(value)
	if !mode.IsValid() {
		return "", ErrInvalidMode
	}
	return mode, nil
}

// Language is an output language for explanations.
type Language string

const (
	English Language = "English"
	Hindi   Language = "Hindi"
	Bengali Language = "Bengali"
)

// DefaultLanguage is used when a session has not chosen a language.
const DefaultLanguage = English

// Languages lists every supported language.
var Languages = []Language{English, Hindi, Bengali}

// IsValid reports whether the language is supported.
func (l Language) IsValid() bool {
	switch l {
	case English, Hindi, Bengali:
		return true
	default:
		return false
	}
}

// Script names the writing system requested for the language, if any.
func (l Language) Script() string {
	switch l {
	case Hindi:
		return "Devanagari"
	case Bengali:
		return "Bengali"
	default:
		return ""
	}
}

// ParseLanguage parses a language name case-insensitively. Empty input
// yields the default.
func ParseLanguage(value string) (Language, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultLanguage, nil
	}
	for _, lang := range Languages {
		if strings.EqualFold(string(lang), value) {
			return lang, nil
		}
	}
	return "", ErrInvalidLanguage
}

// Key identifies a cached explanation.
type Key struct {
	ItemID   string
	Mode     AudienceMode
	Language Language
}

// Explanation is the generated description of one billing item.
type Explanation struct {
	ItemID            string
	Mode              AudienceMode
	Language          Language
	Text              string
	Coverage          coverage.Label
	InsuranceNote     string
	Disclaimer        string
	VisualDescription string
	// VisualUnavailable is set when a visual was requested and failed.
	VisualUnavailable bool
	GeneratedAt       time.Time
}

// Key returns the cache key of the explanation.
func (e Explanation) Key() Key {
	return Key{ItemID: e.ItemID, Mode: e.Mode, Language: e.Language}
}
