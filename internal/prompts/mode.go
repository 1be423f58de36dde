// Package prompts holds the dialogue prompt templates and the mode-based
// selection logic. Templates are static text with {placeholder} variables;
// rendering is plain string substitution, no template engine.
package prompts

import "fmt"

// Mode is the AI dialogue persona for a discussion. The set is closed:
// ParseMode rejects anything it does not know.
type Mode string

// Dialogue modes.
const (
	// ModeSocratic probes the student's reasoning with pointed questions.
	ModeSocratic Mode = "socratic"
	// ModeBalanced argues the opposite stance but concedes valid points.
	ModeBalanced Mode = "balanced"
	// ModeDebate plays devil's advocate and pushes back on everything.
	ModeDebate Mode = "debate"
	// ModeMinimal mirrors the student's statements with minimal steering.
	ModeMinimal Mode = "minimal"
)

// ParseMode validates a mode string from discussion settings. The empty
// string maps to socratic, the default persona. Unknown values are an
// error rather than a silent fallback so that misconfigured sessions
// fail loudly at request time.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "":
		return ModeSocratic, nil
	case string(ModeSocratic), string(ModeBalanced), string(ModeDebate), string(ModeMinimal):
		return Mode(s), nil
	default:
		return "", fmt.Errorf("prompts: unknown mode %q", s)
	}
}

// Language maps a locale code to the language name the templates expect
// in their {language} slot. Unknown locales default to Korean, the
// product's primary language.
func Language(locale string) string {
	if locale == "en" {
		return "English"
	}
	return "한국어"
}
