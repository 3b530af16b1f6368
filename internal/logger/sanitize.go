package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength caps URL paths in log fields.
	MaxPathLength = 500
	// MaxErrorMessageLength caps error text in log fields.
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength caps any other logged string, utterances
	// included.
	MaxGeneralStringLength = 2000
)

// SanitizePath makes a URL path safe to log: valid UTF-8, no control
// characters, truncated to MaxPathLength. Utterance text never belongs
// in a path, but clients send strange things.
func SanitizePath(path string) string {
	if path == "" {
		return ""
	}
	path = filterRunes(path)
	if len(path) > MaxPathLength {
		path = path[:MaxPathLength] + "..."
	}
	return path
}

// SanitizeString makes an arbitrary string safe to log, truncated to
// maxLength (MaxGeneralStringLength when zero or negative).
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = filterRunes(s)
	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}

// SanitizeError makes an error's message safe to log.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// filterRunes repairs UTF-8 and drops control characters, keeping
// printable runes plus space, tab, newline, and carriage return.
func filterRunes(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
