package core

import "strings"

// CleanString normalizes user-supplied text: surrounding whitespace is
// dropped, and identifiers (usernames, emails, status labels) can be
// lowercased in the same pass.
func CleanString(s string, lower ...bool) string {
	cleaned := strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		cleaned = strings.ToLower(cleaned)
	}
	return cleaned
}

// Truncate caps s at max runes, appending an ellipsis when it was cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
