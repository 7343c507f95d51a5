package core

import "strings"

// CleanString normalizes user-entered text: surrounding whitespace is
// dropped, and with lower=true the result is lowercased for
// case-insensitive identifiers (usernames, emails).
func CleanString(s string, lower ...bool) string {
	cleaned := strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		cleaned = strings.ToLower(cleaned)
	}
	return cleaned
}
