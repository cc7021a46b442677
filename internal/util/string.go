package util

import "strings"

// TruncateString truncates a string to maxRunes characters (rune-based, not byte-based)
// If truncated, appends "..." to the result
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// RuneLen counts characters rather than bytes.
func RuneLen(s string) int {
	return len([]rune(s))
}

// Contains checks if a string slice contains a specific item
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// HasClass reports whether a space separated class attribute contains name.
func HasClass(classAttr, name string) bool {
	return Contains(strings.Fields(classAttr), name)
}
