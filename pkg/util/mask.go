package util

import "strings"

// MaskKey hides the middle of a bearer token so it can be logged. Tokens too
// short to keep both ends visible are fully masked.
func MaskKey(key string, firstN, lastN int) string {
	if key == "" {
		return ""
	}

	runes := []rune(key)
	if len(runes) <= firstN+lastN {
		return strings.Repeat("*", len(runes))
	}

	return string(runes[:firstN]) + "***" + string(runes[len(runes)-lastN:])
}
