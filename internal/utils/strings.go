package utils

import "strings"

// FirstNonEmpty returns the first value that is not blank
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Truncate keeps the first n characters of s and marks the cut with "..."
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// MaskSecret hides all but the last n characters so tokens and codes can be logged
func MaskSecret(s string, n int) string {
	if s == "" {
		return ""
	}
	if len(s) <= n {
		return "***"
	}
	return "***" + s[len(s)-n:]
}
