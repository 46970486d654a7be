package core

import "strings"

// CleanString trims surrounding whitespace from s; pass lower to also fold it
// to lower case (emails, join codes).
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) == 0 || !lower[0] {
		return s
	}
	return strings.ToLower(s)
}
