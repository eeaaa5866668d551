package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// Note: for now we only trim + lower-case, matching the lookup key used at signup.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
