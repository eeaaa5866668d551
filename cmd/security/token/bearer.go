package token

import "strings"

// FromAuthorizationHeader extracts the credential from "Bearer <token>".
// Any other shape yields "".
func FromAuthorizationHeader(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	scheme, cred, ok := strings.Cut(raw, " ")
	if !ok {
		return ""
	}
	if !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(cred)
}
