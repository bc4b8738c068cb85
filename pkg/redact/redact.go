// Package redact masks personal data before it reaches logs.
package redact

import "strings"

// Email keeps the first two characters of the local part and the domain.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token replaces any credential value.
func Token() string { return "[REDACTED_TOKEN]" }
