package logger

import (
	"regexp"
	"strings"
)

// Sensitive field patterns to filter from diagnostics before they are
// logged or persisted on a scene record
var (
	tokenPattern   = regexp.MustCompile(`(?i)(token|jwt|bearer)[\s:=]+[^\s]+`)
	secretPattern  = regexp.MustCompile(`(?i)(secret|private[_-]?key)[\s:=]+[^\s]+`)
	controlPattern = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
)

const redactedPlaceholder = "[REDACTED]"

// SanitizeDiagnostic scrubs credentials and non-printable control
// characters from free-text output captured from the external tool.
func SanitizeDiagnostic(message string) string {
	message = tokenPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = secretPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = controlPattern.ReplaceAllString(message, "")

	return strings.TrimSpace(message)
}

// SanitizeMap removes sensitive keys from a map before structured logging
func SanitizeMap(data map[string]interface{}) map[string]interface{} {
	sensitiveKeys := []string{
		"token", "jwt", "bearer",
		"secret", "private_key", "private-key",
		"api_token", "access_token",
	}

	sanitized := make(map[string]interface{}, len(data))
	for k, v := range data {
		lowerKey := strings.ToLower(k)
		isSensitive := false

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(lowerKey, sensitiveKey) {
				isSensitive = true
				break
			}
		}

		if isSensitive {
			sanitized[k] = redactedPlaceholder
		} else {
			sanitized[k] = v
		}
	}

	return sanitized
}
