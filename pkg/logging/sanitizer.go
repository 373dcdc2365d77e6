// Package logging holds helpers that make values safe to put in log fields.
package logging

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPromptLogLength is the number of runes of an intake prompt kept in logs.
	MaxPromptLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Bearer tokens (three base64 segments separated by dots)
	jwtPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)

	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// Provider secret keys that show up in SDK error messages (sk-..., sk-ant-...)
	secretKeyPattern = regexp.MustCompile(`\bsk-[A-Za-z0-9-_]{16,}`)

	// user:pass@host
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// SanitizeConnectionString removes credentials from a connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return sanitized
}

// SanitizeError returns the error text with credentials, tokens and keys redacted.
// Use this before logging errors from the database or an AI provider.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = jwtPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = secretKeyPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return sanitized
}

// TruncateForLog collapses whitespace in free text (prompts, model output)
// and cuts it to MaxPromptLogLength runes.
func TruncateForLog(s string) string {
	s = strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
	return TruncateString(s, MaxPromptLogLength)
}

// TruncateString truncates s to maxLen runes and adds an ellipsis if needed.
// It never splits a multi-byte character.
func TruncateString(s string, maxLen int) string {
	if maxLen < 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}

// sensitiveKeys mark argument names whose values never reach a log verbatim.
var sensitiveKeys = []string{"password", "secret", "token", "api_key", "apikey", "credential"}

// SensitiveKey reports whether an argument name holds a secret.
func SensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// SanitizeArgs copies tool or request arguments for logging. Values under a
// SensitiveKey are replaced by mask, strings are passed through TruncateForLog
// and nested objects are sanitized the same way. Empty input yields nil.
func SanitizeArgs(args map[string]any, mask func(any) any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		switch val := v.(type) {
		case string:
			if SensitiveKey(k) {
				out[k] = mask(v)
			} else {
				out[k] = TruncateForLog(val)
			}
		case map[string]any:
			out[k] = SanitizeArgs(val, mask)
		default:
			if SensitiveKey(k) {
				out[k] = mask(v)
			} else {
				out[k] = v
			}
		}
	}
	return out
}

// Redact is a SanitizeArgs mask that drops the value entirely.
func Redact(any) any { return RedactedText }
