// Package sanitize cleans strings crossing a trust boundary: credentials are
// redacted before anything is logged or journaled, and remote text is made
// safe to print on a terminal.
package sanitize

import "regexp"

// Pattern represents a compiled regex pattern for secret detection
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// secretPatterns are applied in order; the specific token shapes come before
// the generic key=value form.
var secretPatterns = []Pattern{
	{
		Name:        "GitHub Token",
		Regex:       regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36,}`),
		Replacement: "[GITHUB_TOKEN_REDACTED]",
	},
	{
		Name:        "GitHub Fine-Grained Token",
		Regex:       regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`),
		Replacement: "[GITHUB_TOKEN_REDACTED]",
	},
	{
		Name:        "Bearer Token",
		Regex:       regexp.MustCompile(`(?i)(bearer|token)\s+[A-Za-z0-9_.\-]{20,}`),
		Replacement: "$1 [TOKEN_REDACTED]",
	},
	{
		Name:        "Basic Auth",
		Regex:       regexp.MustCompile(`(?i)basic\s+[A-Za-z0-9+/=]{20,}`),
		Replacement: "Basic [CREDENTIALS_REDACTED]",
	},
	{
		Name:        "URL Credentials",
		Regex:       regexp.MustCompile(`(https?://)[^/\s:@]+:[^/\s@]+@`),
		Replacement: "${1}[CREDENTIALS_REDACTED]@",
	},
	{
		Name:        "Generic Secret",
		Regex:       regexp.MustCompile(`(?i)(password|token|secret|api_key|access_token)\s*[=:]\s*[^\s&]+`),
		Replacement: "$1=[REDACTED]",
	},
}

// GetSecretPatterns returns a copy of the secret detection patterns list.
func GetSecretPatterns() []Pattern {
	result := make([]Pattern, len(secretPatterns))
	copy(result, secretPatterns)
	return result
}

// Redactor replaces credentials in text with placeholders.
type Redactor struct {
	patterns []Pattern
}

// NewRedactor creates a Redactor with the default patterns.
func NewRedactor() *Redactor {
	return &Redactor{patterns: GetSecretPatterns()}
}

// NewRedactorWithPatterns creates a Redactor with custom patterns.
func NewRedactorWithPatterns(patterns []Pattern) *Redactor {
	return &Redactor{patterns: patterns}
}

// Redact returns input with every match replaced.
func (r *Redactor) Redact(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, p := range r.patterns {
		result = p.Regex.ReplaceAllString(result, p.Replacement)
	}
	return result
}

// DefaultRedactor is a package-level redactor for convenience
var DefaultRedactor = NewRedactor()

// Redact uses the default redactor.
func Redact(input string) string {
	return DefaultRedactor.Redact(input)
}
