package telemetry

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

const (
	minTokenLength   = 20  // alphanumeric strings longer than this are treated as tokens
	maxArgValueChars = 256 // long free-text arguments are clipped in traces
)

var (
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|token|secret|password|passwd|pwd|auth|authorization)[\s:=]+["']?([^\s"']+)`)

	sensitiveNames = []string{"key", "token", "secret", "password", "passwd", "auth", "credential"}
)

func isSensitiveName(name string) bool {
	name = strings.ToLower(name)
	for _, s := range sensitiveNames {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

// SanitiseURL drops credentials and redacts secret-looking query parameters
func SanitiseURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return "[INVALID_URL]"
	}
	parsed.User = nil

	if parsed.RawQuery != "" {
		query := parsed.Query()
		for name := range query {
			if isSensitiveName(name) {
				query.Set(name, "[REDACTED]")
			}
		}
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

// SanitiseArguments renders tool arguments as JSON for a span attribute,
// redacting secret-looking keys and values and clipping long strings
func SanitiseArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	data, err := json.Marshal(sanitiseMap(args))
	if err != nil {
		return `{"error": "failed to serialise arguments"}`
	}
	return string(data)
}

func sanitiseMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		if isSensitiveName(key) {
			out[key] = "[REDACTED]"
			continue
		}
		out[key] = sanitiseValue(value)
	}
	return out
}

func sanitiseValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return sanitiseMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitiseValue(item)
		}
		return out
	case string:
		return TruncateString(sanitiseString(v), maxArgValueChars)
	default:
		return value
	}
}

func sanitiseString(s string) string {
	if s == "" {
		return s
	}
	if apiKeyPattern.MatchString(s) {
		return apiKeyPattern.ReplaceAllString(s, "$1=[REDACTED]")
	}
	if len(s) > minTokenLength && looksLikeToken(s) {
		return s[:4] + "...[REDACTED]"
	}
	return s
}

// looksLikeToken matches strings made only of characters common in API tokens.
// Identifiers with underscores such as engine names are short enough to fall under minTokenLength.
func looksLikeToken(s string) bool {
	for _, c := range s {
		ok := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.'
		if !ok {
			return false
		}
	}
	return true
}

// TruncateString truncates a string to maxLen bytes with an ellipsis
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
