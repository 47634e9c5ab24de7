// Package redact strips credentials from payloads and messages before they
// are persisted or logged.
package redact

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Marker replaces every redacted value.
const Marker = "[REDACTED]"

// MaxDepthMarker replaces values nested deeper than MaxDepth.
const MaxDepthMarker = "[MAX_DEPTH]"

const (
	// MaxDepth bounds the recursion into nested payloads.
	MaxDepth = 10

	// MaxStringLength is the length after which string values are truncated.
	MaxStringLength = 50

	minSecretLength   = 20
	opaqueTokenLength = 40
)

var secretKeyFragments = []string{
	"apikey",
	"api_key",
	"secret",
	"password",
	"token",
	"authorization",
	"auth",
	"credentials",
	"bearer",
	"x-api-key",
	"x-api-token",
}

var (
	tokenCharset = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	// Prefixed tokens only count at a token boundary, so "task-list" and
	// "risk-free" survive. The boundary is captured and written back.
	prefixedToken = regexp.MustCompile(`(^|[^A-Za-z0-9_-])[sp]k-[A-Za-z0-9_-]+`)
	embeddedToken = regexp.MustCompile(`(^|[^A-Za-z0-9_-])[sp]k-[A-Za-z0-9_-]{42,}`)

	bearerToken      = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_.-]+`)
	apiKeyAssignment = regexp.MustCompile(`(?i)api[_-]?key[=:]\s*[A-Za-z0-9_-]+`)
	passwordValue    = regexp.MustCompile(`(?i)password[=:]\s*\S+`)
)

// IsSecretKey reports whether a field name looks like it holds a credential.
func IsSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range secretKeyFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}

	return false
}

// LooksLikeSecret reports whether a whole string value is credential-shaped:
// a long opaque token, or one carrying a sk-/pk- prefix.
func LooksLikeSecret(value string) bool {
	if len(value) <= minSecretLength || !tokenCharset.MatchString(value) {
		return false
	}

	return strings.HasPrefix(value, "sk-") || strings.HasPrefix(value, "pk-") || len(value) > opaqueTokenLength
}

// Message scrubs credential patterns out of free text.
func Message(message string) string {
	message = prefixedToken.ReplaceAllString(message, "${1}"+Marker)
	message = bearerToken.ReplaceAllString(message, "Bearer "+Marker)
	message = apiKeyAssignment.ReplaceAllString(message, "api_key="+Marker)
	message = passwordValue.ReplaceAllString(message, "password="+Marker)

	return message
}

// Payload returns a redacted deep copy of payload. The input is not modified.
func Payload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}

	redacted, ok := sanitizeMap(payload, 0).(map[string]any)
	if !ok {
		return map[string]any{"value": MaxDepthMarker}
	}

	return redacted
}

// Value redacts an arbitrary value.
func Value(value any) any {
	return sanitize(value, 0)
}

// Headers redacts credential-bearing HTTP headers.
func Headers(headers map[string]string) map[string]string {
	redacted := make(map[string]string, len(headers))

	for key, value := range headers {
		lower := strings.ToLower(key)
		if IsSecretKey(lower) || strings.HasPrefix(lower, "x-api-") {
			redacted[key] = Marker

			continue
		}

		redacted[key] = value
	}

	return redacted
}

func sanitize(value any, depth int) any {
	if depth > MaxDepth {
		return MaxDepthMarker
	}

	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return sanitizeString(v)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return v
	case map[string]any:
		return sanitizeMap(v, depth)
	case map[string]string:
		converted := make(map[string]any, len(v))
		for key, item := range v {
			converted[key] = item
		}

		return sanitizeMap(converted, depth)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = sanitize(item, depth+1)
		}

		return items
	case []string:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = sanitizeString(item)
		}

		return items
	default:
		return sanitize(normalize(v), depth)
	}
}

func sanitizeMap(values map[string]any, depth int) any {
	if depth > MaxDepth {
		return MaxDepthMarker
	}

	redacted := make(map[string]any, len(values))

	for key, value := range values {
		if IsSecretKey(key) {
			redacted[key] = Marker

			continue
		}

		redacted[key] = sanitize(value, depth+1)
	}

	return redacted
}

// sanitizeString masks credential-shaped values and long sk-/pk- tokens
// embedded in text. Other free-text patterns are left to Message.
func sanitizeString(value string) string {
	if LooksLikeSecret(value) {
		return Marker
	}

	value = embeddedToken.ReplaceAllString(value, "${1}"+Marker)

	if utf8.RuneCountInString(value) > MaxStringLength {
		return string([]rune(value)[:MaxStringLength]) + "..."
	}

	return value
}

// normalize converts typed values (structs, typed slices) into the generic
// JSON shape so they can be walked.
func normalize(value any) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return Marker
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Marker
	}

	switch generic.(type) {
	case map[string]any, []any, string, float64, bool, nil:
		return generic
	default:
		return Marker
	}
}
