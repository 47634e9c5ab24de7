// Package nodes holds helpers shared by the built-in node handlers.
package nodes

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the layout of timestamps emitted by handlers.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Clock returns the current time. Handlers take one so tests can pin it.
type Clock func() time.Time

// Timestamp formats t in UTC with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Number converts JSON-ish numeric values to float64.
func Number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	default:
		return 0, false
	}
}

// String returns input[key] when it is a non-empty string.
func String(input map[string]any, key string) string {
	value, _ := input[key].(string)

	return value
}

// FirstString returns the first non-empty value.
func FirstString(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}

// Truthy reports whether value counts as set: not nil, false, zero, or empty.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	default:
		if n, ok := Number(v); ok {
			return n != 0
		}

		return true
	}
}

// ToFloat coerces a value the way loose comparisons do: numbers as is,
// numeric strings parsed, booleans as 0/1.
func ToFloat(value any) (float64, bool) {
	if n, ok := Number(value); ok {
		return n, true
	}

	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, true
		}

		n, err := strconv.ParseFloat(trimmed, 64)

		return n, err == nil
	case bool:
		if v {
			return 1, true
		}

		return 0, true
	case nil:
		return 0, true
	default:
		return 0, false
	}
}
