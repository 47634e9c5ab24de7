// Package template resolves {{key}} placeholders against node input.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_\-.]+)\s*\}\}`)

// Resolve replaces every {{key}} in text with the string form of data[key].
// Dotted keys walk nested maps. Placeholders without a value are left as is.
func Resolve(text string, data map[string]any) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholder.FindStringSubmatch(match)[1]

		value, ok := Lookup(data, key)
		if !ok {
			return match
		}

		return Stringify(value)
	})
}

// ResolveMap resolves placeholders in every string of a nested structure and
// returns a new map. Non-string values are copied.
func ResolveMap(values map[string]any, data map[string]any) map[string]any {
	if values == nil {
		return nil
	}

	resolved := make(map[string]any, len(values))
	for key, value := range values {
		resolved[key] = resolveValue(value, data)
	}

	return resolved
}

func resolveValue(value any, data map[string]any) any {
	switch v := value.(type) {
	case string:
		return Resolve(v, data)
	case map[string]any:
		return ResolveMap(v, data)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = resolveValue(item, data)
		}

		return items
	default:
		return v
	}
}

// Lookup returns the value at a dotted path inside data.
func Lookup(data map[string]any, path string) (any, bool) {
	if value, ok := data[path]; ok {
		return value, true
	}

	var current any = data

	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Stringify renders value the way it is interpolated into text.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return fmt.Sprint(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(raw)
	}
}
