package sqlbase

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the fixed-width UTC layout used where timestamps are stored
// as text, so lexical order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	Name string

	// Numbered placeholders ($1, $2, ...) instead of ?.
	Numbered bool

	// TimeAsText stores timestamps as TimeLayout strings.
	TimeAsText bool
}

var (
	Postgres = Dialect{Name: "postgres", Numbered: true}
	SQLite   = Dialect{Name: "sqlite", TimeAsText: true}
)

// Rebind rewrites ? placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}

	var (
		builder strings.Builder
		index   int
	)

	builder.Grow(len(query) + 8)

	for _, r := range query {
		if r == '?' {
			index++
			builder.WriteString("$" + strconv.Itoa(index))

			continue
		}

		builder.WriteRune(r)
	}

	return builder.String()
}

// Time converts t to a query argument.
func (d Dialect) Time(t time.Time) any {
	if d.TimeAsText {
		return t.UTC().Format(TimeLayout)
	}

	return t.UTC()
}

// NullableTime converts t to a query argument, nil for a nil pointer.
func (d Dialect) NullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return d.Time(*t)
}

// NullTime scans timestamps stored natively or as text.
type NullTime struct {
	Time  time.Time
	Valid bool
}

var textLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func (n *NullTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false

		return nil
	case time.Time:
		n.Time, n.Valid = v, true

		return nil
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into NullTime", value)
	}
}

func (n *NullTime) parse(text string) error {
	for _, layout := range textLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			n.Time, n.Valid = parsed, true

			return nil
		}
	}

	return fmt.Errorf("cannot parse timestamp %q", text)
}

// Ptr returns the time as a pointer, nil when not valid.
func (n NullTime) Ptr() *time.Time {
	if !n.Valid {
		return nil
	}

	t := n.Time

	return &t
}

// JSONMap is a JSON object column.
type JSONMap map[string]any

func (m *JSONMap) Scan(value any) error {
	var raw []byte

	switch v := value.(type) {
	case nil:
		*m = nil

		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}

	if len(raw) == 0 {
		*m = nil

		return nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to decode JSON column: %w", err)
	}

	*m = decoded

	return nil
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}

	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON column: %w", err)
	}

	return string(raw), nil
}

