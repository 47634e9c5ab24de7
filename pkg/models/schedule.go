package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSchedule is returned when a schedule trigger config cannot be parsed.
var ErrInvalidSchedule = errors.New("invalid schedule")

// ScheduleKind identifies the form a schedule was written in.
type ScheduleKind string

const (
	ScheduleManual     ScheduleKind = "manual"
	ScheduleDaily      ScheduleKind = "daily"
	ScheduleHourly     ScheduleKind = "hourly"
	ScheduleStructured ScheduleKind = "structured"
	ScheduleCron       ScheduleKind = "cron"
)

// DailyHour is the local hour a "daily" schedule fires at.
const DailyHour = 9

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule is the parsed form of a schedule trigger's configuration.
type Schedule struct {
	Kind       ScheduleKind
	Hour       *int
	Minute     *int
	Days       []time.Weekday
	Expression string

	// daysSet distinguishes an absent days field (any day) from an empty
	// list (no day).
	daysSet bool

	cron cron.Schedule
}

// ParseSchedule accepts "daily", "hourly", "manual" (or nothing), a cron
// expression, or a {hour, minute, days} object where an absent field matches
// any value.
func ParseSchedule(raw any) (*Schedule, error) {
	switch value := raw.(type) {
	case nil:
		return &Schedule{Kind: ScheduleManual}, nil
	case string:
		return parseScheduleString(value)
	case map[string]any:
		return parseStructuredSchedule(value)
	default:
		return nil, fmt.Errorf("%w: unsupported value %T", ErrInvalidSchedule, raw)
	}
}

func parseScheduleString(value string) (*Schedule, error) {
	expression := strings.TrimSpace(value)

	switch strings.ToLower(expression) {
	case "", string(ScheduleManual):
		return &Schedule{Kind: ScheduleManual}, nil
	case string(ScheduleDaily):
		hour, minute := DailyHour, 0

		return &Schedule{Kind: ScheduleDaily, Hour: &hour, Minute: &minute}, nil
	case string(ScheduleHourly):
		minute := 0

		return &Schedule{Kind: ScheduleHourly, Minute: &minute}, nil
	}

	parsed, err := cronParser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, expression, err)
	}

	return &Schedule{Kind: ScheduleCron, Expression: expression, cron: parsed}, nil
}

func parseStructuredSchedule(value map[string]any) (*Schedule, error) {
	schedule := &Schedule{Kind: ScheduleStructured}

	if raw, ok := value["hour"]; ok && raw != nil {
		hour, err := scheduleField(raw, "hour", 0, 23)
		if err != nil {
			return nil, err
		}

		schedule.Hour = &hour
	}

	if raw, ok := value["minute"]; ok && raw != nil {
		minute, err := scheduleField(raw, "minute", 0, 59)
		if err != nil {
			return nil, err
		}

		schedule.Minute = &minute
	}

	if raw, ok := value["days"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: days must be a list", ErrInvalidSchedule)
		}

		schedule.daysSet = true

		for _, item := range list {
			day, err := scheduleField(item, "days", 0, 6)
			if err != nil {
				return nil, err
			}

			schedule.Days = append(schedule.Days, time.Weekday(day))
		}
	}

	return schedule, nil
}

func scheduleField(raw any, name string, lower, upper int) (int, error) {
	var number int

	switch v := raw.(type) {
	case int:
		number = v
	case int64:
		number = int(v)
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidSchedule, name)
		}

		number = int(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrInvalidSchedule, name, err)
		}

		number = int(parsed)
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidSchedule, name)
	}

	if number < lower || number > upper {
		return 0, fmt.Errorf("%w: %s %d out of range [%d, %d]", ErrInvalidSchedule, name, number, lower, upper)
	}

	return number, nil
}

// Matches reports whether the schedule fires during the minute containing t.
// t is evaluated in its own location.
func (s *Schedule) Matches(t time.Time) bool {
	switch s.Kind {
	case ScheduleManual:
		return false
	case ScheduleCron:
		minute := t.Truncate(time.Minute)

		return s.cron.Next(minute.Add(-time.Second)).Equal(minute)
	}

	if s.Hour != nil && t.Hour() != *s.Hour {
		return false
	}

	if s.Minute != nil && t.Minute() != *s.Minute {
		return false
	}

	if s.daysSet {
		return slices.Contains(s.Days, t.Weekday())
	}

	return true
}

// String renders the schedule for logs.
func (s *Schedule) String() string {
	switch s.Kind {
	case ScheduleCron:
		return s.Expression
	case ScheduleStructured:
		return fmt.Sprintf("hour=%s minute=%s days=%v", optionalInt(s.Hour), optionalInt(s.Minute), s.Days)
	default:
		return string(s.Kind)
	}
}

func optionalInt(v *int) string {
	if v == nil {
		return "*"
	}

	return fmt.Sprintf("%d", *v)
}

// Window returns the calendar day containing t as [start, end). A schedule
// fires at most once per window. t is evaluated in its own location.
func (s *Schedule) Window(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())

	return start, start.AddDate(0, 0, 1)
}
