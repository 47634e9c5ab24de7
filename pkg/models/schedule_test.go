package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int, day time.Weekday) time.Time {
	// 2025-06-01 is a Sunday.
	base := time.Date(2025, time.June, 1, hour, minute, 30, 0, time.UTC)

	return base.AddDate(0, 0, int(day))
}

func TestParseSchedule_Symbolic(t *testing.T) {
	daily, err := ParseSchedule("daily")
	require.NoError(t, err)
	assert.Equal(t, ScheduleDaily, daily.Kind)
	assert.True(t, daily.Matches(at(9, 0, time.Monday)))
	assert.False(t, daily.Matches(at(9, 1, time.Monday)))
	assert.False(t, daily.Matches(at(10, 0, time.Monday)))

	hourly, err := ParseSchedule("hourly")
	require.NoError(t, err)
	assert.True(t, hourly.Matches(at(3, 0, time.Friday)))
	assert.True(t, hourly.Matches(at(17, 0, time.Saturday)))
	assert.False(t, hourly.Matches(at(17, 30, time.Saturday)))
}

func TestParseSchedule_ManualNeverMatches(t *testing.T) {
	for _, raw := range []any{nil, "", "manual"} {
		schedule, err := ParseSchedule(raw)
		require.NoError(t, err)
		assert.Equal(t, ScheduleManual, schedule.Kind)
		assert.False(t, schedule.Matches(at(9, 0, time.Monday)))
	}
}

func TestParseSchedule_Structured(t *testing.T) {
	schedule, err := ParseSchedule(map[string]any{
		"hour":   float64(14),
		"minute": float64(30),
		"days":   []any{float64(1), float64(3)},
	})
	require.NoError(t, err)
	assert.Equal(t, ScheduleStructured, schedule.Kind)

	assert.True(t, schedule.Matches(at(14, 30, time.Monday)))
	assert.True(t, schedule.Matches(at(14, 30, time.Wednesday)))
	assert.False(t, schedule.Matches(at(14, 30, time.Tuesday)))
	assert.False(t, schedule.Matches(at(14, 31, time.Monday)))
}

func TestParseSchedule_StructuredWildcards(t *testing.T) {
	schedule, err := ParseSchedule(map[string]any{"minute": 15})
	require.NoError(t, err)

	assert.True(t, schedule.Matches(at(0, 15, time.Sunday)))
	assert.True(t, schedule.Matches(at(23, 15, time.Thursday)))
	assert.False(t, schedule.Matches(at(23, 16, time.Thursday)))
}

func TestParseSchedule_Cron(t *testing.T) {
	schedule, err := ParseSchedule("0 9 * * 1-5")
	require.NoError(t, err)
	assert.Equal(t, ScheduleCron, schedule.Kind)

	assert.True(t, schedule.Matches(at(9, 0, time.Monday)))
	assert.False(t, schedule.Matches(at(9, 0, time.Sunday)))
	assert.False(t, schedule.Matches(at(9, 5, time.Monday)))

	descriptor, err := ParseSchedule("@hourly")
	require.NoError(t, err)
	assert.True(t, descriptor.Matches(at(13, 0, time.Tuesday)))
}

func TestParseSchedule_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"bad cron", "not a schedule"},
		{"hour out of range", map[string]any{"hour": 24}},
		{"fractional minute", map[string]any{"minute": 1.5}},
		{"days not a list", map[string]any{"days": "monday"}},
		{"day out of range", map[string]any{"days": []any{7}}},
		{"unsupported type", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedule(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidSchedule)
		})
	}
}

func TestParseSchedule_EmptyDaysNeverMatches(t *testing.T) {
	schedule, err := ParseSchedule(map[string]any{"hour": 9, "minute": 0, "days": []any{}})
	require.NoError(t, err)

	for day := time.Sunday; day <= time.Saturday; day++ {
		assert.False(t, schedule.Matches(at(9, 0, day)), day.String())
	}
}

func TestSchedule_WindowIsCalendarDay(t *testing.T) {
	now := time.Date(2025, time.June, 2, 9, 0, 42, 0, time.UTC)
	dayStart := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	dayEnd := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)

	for _, raw := range []any{"daily", "hourly", map[string]any{"minute": 0}, map[string]any{"days": []any{1}}, "0 9 * * *"} {
		schedule, err := ParseSchedule(raw)
		require.NoError(t, err)

		start, end := schedule.Window(now)
		assert.Equal(t, dayStart, start, "%v", raw)
		assert.Equal(t, dayEnd, end, "%v", raw)
	}
}

func TestSchedule_WindowUsesLocation(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	schedule, err := ParseSchedule("daily")
	require.NoError(t, err)

	start, end := schedule.Window(time.Date(2025, time.June, 2, 2, 0, 0, 0, time.UTC).In(zone))

	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, zone), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}
