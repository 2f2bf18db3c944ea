package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTimeString(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already normalized", "09:30", "09:30"},
		{"seconds truncated", "09:30:45", "09:30"},
		{"single digits padded", "9:5", "09:05"},
		{"midnight", "0:0", "00:00"},
		{"end of day", "23:59", "23:59"},
		{"surrounding whitespace", "  14:15 ", "14:15"},
		{"empty", "", FallbackTime},
		{"garbage", "noon", FallbackTime},
		{"missing minutes", "14", FallbackTime},
		{"hour out of range", "24:00", FallbackTime},
		{"minute out of range", "12:60", FallbackTime},
		{"negative hour", "-1:30", FallbackTime},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NormalizeTimeString(tc.raw))
		})
	}
}

func TestToStoredInstant(t *testing.T) {
	got := ToStoredInstant("2026-03-15", "09:30")
	require.Equal(t, time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC), got)

	// Seconds in the time component are truncated, not rejected.
	got = ToStoredInstant("2026-03-15", "09:30:59")
	require.Equal(t, time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC), got)

	// Malformed time falls back to 00:00 on the given date.
	got = ToStoredInstant("2026-03-15", "whenever")
	require.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestToStoredInstant_FallsBackToNow(t *testing.T) {
	before := time.Now().UTC()

	for _, raw := range []string{"", "not-a-date", "15/03/2026"} {
		got := ToStoredInstant(raw, "09:30")
		require.False(t, got.Before(before), "fallback should be current time for %q", raw)
		require.WithinDuration(t, time.Now().UTC(), got, time.Minute)
	}
}

func TestToDisplayLocal_SummerOffset(t *testing.T) {
	// April through September display at UTC+3.
	stored := time.Date(2026, 7, 10, 21, 30, 0, 0, time.UTC)
	dateStr, timeStr := ToDisplayLocal(stored)
	require.Equal(t, "2026-07-11", dateStr) // crosses midnight
	require.Equal(t, "00:30", timeStr)
}

func TestToDisplayLocal_WinterOffset(t *testing.T) {
	// October through March display at UTC+2.
	stored := time.Date(2026, 12, 24, 10, 0, 0, 0, time.UTC)
	dateStr, timeStr := ToDisplayLocal(stored)
	require.Equal(t, "2026-12-24", dateStr)
	require.Equal(t, "12:00", timeStr)
}

func TestToDisplayLocal_BoundaryMonths(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.March, "12:00"},     // last winter month
		{time.April, "13:00"},     // first summer month
		{time.September, "13:00"}, // last summer month
		{time.October, "12:00"},   // first winter month
	}

	for _, tc := range tests {
		stored := time.Date(2026, tc.month, 15, 10, 0, 0, 0, time.UTC)
		_, timeStr := ToDisplayLocal(stored)
		require.Equal(t, tc.want, timeStr, "month %s", tc.month)
	}
}
