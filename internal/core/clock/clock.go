// Package clock converts between wall-clock strings entered in forms and
// the instants the event store keeps, and formats instants for the fixed
// Israel display timezone.
//
// The offset rule is deliberately simplified and not IANA-driven: whole
// months April through September are UTC+3, October through March UTC+2.
// The rule only applies on the explicit display path; stored instants are
// the literal wall-clock value the user typed, so no conversion is ever
// applied twice.
//
// Nothing in this package returns an error. Malformed input is a
// recoverable display problem, not a fatal one: instants fall back to the
// current time and time strings to "00:00".
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// FallbackTime is returned by NormalizeTimeString for input it
	// cannot make sense of.
	FallbackTime = "00:00"
)

// ToStoredInstant combines a YYYY-MM-DD date and an HH:MM time into the
// instant the store keeps. The combination is naive: the literal
// wall-clock value is stored with no timezone math. Empty or malformed
// input falls back to the current time.
func ToStoredInstant(dateStr, timeStr string) time.Time {
	if strings.TrimSpace(dateStr) == "" {
		return time.Now().UTC()
	}

	combined := strings.TrimSpace(dateStr) + " " + NormalizeTimeString(timeStr)
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, combined, time.UTC)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

// ToDisplayLocal formats an instant for Israel-time-labeled UI, applying
// the fixed offset rule. This is the only code path that shifts the
// stored value.
func ToDisplayLocal(t time.Time) (dateStr, timeStr string) {
	utc := t.UTC()
	local := utc.Add(time.Duration(israelOffsetHours(utc.Month())) * time.Hour)
	return local.Format(dateLayout), local.Format(timeLayout)
}

// israelOffsetHours returns the display offset for a month: +3 during the
// summer half of the year (April-September), +2 otherwise.
func israelOffsetHours(m time.Month) int {
	if m >= time.April && m <= time.September {
		return 3
	}
	return 2
}

// NormalizeTimeString coerces raw time input to HH:MM: seconds are
// truncated, single digits padded. Anything unparseable yields
// FallbackTime.
func NormalizeTimeString(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return FallbackTime
	}

	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return FallbackTime
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return FallbackTime
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return FallbackTime
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}
