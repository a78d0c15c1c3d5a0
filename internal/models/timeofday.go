package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day expressed as minutes since midnight. Schedule
// intervals are half-open [start, end): an entry ending at 09.00 does not
// overlap one starting at 09.00.
type ClockTime int

// ParseClockTime parses "HH:MM" or the Indonesian "HH.MM" form used by the
// legacy frontend. Seconds, when present, are ignored.
func ParseClockTime(raw string) (ClockTime, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ".", ":")
	parts := strings.Split(normalized, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	return ClockTime(hour*60 + minute), nil
}

// Hour returns the hour component.
func (t ClockTime) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t ClockTime) Minute() int { return int(t) % 60 }

// String renders the Indonesian display form, e.g. "08.00".
func (t ClockTime) String() string {
	return fmt.Sprintf("%02d.%02d", t.Hour(), t.Minute())
}

// MarshalJSON renders the canonical "HH:MM" wire form.
func (t ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()))), nil
}

// UnmarshalJSON accepts both separator styles.
func (t *ClockTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	parsed, err := ParseClockTime(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the time as a Postgres TIME literal.
func (t ClockTime) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute()), nil
}

// Scan reads TIME columns returned as time.Time, string or raw bytes.
func (t *ClockTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = 0
		return nil
	case time.Time:
		*t = ClockTime(v.Hour()*60 + v.Minute())
		return nil
	case []byte:
		parsed, err := ParseClockTime(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case string:
		parsed, err := ParseClockTime(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case int64:
		*t = ClockTime(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching boundaries do not count as overlap.
func Overlaps(aStart, aEnd, bStart, bEnd ClockTime) bool {
	return aStart < bEnd && aEnd > bStart
}
