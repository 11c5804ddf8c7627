package pricing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// clockMinutes is a time of day in minutes since midnight.
type clockMinutes int

// parseClock parses HH:MM (or H:MM) into minutes since midnight. "24:00" is accepted.
func parseClock(s string) (clockMinutes, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time of day out of range %q", s)
	}
	return clockMinutes(h*60 + m), nil
}

// ValidClock reports whether s is a time of day pricing accepts.
func ValidClock(s string) bool {
	_, err := parseClock(s)
	return err == nil
}

// ValidDate reports whether s is a calendar date pricing accepts.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// clockOr parses s and falls back to def when s is empty or malformed.
func clockOr(s string, def clockMinutes) clockMinutes {
	c, err := parseClock(s)
	if err != nil {
		return def
	}
	return c
}

func minuteOfDay(t time.Time) clockMinutes {
	return clockMinutes(t.Hour()*60 + t.Minute())
}

// inWrappingWindow reports whether c lies in [start, end). When start > end the
// window crosses midnight. An empty window (start == end) contains nothing.
func inWrappingWindow(c, start, end clockMinutes) bool {
	if start > end {
		return c >= start || c < end
	}
	return start <= c && c < end
}

// dateLayouts are the accepted calendar date spellings, ISO first.
var dateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006"}

// ParseDate parses a calendar date written in any of the accepted spellings.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseDateTime combines a calendar date and an HH:MM time into a wall-clock
// instant. Wall-clock instants are kept in UTC so daylight saving never
// stretches or shrinks a vacation.
func ParseDateTime(date, clock string) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	c, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(time.Duration(c) * time.Minute), nil
}
