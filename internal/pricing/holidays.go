package pricing

import (
	"strconv"
	"strings"
	"time"
)

// HolidayCalendar answers whether a calendar date is a public holiday for one canton.
// Recurring entries (DD/MM) match every year; dated entries match one day only.
type HolidayCalendar struct {
	recurring map[[2]int]bool // {month, day}
	dated     map[string]bool // YYYY-MM-DD
}

// NewHolidayCalendar builds a calendar from raw entries. Accepted forms are
// DD/MM, DD.MM, YYYY-MM-DD, DD/MM/YYYY and DD.MM.YYYY. Malformed entries are skipped.
func NewHolidayCalendar(entries []string) HolidayCalendar {
	cal := HolidayCalendar{
		recurring: make(map[[2]int]bool),
		dated:     make(map[string]bool),
	}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if d, err := ParseDate(entry); err == nil {
			cal.dated[d.Format("2006-01-02")] = true
			continue
		}
		if day, month, ok := parseDayMonth(entry); ok {
			cal.recurring[[2]int{month, day}] = true
		}
	}
	return cal
}

// CalendarFor selects the holiday list of a canton; lookup ignores case and spaces.
func CalendarFor(cantonHolidays map[string][]string, canton string) HolidayCalendar {
	key := strings.ToUpper(strings.TrimSpace(canton))
	if key == "" {
		return NewHolidayCalendar(nil)
	}
	if entries, ok := cantonHolidays[key]; ok {
		return NewHolidayCalendar(entries)
	}
	for k, entries := range cantonHolidays {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return NewHolidayCalendar(entries)
		}
	}
	return NewHolidayCalendar(nil)
}

// IsHoliday reports whether t falls on a holiday date.
func (c HolidayCalendar) IsHoliday(t time.Time) bool {
	if c.dated[t.Format("2006-01-02")] {
		return true
	}
	return c.recurring[[2]int{int(t.Month()), t.Day()}]
}

// Len returns the number of distinct entries.
func (c HolidayCalendar) Len() int {
	return len(c.recurring) + len(c.dated)
}

func parseDayMonth(s string) (day, month int, ok bool) {
	sep := "/"
	if strings.Contains(s, ".") {
		sep = "."
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return 0, 0, false
	}
	d, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, false
	}
	return d, m, true
}
