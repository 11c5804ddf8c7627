package pricing

import (
	"time"

	"github.com/garyjia/secu-devis/internal/domain/entity"
)

// Default windows used when the settings carry malformed or empty times.
const (
	defaultNightStart clockMinutes = 22 * 60
	defaultNightEnd   clockMinutes = 6 * 60
)

type bucket int

const (
	bucketNormal bucket = iota
	bucketNight
	bucketSunday
	bucketHoliday
)

// BucketRules are the classification rules for one canton, resolved from settings.
type BucketRules struct {
	NightStart  clockMinutes
	NightEnd    clockMinutes
	SundayStart clockMinutes
	SundayEnd   clockMinutes
	Holidays    HolidayCalendar
}

// RulesFor resolves bucketing rules from the current settings for a canton.
func RulesFor(settings entity.Settings, canton string) BucketRules {
	rates := settings.AgentRates
	return BucketRules{
		NightStart:  clockOr(rates.NightStartTime, defaultNightStart),
		NightEnd:    clockOr(rates.NightEndTime, defaultNightEnd),
		SundayStart: clockOr(rates.SundayStartTime, 0),
		SundayEnd:   clockOr(rates.SundayEndTime, 0),
		Holidays:    CalendarFor(settings.CantonHolidays, canton),
	}
}

// IsNight reports whether a time of day falls in the night window.
func (r BucketRules) IsNight(t time.Time) bool {
	return inWrappingWindow(minuteOfDay(t), r.NightStart, r.NightEnd)
}

// IsSunday reports whether t is a Sunday inside the Sunday window.
// Equal start and end times cover the whole day.
func (r BucketRules) IsSunday(t time.Time) bool {
	if t.Weekday() != time.Sunday {
		return false
	}
	if r.SundayStart == r.SundayEnd {
		return true
	}
	return inWrappingWindow(minuteOfDay(t), r.SundayStart, r.SundayEnd)
}

// classify applies the priority holiday > Sunday > night > normal.
func (r BucketRules) classify(t time.Time) bucket {
	switch {
	case r.Holidays.IsHoliday(t):
		return bucketHoliday
	case r.IsSunday(t):
		return bucketSunday
	case r.IsNight(t):
		return bucketNight
	default:
		return bucketNormal
	}
}

// BucketHours splits [start, end) into hour buckets. The span is walked in
// one-hour steps, the last one truncated at end, and each step is classified
// by its starting instant so multi-day spans re-evaluate the calendar as they go.
// An empty or inverted span yields zero buckets.
func BucketHours(start, end time.Time, rules BucketRules) entity.AgentHours {
	var h entity.AgentHours
	if !end.After(start) {
		return h
	}

	for cursor := start; cursor.Before(end); {
		next := cursor.Add(time.Hour)
		if next.After(end) {
			next = end
		}
		step := next.Sub(cursor).Hours()

		switch rules.classify(cursor) {
		case bucketHoliday:
			h.Holiday += step
		case bucketSunday:
			h.Sunday += step
		case bucketNight:
			h.Night += step
		default:
			h.Normal += step
		}
		cursor = next
	}

	h.Total = h.Sum()
	return h
}

// DeductPause removes an unpaid pause from the buckets, consuming normal, then
// night, then Sunday, then holiday hours. Buckets never go below zero.
func DeductPause(h entity.AgentHours, pauseMinutes float64, pausePaid bool) entity.AgentHours {
	if pausePaid || pauseMinutes <= 0 {
		return h
	}

	remaining := pauseMinutes / 60
	for _, b := range []*float64{&h.Normal, &h.Night, &h.Sunday, &h.Holiday} {
		if remaining <= 0 {
			break
		}
		take := *b
		if take > remaining {
			take = remaining
		}
		if take < 0 {
			take = 0
		}
		*b -= take
		remaining -= take
	}

	h.Total = h.Sum()
	return h
}
