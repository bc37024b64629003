// Package recur implements the date arithmetic behind recurring tasks.
// All functions are pure: they never touch storage and recompute their
// results from scratch on every call.
package recur

import (
	"time"

	"github.com/nhle/mytodo/internal/model"
)

// Next returns the occurrence that follows anchor under rule. Daily and
// weekly advance by fixed spans. Monthly advances to the same day of the
// next calendar month, clamped to that month's last valid day, so
// Jan 31 yields Feb 28 (Feb 29 in leap years) and Dec rolls over into
// January of the next year. Time of day is preserved.
//
// Rule validity is enforced at the write boundary; an empty or
// unrecognized rule returns anchor unchanged.
func Next(anchor time.Time, rule model.Recurrence) time.Time {
	switch rule {
	case model.RecurrenceDaily:
		return anchor.AddDate(0, 0, 1)
	case model.RecurrenceWeekly:
		return anchor.AddDate(0, 0, 7)
	case model.RecurrenceMonthly:
		return nextMonth(anchor)
	default:
		return anchor
	}
}

// nextMonth advances anchor by one calendar month. AddDate normalizes
// day overflow (Jan 31 + 1 month = Mar 2/3), so the clamp is done by hand.
func nextMonth(anchor time.Time) time.Time {
	year, month, day := anchor.Date()
	month++
	if month > time.December {
		month = time.January
		year++
	}
	if last := daysIn(year, month); day > last {
		day = last
	}
	hour, min, sec := anchor.Clock()
	return time.Date(year, month, day, hour, min, sec, anchor.Nanosecond(), anchor.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Project returns every occurrence after anchor that falls within
// [start, end): the window start is inclusive, the end exclusive. The
// anchor itself is never emitted. The loop terminates for arbitrarily
// distant windows because each step strictly advances.
func Project(anchor time.Time, rule model.Recurrence, start, end time.Time) []time.Time {
	if rule == model.RecurrenceNone || !rule.Valid() {
		return nil
	}

	var out []time.Time
	for d := Next(anchor, rule); d.Before(end); d = Next(d, rule) {
		if d.Before(start) {
			continue
		}
		out = append(out, d)
	}
	return out
}
