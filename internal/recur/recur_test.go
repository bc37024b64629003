package recur

import (
	"testing"
	"time"

	"github.com/nhle/mytodo/internal/model"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestNext(t *testing.T) {
	cases := []struct {
		name   string
		anchor time.Time
		rule   model.Recurrence
		want   time.Time
	}{
		{"daily", date(2024, 3, 1, 8, 0), model.RecurrenceDaily, date(2024, 3, 2, 8, 0)},
		{"weekly", date(2024, 3, 1, 8, 0), model.RecurrenceWeekly, date(2024, 3, 8, 8, 0)},
		{"monthly plain", date(2024, 3, 15, 9, 30), model.RecurrenceMonthly, date(2024, 4, 15, 9, 30)},
		{"monthly leap clamp", date(2024, 1, 31, 9, 0), model.RecurrenceMonthly, date(2024, 2, 29, 9, 0)},
		{"monthly non-leap clamp", date(2025, 1, 31, 9, 0), model.RecurrenceMonthly, date(2025, 2, 28, 9, 0)},
		{"monthly 31 to 30", date(2024, 3, 31, 12, 0), model.RecurrenceMonthly, date(2024, 4, 30, 12, 0)},
		{"monthly year rollover", date(2024, 12, 15, 9, 0), model.RecurrenceMonthly, date(2025, 1, 15, 9, 0)},
		{"daily month rollover", date(2024, 1, 31, 23, 59), model.RecurrenceDaily, date(2024, 2, 1, 23, 59)},
		{"no rule returns anchor", date(2024, 6, 1, 0, 0), model.RecurrenceNone, date(2024, 6, 1, 0, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Next(tc.anchor, tc.rule)
			if !got.Equal(tc.want) {
				t.Fatalf("Next(%v, %q) = %v, want %v", tc.anchor, tc.rule, got, tc.want)
			}
		})
	}
}

func TestNextPreservesTimeOfDay(t *testing.T) {
	anchor := time.Date(2024, 1, 31, 17, 45, 12, 500, time.UTC)
	got := Next(anchor, model.RecurrenceMonthly)

	hh, mm, ss := got.Clock()
	if hh != 17 || mm != 45 || ss != 12 || got.Nanosecond() != 500 {
		t.Fatalf("time of day not preserved: got %v", got)
	}
}

func TestProjectWindow(t *testing.T) {
	anchor := date(2024, 6, 1, 0, 0)
	start := date(2024, 6, 3, 0, 0)
	end := date(2024, 6, 6, 0, 0)

	got := Project(anchor, model.RecurrenceDaily, start, end)

	want := []time.Time{
		date(2024, 6, 3, 0, 0),
		date(2024, 6, 4, 0, 0),
		date(2024, 6, 5, 0, 0),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestProjectInclusiveStartExclusiveEnd(t *testing.T) {
	anchor := date(2024, 6, 1, 10, 0)
	start := date(2024, 6, 2, 10, 0)
	end := date(2024, 6, 4, 10, 0)

	got := Project(anchor, model.RecurrenceDaily, start, end)

	// 06-02 10:00 equals the window start and is included; 06-04 10:00
	// equals the window end and is excluded.
	if len(got) != 2 {
		t.Fatalf("expected 2 occurrences, got %d: %v", len(got), got)
	}
	if !got[0].Equal(start) {
		t.Fatalf("window start should be inclusive, first = %v", got[0])
	}
}

func TestProjectEmptyBeyondWindow(t *testing.T) {
	anchor := date(2024, 6, 1, 0, 0)

	got := Project(anchor, model.RecurrenceMonthly, date(2024, 6, 2, 0, 0), date(2024, 6, 20, 0, 0))
	if len(got) != 0 {
		t.Fatalf("expected no occurrences inside a sub-month window, got %v", got)
	}
}

func TestProjectNoRule(t *testing.T) {
	got := Project(date(2024, 6, 1, 0, 0), model.RecurrenceNone, date(2024, 6, 1, 0, 0), date(2030, 1, 1, 0, 0))
	if got != nil {
		t.Fatalf("expected nil for missing rule, got %v", got)
	}
}

func TestProjectRestartable(t *testing.T) {
	anchor := date(2024, 1, 31, 9, 0)
	start := date(2024, 2, 1, 0, 0)
	end := date(2024, 8, 1, 0, 0)

	first := Project(anchor, model.RecurrenceMonthly, start, end)
	second := Project(anchor, model.RecurrenceMonthly, start, end)

	if len(first) != len(second) {
		t.Fatalf("projection not stable across calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("occurrence %d differs across calls: %v vs %v", i, first[i], second[i])
		}
	}

	// Clamped monthly chain: Jan 31 -> Feb 29 -> Mar 29 -> ... day stays
	// at 29 once clamped.
	if got := first[1].Day(); got != 29 {
		t.Fatalf("expected clamped chain to continue on day 29, got day %d", got)
	}
}
