package core

import (
	"fmt"
	"strings"
	"time"
)

type FilterMode string

const (
	FilterDaily   FilterMode = "daily"
	FilterWeekly  FilterMode = "weekly"
	FilterMonthly FilterMode = "monthly"
	FilterCustom  FilterMode = "custom"
)

type (
	// DateRange is an inclusive pair of instants: Start is the first instant of
	// its day and End the last.
	DateRange struct {
		Start time.Time
		End   time.Time
	}

	// CustomRange is a user-chosen pair of calendar dates.
	CustomRange struct {
		Start Date
		End   Date
	}

	// Filter is the active period selection.
	Filter struct {
		Mode   FilterMode
		Custom *CustomRange
	}
)

// ParseFilterMode accepts the four mode names; empty defaults to weekly.
func ParseFilterMode(s string) (FilterMode, error) {
	switch m := FilterMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return FilterWeekly, nil
	case FilterDaily, FilterWeekly, FilterMonthly, FilterCustom:
		return m, nil
	default:
		return "", fmt.Errorf("unknown filter mode %q", s)
	}
}

// Label is the period caption used in summaries.
func (m FilterMode) Label() string {
	switch m {
	case FilterDaily:
		return "Today's"
	case FilterWeekly:
		return "This Week's"
	case FilterMonthly:
		return "This Month's"
	case FilterCustom:
		return "Custom"
	default:
		return string(m)
	}
}

// StartOfDay returns 00:00:00 of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// StartOfWeek returns Monday 00:00 of t's week.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t.AddDate(0, 0, -offset))
}

// EndOfWeek returns the end of Sunday of t's week.
func EndOfWeek(t time.Time) time.Time {
	return EndOfDay(StartOfWeek(t).AddDate(0, 0, 6))
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func EndOfMonth(t time.Time) time.Time {
	return EndOfDay(StartOfMonth(t).AddDate(0, 1, -1))
}

// WeeklyRange is the Monday..Sunday range containing now. The budget is
// always evaluated against it, regardless of the active filter.
func WeeklyRange(now time.Time) DateRange {
	return DateRange{Start: StartOfWeek(now), End: EndOfWeek(now)}
}

// ResolveRange turns a filter mode into concrete bounds relative to now.
// It never fails: custom without a range and unknown modes resolve to today.
// Inverted custom ranges are swapped, and dates after today are clamped to today.
func ResolveRange(mode FilterMode, custom *CustomRange, now time.Time) DateRange {
	switch mode {
	case FilterWeekly:
		return WeeklyRange(now)
	case FilterMonthly:
		return DateRange{Start: StartOfMonth(now), End: EndOfMonth(now)}
	case FilterCustom:
		if custom != nil && !custom.Start.IsZero() && !custom.End.IsZero() {
			c := custom.Normalize(DateOf(now))
			loc := now.Location()
			return DateRange{Start: c.Start.In(loc), End: EndOfDay(c.End.In(loc))}
		}
	}
	return DateRange{Start: StartOfDay(now), End: EndOfDay(now)}
}

// Resolve is ResolveRange for f.
func (f Filter) Resolve(now time.Time) DateRange {
	return ResolveRange(f.Mode, f.Custom, now)
}

// Normalize orders the bounds and clamps both to today.
func (c CustomRange) Normalize(today Date) CustomRange {
	if c.End.Before(c.Start) {
		c.Start, c.End = c.End, c.Start
	}
	if c.End.After(today) {
		c.End = today
	}
	if c.Start.After(today) {
		c.Start = today
	}
	return c
}

// FirstDate is the calendar date of Start.
func (r DateRange) FirstDate() Date { return DateOf(r.Start) }

// LastDate is the calendar date of End.
func (r DateRange) LastDate() Date { return DateOf(r.End) }

// Days counts the calendar days the range spans, never less than one.
func (r DateRange) Days() int {
	n := r.FirstDate().DaysUntil(r.LastDate()) + 1
	if n < 1 {
		return 1
	}
	return n
}

// Contains reports whether the calendar date d falls inside the range.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.FirstDate()) && !d.After(r.LastDate())
}

func (r DateRange) String() string {
	return r.FirstDate().String() + ".." + r.LastDate().String()
}
