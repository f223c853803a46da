package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*3600)

func at(y, m, d, hh, mm int) time.Time {
	return time.Date(y, time.Month(m), d, hh, mm, 0, 0, wib)
}

func TestResolveRangeDaily(t *testing.T) {
	now := at(2025, 3, 12, 15, 30)
	r := ResolveRange(FilterDaily, nil, now)

	assert.Equal(t, at(2025, 3, 12, 0, 0), r.Start)
	assert.Equal(t, time.Date(2025, 3, 12, 23, 59, 59, 999999999, wib), r.End)
	assert.Equal(t, 1, r.Days())
}

func TestResolveRangeWeekly(t *testing.T) {
	cases := []struct {
		name  string
		now   time.Time
		start time.Time
	}{
		{"wednesday", at(2025, 3, 12, 15, 0), at(2025, 3, 10, 0, 0)},
		{"monday", at(2025, 3, 10, 0, 0), at(2025, 3, 10, 0, 0)},
		{"sunday belongs to previous monday", at(2025, 3, 16, 23, 0), at(2025, 3, 10, 0, 0)},
		{"across month boundary", at(2025, 4, 2, 9, 0), at(2025, 3, 31, 0, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := ResolveRange(FilterWeekly, nil, tc.now)
			assert.Equal(t, tc.start, r.Start)
			assert.Equal(t, time.Sunday, r.End.Weekday())
			assert.Equal(t, 23, r.End.Hour())
			assert.Equal(t, 59, r.End.Second())
			assert.Equal(t, 7, r.Days())
			assert.Equal(t, WeeklyRange(tc.now), r)
		})
	}
}

func TestResolveRangeMonthly(t *testing.T) {
	r := ResolveRange(FilterMonthly, nil, at(2024, 2, 10, 8, 0))
	assert.Equal(t, NewDate(2024, 2, 1), r.FirstDate())
	assert.Equal(t, NewDate(2024, 2, 29), r.LastDate())
	assert.Equal(t, 29, r.Days())

	r = ResolveRange(FilterMonthly, nil, at(2025, 12, 31, 23, 59))
	assert.Equal(t, NewDate(2025, 12, 31), r.LastDate())
	assert.Equal(t, 31, r.Days())
}

func TestResolveRangeCustom(t *testing.T) {
	now := at(2025, 3, 12, 10, 0)

	r := ResolveRange(FilterCustom, &CustomRange{Start: NewDate(2025, 3, 1), End: NewDate(2025, 3, 5)}, now)
	assert.Equal(t, at(2025, 3, 1, 0, 0), r.Start)
	assert.Equal(t, EndOfDay(at(2025, 3, 5, 0, 0)), r.End)
	assert.Equal(t, 5, r.Days())

	// no range degrades to today
	r = ResolveRange(FilterCustom, nil, now)
	assert.Equal(t, ResolveRange(FilterDaily, nil, now), r)

	r = ResolveRange(FilterCustom, &CustomRange{}, now)
	assert.Equal(t, ResolveRange(FilterDaily, nil, now), r)
}

func TestResolveRangeCustomNormalizes(t *testing.T) {
	now := at(2025, 3, 12, 10, 0)

	r := ResolveRange(FilterCustom, &CustomRange{Start: NewDate(2025, 3, 8), End: NewDate(2025, 3, 2)}, now)
	assert.Equal(t, NewDate(2025, 3, 2), r.FirstDate())
	assert.Equal(t, NewDate(2025, 3, 8), r.LastDate())

	r = ResolveRange(FilterCustom, &CustomRange{Start: NewDate(2025, 3, 10), End: NewDate(2025, 4, 1)}, now)
	assert.Equal(t, NewDate(2025, 3, 12), r.LastDate())

	r = ResolveRange(FilterCustom, &CustomRange{Start: NewDate(2025, 5, 1), End: NewDate(2025, 5, 2)}, now)
	assert.Equal(t, NewDate(2025, 3, 12), r.FirstDate())
	assert.Equal(t, 1, r.Days())
}

func TestResolveRangeStartNotAfterEnd(t *testing.T) {
	now := at(2025, 1, 1, 0, 0)
	for i := 0; i < 400; i++ {
		n := now.AddDate(0, 0, i)
		for _, m := range []FilterMode{FilterDaily, FilterWeekly, FilterMonthly, FilterCustom} {
			r := ResolveRange(m, nil, n)
			require.False(t, r.Start.After(r.End), "mode %s at %s", m, n)
			require.True(t, r.Contains(DateOf(n)), "mode %s at %s", m, n)
		}
	}
}

func TestParseFilterMode(t *testing.T) {
	m, err := ParseFilterMode("")
	require.NoError(t, err)
	assert.Equal(t, FilterWeekly, m)

	m, err = ParseFilterMode("Monthly")
	require.NoError(t, err)
	assert.Equal(t, FilterMonthly, m)

	_, err = ParseFilterMode("yearly")
	assert.Error(t, err)

	assert.Equal(t, "This Week's", FilterWeekly.Label())
	assert.Equal(t, "Today's", FilterDaily.Label())
}
