package core

import (
	"math"
	"sort"
)

// CategoryAmount is a category total with its share of the overall total.
type CategoryAmount struct {
	Category   Category `json:"category"`
	Amount     Money    `json:"amount"`
	Percentage float64  `json:"percentage"`
}

// DatePoint is one bar of the spending-over-time series.
type DatePoint struct {
	Date   Date   `json:"-"`
	Label  string `json:"label"`
	Amount Money  `json:"amount"`
}

// Metrics summarizes the records of one date range.
type Metrics struct {
	Total        Money
	ByCategory   map[CategoryID]Money
	ByDate       map[Date]Money
	DailyAverage float64
	Days         int
	Count        int
}

// DaySection groups the records of a single calendar day.
type DaySection struct {
	Date     Date
	Total    Money
	Expenses []Expense
}

// Aggregate sums records over rng. Records are taken as given: the caller is
// responsible for having fetched only the records inside rng.
func Aggregate(records []Expense, rng DateRange) Metrics {
	m := Metrics{
		ByCategory: make(map[CategoryID]Money),
		ByDate:     make(map[Date]Money),
		Days:       rng.Days(),
		Count:      len(records),
	}
	for _, e := range records {
		m.Total += e.Amount
		m.ByCategory[NormalizeCategory(e.Category)] += e.Amount
		m.ByDate[e.Date] += e.Amount
	}
	m.DailyAverage = float64(m.Total) / float64(m.Days)
	return m
}

// DateSeries returns ByDate ordered by ascending date.
func (m Metrics) DateSeries() []DatePoint {
	out := make([]DatePoint, 0, len(m.ByDate))
	for d, amt := range m.ByDate {
		out = append(out, DatePoint{Date: d, Label: d.Label(), Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// CategoryBreakdown returns ByCategory ordered by descending amount, with the
// percentage of Total rounded to one decimal.
func (m Metrics) CategoryBreakdown() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(m.ByCategory))
	for id, amt := range m.ByCategory {
		ca := CategoryAmount{Category: LookupCategory(id), Amount: amt}
		if m.Total > 0 {
			ca.Percentage = math.Round(float64(amt)/float64(m.Total)*1000) / 10
		}
		out = append(out, ca)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category.ID < out[j].Category.ID
	})
	return out
}

// GroupByDay splits records into per-day sections, newest day first. Records
// keep their relative order inside a section.
func GroupByDay(records []Expense) []DaySection {
	idx := make(map[Date]int)
	var out []DaySection
	for _, e := range records {
		i, ok := idx[e.Date]
		if !ok {
			i = len(out)
			idx[e.Date] = i
			out = append(out, DaySection{Date: e.Date})
		}
		out[i].Total += e.Amount
		out[i].Expenses = append(out[i].Expenses, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
