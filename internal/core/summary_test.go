package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exp(id string, amt Money, cat CategoryID, d Date) Expense {
	return Expense{ID: id, OwnerID: "u1", Amount: amt, Category: cat, Date: d}
}

func TestAggregateEmpty(t *testing.T) {
	r := ResolveRange(FilterWeekly, nil, at(2025, 3, 12, 9, 0))
	m := Aggregate(nil, r)

	assert.Equal(t, Money(0), m.Total)
	assert.Empty(t, m.ByCategory)
	assert.Empty(t, m.ByDate)
	assert.Equal(t, 0.0, m.DailyAverage)
	assert.Equal(t, 7, m.Days)
	assert.Equal(t, 0, m.Count)
}

func TestAggregateSums(t *testing.T) {
	r := ResolveRange(FilterWeekly, nil, at(2025, 3, 12, 9, 0))
	records := []Expense{
		exp("1", 50000, CategoryFood, NewDate(2025, 3, 12)),
		exp("2", 20000, CategoryTransport, NewDate(2025, 3, 12)),
		exp("3", 30000, CategoryFood, NewDate(2025, 3, 10)),
		exp("4", 10000, "mystery", NewDate(2025, 3, 11)),
	}
	m := Aggregate(records, r)

	assert.Equal(t, Money(110000), m.Total)
	assert.Equal(t, 4, m.Count)
	assert.Equal(t, Money(80000), m.ByCategory[CategoryFood])
	assert.Equal(t, Money(20000), m.ByCategory[CategoryTransport])
	assert.Equal(t, Money(10000), m.ByCategory[CategoryOther])
	_, present := m.ByCategory[CategoryCoffee]
	assert.False(t, present, "categories without records must not appear")

	var byCat, byDate Money
	for _, v := range m.ByCategory {
		byCat += v
	}
	for _, v := range m.ByDate {
		byDate += v
	}
	assert.Equal(t, m.Total, byCat)
	assert.Equal(t, m.Total, byDate)
	assert.InDelta(t, 110000.0/7.0, m.DailyAverage, 1e-9)
}

func TestDateSeriesSortsByDateNotLabel(t *testing.T) {
	// "Apr 01" < "Mar 30" lexicographically but not chronologically.
	r := DateRange{Start: at(2025, 3, 30, 0, 0), End: EndOfDay(at(2025, 4, 1, 0, 0))}
	m := Aggregate([]Expense{
		exp("1", 100, CategoryFood, NewDate(2025, 4, 1)),
		exp("2", 200, CategoryFood, NewDate(2025, 3, 30)),
		exp("3", 300, CategoryFood, NewDate(2025, 3, 31)),
	}, r)

	series := m.DateSeries()
	require.Len(t, series, 3)
	assert.Equal(t, "Mar 30", series[0].Label)
	assert.Equal(t, "Mar 31", series[1].Label)
	assert.Equal(t, "Apr 01", series[2].Label)
	assert.Equal(t, Money(100), series[2].Amount)
}

func TestCategoryBreakdown(t *testing.T) {
	r := ResolveRange(FilterDaily, nil, at(2025, 3, 12, 9, 0))
	d := NewDate(2025, 3, 12)
	m := Aggregate([]Expense{
		exp("1", 25000, CategoryCoffee, d),
		exp("2", 75000, CategoryFood, d),
	}, r)

	b := m.CategoryBreakdown()
	require.Len(t, b, 2)
	assert.Equal(t, CategoryFood, b[0].Category.ID)
	assert.Equal(t, "Food & Dining", b[0].Category.Name)
	assert.Equal(t, 75.0, b[0].Percentage)
	assert.Equal(t, 25.0, b[1].Percentage)
}

func TestGroupByDay(t *testing.T) {
	records := []Expense{
		exp("a", 100, CategoryFood, NewDate(2025, 3, 12)),
		exp("b", 200, CategoryFood, NewDate(2025, 3, 11)),
		exp("c", 300, CategoryFood, NewDate(2025, 3, 12)),
	}
	sections := GroupByDay(records)
	require.Len(t, sections, 2)
	assert.Equal(t, NewDate(2025, 3, 12), sections[0].Date)
	assert.Equal(t, Money(400), sections[0].Total)
	assert.Equal(t, "a", sections[0].Expenses[0].ID)
	assert.Equal(t, "c", sections[0].Expenses[1].ID)
	assert.Equal(t, Money(200), sections[1].Total)
}
