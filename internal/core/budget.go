package core

import "fmt"

const (
	// DefaultWeeklyLimit is used when no limit is configured.
	DefaultWeeklyLimit Money = 1_000_000

	warningPercent = 80.0
)

// BudgetStatus is derived from the week's spending; it is never stored.
type BudgetStatus struct {
	Limit      Money
	Spent      Money
	Percentage float64 // clamped to 100
	Remaining  Money   // negative once exceeded
	IsWarning  bool
	IsExceeded bool
	Message    string
}

// EvaluateBudget compares the weekly total against limit. Warning covers
// [80%, 100%) of the unclamped ratio, exceeded is 100% and above.
// A non-positive limit counts as exceeded as soon as anything was spent.
func EvaluateBudget(weeklyTotal, limit Money) BudgetStatus {
	var raw float64
	switch {
	case limit > 0:
		raw = float64(weeklyTotal) / float64(limit) * 100
	case weeklyTotal > 0:
		raw = 100
	}

	st := BudgetStatus{
		Limit:      limit,
		Spent:      weeklyTotal,
		Percentage: min(raw, 100),
		Remaining:  limit - weeklyTotal,
		IsExceeded: raw >= 100,
		IsWarning:  raw >= warningPercent && raw < 100,
	}

	switch {
	case st.IsExceeded:
		st.Message = fmt.Sprintf("Weekly limit exceeded by %s", FormatIDR(-st.Remaining))
	case st.IsWarning:
		st.Message = fmt.Sprintf("Warning: %s remaining this week", FormatIDR(st.Remaining))
	default:
		st.Message = fmt.Sprintf("%s remaining this week", FormatIDR(st.Remaining))
	}
	return st
}
