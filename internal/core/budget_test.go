package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateBudget(t *testing.T) {
	cases := []struct {
		name      string
		spent     Money
		pct       float64
		remaining Money
		warning   bool
		exceeded  bool
		message   string
	}{
		{"nothing spent", 0, 0, 1000000, false, false, "Rp 1.000.000 remaining this week"},
		{"below warning", 799999, 79.9999, 200001, false, false, "Rp 200.001 remaining this week"},
		{"warning threshold", 800000, 80, 200000, true, false, "Warning: Rp 200.000 remaining this week"},
		{"just under limit", 999999, 99.9999, 1, true, false, "Warning: Rp 1 remaining this week"},
		{"at limit", 1000000, 100, 0, false, true, "Weekly limit exceeded by Rp 0"},
		{"over limit", 1200000, 100, -200000, false, true, "Weekly limit exceeded by Rp 200.000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := EvaluateBudget(tc.spent, DefaultWeeklyLimit)
			assert.InDelta(t, tc.pct, st.Percentage, 1e-9)
			assert.Equal(t, tc.remaining, st.Remaining)
			assert.Equal(t, tc.warning, st.IsWarning)
			assert.Equal(t, tc.exceeded, st.IsExceeded)
			assert.Equal(t, tc.message, st.Message)
			assert.False(t, st.IsWarning && st.IsExceeded)
		})
	}
}

func TestEvaluateBudgetCustomLimit(t *testing.T) {
	st := EvaluateBudget(450000, 500000)
	assert.True(t, st.IsWarning)
	assert.Equal(t, 90.0, st.Percentage)
	assert.Equal(t, "Warning: Rp 50.000 remaining this week", st.Message)
}

func TestEvaluateBudgetNonPositiveLimit(t *testing.T) {
	st := EvaluateBudget(0, 0)
	assert.False(t, st.IsExceeded)
	assert.Equal(t, 0.0, st.Percentage)

	st = EvaluateBudget(1, 0)
	assert.True(t, st.IsExceeded)
	assert.Equal(t, 100.0, st.Percentage)
}
