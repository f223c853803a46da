package http

import (
	"math"
	"net/http"
	"time"

	"flux/internal/core"
	"flux/internal/services"
)

type (
	rangeView struct {
		Start string `json:"start"`
		End   string `json:"end"`
		Days  int    `json:"days"`
	}

	summaryView struct {
		Total                 core.Money `json:"total"`
		TotalFormatted        string     `json:"total_formatted"`
		TotalCompact          string     `json:"total_compact"`
		DailyAverage          float64    `json:"daily_average"`
		DailyAverageFormatted string     `json:"daily_average_formatted"`
		Days                  int        `json:"days"`
		Count                 int        `json:"count"`
	}

	categoryView struct {
		core.CategoryAmount
		AmountFormatted string `json:"amount_formatted"`
	}

	seriesView struct {
		Date   string     `json:"date"`
		Label  string     `json:"label"`
		Amount core.Money `json:"amount"`
	}

	budgetView struct {
		Limit              core.Money `json:"limit"`
		Spent              core.Money `json:"spent"`
		SpentFormatted     string     `json:"spent_formatted"`
		Remaining          core.Money `json:"remaining"`
		RemainingFormatted string     `json:"remaining_formatted"`
		Percentage         float64    `json:"percentage"`
		IsWarning          bool       `json:"is_warning"`
		IsExceeded         bool       `json:"is_exceeded"`
		Message            string     `json:"message,omitempty"`
		Week               rangeView  `json:"week"`
	}

	expenseView struct {
		ID              string        `json:"id"`
		Amount          core.Money    `json:"amount"`
		AmountFormatted string        `json:"amount_formatted"`
		Category        core.Category `json:"category"`
		Description     string        `json:"description"`
		Date            string        `json:"date"`
		CreatedAt       time.Time     `json:"created_at"`
	}

	daySectionView struct {
		Date           string        `json:"date"`
		Label          string        `json:"label"`
		Total          core.Money    `json:"total"`
		TotalFormatted string        `json:"total_formatted"`
		Expenses       []expenseView `json:"expenses"`
	}

	// dashboardView is the JSON form of a snapshot. A failed fetch is reported
	// through State and Error with empty collections, never as an HTTP error.
	dashboardView struct {
		Filter     core.FilterMode  `json:"filter"`
		Label      string           `json:"label"`
		Range      rangeView        `json:"range"`
		State      services.State   `json:"state"`
		Error      string           `json:"error,omitempty"`
		Token      uint64           `json:"token"`
		Stale      bool             `json:"stale,omitempty"`
		Summary    summaryView      `json:"summary"`
		Categories []categoryView   `json:"categories"`
		Series     []seriesView     `json:"series"`
		Budget     budgetView       `json:"budget"`
		Days       []daySectionView `json:"days"`
	}
)

func newRangeView(r core.DateRange) rangeView {
	if r.Start.IsZero() {
		return rangeView{}
	}
	return rangeView{Start: r.FirstDate().String(), End: r.LastDate().String(), Days: r.Days()}
}

func newExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:              e.ID,
		Amount:          e.Amount,
		AmountFormatted: core.FormatIDR(e.Amount),
		Category:        core.LookupCategory(e.Category),
		Description:     e.Description,
		Date:            e.Date.String(),
		CreatedAt:       e.CreatedAt,
	}
}

func newDaySections(records []core.Expense) []daySectionView {
	sections := core.GroupByDay(records)
	out := make([]daySectionView, 0, len(sections))
	for _, sec := range sections {
		v := daySectionView{
			Date:           sec.Date.String(),
			Label:          sec.Date.Label(),
			Total:          sec.Total,
			TotalFormatted: core.FormatIDR(sec.Total),
			Expenses:       make([]expenseView, 0, len(sec.Expenses)),
		}
		for _, e := range sec.Expenses {
			v.Expenses = append(v.Expenses, newExpenseView(e))
		}
		out = append(out, v)
	}
	return out
}

func newDashboardView(snap services.Snapshot) dashboardView {
	m := snap.Metrics
	v := dashboardView{
		Filter: snap.Filter.Mode,
		Label:  snap.Filter.Mode.Label(),
		Range:  newRangeView(snap.Range),
		State:  snap.State,
		Token:  snap.Token,
		Stale:  snap.Superseded,
		Summary: summaryView{
			Total:                 m.Total,
			TotalFormatted:        core.FormatIDR(m.Total),
			TotalCompact:          core.FormatIDRCompact(m.Total),
			DailyAverage:          m.DailyAverage,
			DailyAverageFormatted: core.FormatIDR(core.Money(math.Round(m.DailyAverage))),
			Days:                  m.Days,
			Count:                 m.Count,
		},
		Budget: budgetView{
			Limit:              snap.Budget.Limit,
			Spent:              snap.Budget.Spent,
			SpentFormatted:     core.FormatIDR(snap.Budget.Spent),
			Remaining:          snap.Budget.Remaining,
			RemainingFormatted: core.FormatIDR(snap.Budget.Remaining),
			Percentage:         snap.Budget.Percentage,
			IsWarning:          snap.Budget.IsWarning,
			IsExceeded:         snap.Budget.IsExceeded,
			Message:            snap.Budget.Message,
			Week:               newRangeView(snap.WeeklyRange),
		},
		Days: newDaySections(snap.Expenses),
	}
	if snap.Err != nil {
		v.Error = "could not load expenses, please retry"
	}

	breakdown := m.CategoryBreakdown()
	v.Categories = make([]categoryView, 0, len(breakdown))
	for _, ca := range breakdown {
		v.Categories = append(v.Categories, categoryView{CategoryAmount: ca, AmountFormatted: core.FormatIDR(ca.Amount)})
	}

	series := m.DateSeries()
	v.Series = make([]seriesView, 0, len(series))
	for _, p := range series {
		v.Series = append(v.Series, seriesView{Date: p.Date.String(), Label: p.Label, Amount: p.Amount})
	}
	return v
}

// snapshotFor switches the caller's filter when the query names one and
// otherwise refreshes with the current filter.
func (s *Server) snapshotFor(r *http.Request) (services.Snapshot, error) {
	f, ok, err := ParseFilter(r.URL.Query())
	if err != nil {
		return services.Snapshot{}, err
	}
	if ok {
		return s.expenses.Dashboard(r.Context(), f)
	}
	return s.expenses.Refresh(r.Context())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshotFor(r)
	if err != nil {
		writeError(w, r, "dashboard", err)
		return
	}
	NewJSONResponse().Body(newDashboardView(snap)).Write(w)
}
