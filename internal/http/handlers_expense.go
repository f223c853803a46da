package http

import (
	"net/http"
	"strings"

	applog "flux/internal/log"
	"flux/internal/services"
)

type expenseListView struct {
	Range rangeView        `json:"range"`
	State services.State   `json:"state"`
	Error string           `json:"error,omitempty"`
	Days  []daySectionView `json:"days"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshotFor(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	v := newDashboardView(snap)
	NewJSONResponse().Body(expenseListView{Range: v.Range, State: v.State, Error: v.Error, Days: v.Days}).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	draft, err := ParseExpenseDraft(p)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	e, snap, err := s.expenses.AddExpense(r.Context(), draft)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+e.ID).
		Body(map[string]any{
			"expense":   newExpenseView(e),
			"dashboard": newDashboardView(snap),
		}).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		BadRequestError("missing expense id").Write(w)
		return
	}
	snap, err := s.expenses.DeleteExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Body(map[string]any{"dashboard": newDashboardView(snap)}).Write(w)
}
