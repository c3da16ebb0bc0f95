package http

import (
	"net/http"

	"finmind/internal/aggregate"
	"finmind/internal/auth"
	"finmind/internal/core"
	"finmind/internal/services"
)

// dashboardView is the summary plus display strings for the headline totals.
type dashboardView struct {
	aggregate.Summary
	Formatted map[string]string `json:"formatted"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	ts, err := s.deps.Transactions.List(r.Context(), sess.User.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ts == nil {
		ts = []core.Transaction{}
	}
	OK(ts).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	t, err := s.deps.Transactions.Create(r.Context(), sess.User.ID, services.TransactionInput{
		Type:        p.Get("type"),
		Amount:      p.Get("amount"),
		Category:    p.Get("category"),
		Description: p.Get("description"),
		Date:        p.Get("date"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(t).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	sum, err := s.deps.Transactions.Summary(r.Context(), sess.User.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(dashboardView{
		Summary: sum,
		Formatted: map[string]string{
			"total_income":   core.FormatDollars(sum.TotalIncome),
			"total_expenses": core.FormatDollars(sum.TotalExpenses),
			"net_balance":    core.FormatDollars(sum.NetBalance),
		},
	}).Write(w)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	asOf, err := ParseAsOf(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.deps.Transactions.Budgets(r.Context(), sess.User.ID, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(st).Write(w)
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	b, err := s.deps.Transactions.SaveBudget(r.Context(), sess.User.ID, services.BudgetInput{
		Category: p.Get("category"),
		Amount:   p.Get("amount"),
		Period:   p.Get("period"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(b).Write(w)
}
