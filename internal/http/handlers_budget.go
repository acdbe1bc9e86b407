package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"spence/internal/core"
)

type budgetRequest struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

func (req budgetRequest) toInput() core.BudgetInput {
	in := core.BudgetInput{Month: core.Month(req.Month)}
	if amount, err := core.MoneyFromDecimal(req.Amount); err == nil {
		in.Amount = amount
	}
	return in
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	budgets, err := s.budgets.List(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// A malformed month cannot name an existing budget, so it reads as 404
	// rather than 400.
	month, err := core.ParseMonth(r.PathValue("month"))
	if err != nil {
		writeError(w, r, core.ErrNotFound)
		return
	}
	budget, err := s.budgets.GetByMonth(r.Context(), uid, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, budget)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := s.budgets.Upsert(r.Context(), uid, req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, budget)
}
