package http

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"spence/internal/core"
)

// expenseRequest is the wire shape of a create or update. Amount and date
// arrive as loose JSON and are tightened into domain types here; conversion
// failures leave zero values for the input validator to report field by field.
type expenseRequest struct {
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     string          `json:"date"`
}

func (req expenseRequest) toInput() core.ExpenseInput {
	in := core.ExpenseInput{
		Title:    req.Title,
		Category: req.Category,
	}
	if amount, err := core.MoneyFromDecimal(req.Amount); err == nil {
		in.Amount = amount
	}
	if date, err := core.ParseDate(req.Date); err == nil {
		in.Date = date
	}
	return in
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenses, err := s.expenses.List(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	expense, err := s.expenses.Create(r.Context(), uid, req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := expenseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	expense, err := s.expenses.Update(r.Context(), id, uid, req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := expenseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.expenses.Delete(r.Context(), id, uid); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummaryByCategory(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals, err := s.expenses.SummaryByCategory(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}

func (s *Server) handleSummaryByMonth(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals, err := s.expenses.SummaryByMonth(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}

func expenseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Fields: map[string]string{"id": "id must be a positive integer"}}
	}
	return id, nil
}
