// Package services holds the business operations over the repositories.
// Validation happens here, before any persistence attempt; ownership scoping
// happens in the repository query predicates.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"spence/internal/core"
)

// ExpenseRepository is the storage surface the expense ledger needs.
type ExpenseRepository interface {
	ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
	CreateExpense(ctx context.Context, userID int64, in core.ExpenseInput) (core.Expense, error)
	UpdateExpense(ctx context.Context, id, userID int64, in core.ExpenseInput) (core.Expense, error)
	DeleteExpense(ctx context.Context, id, userID int64) error
	SummaryByCategory(ctx context.Context, userID int64) ([]core.CategoryTotal, error)
	SummaryByMonth(ctx context.Context, userID int64) ([]core.MonthTotal, error)
}

// ExpenseService implements the expense ledger: CRUD plus the two read-only
// aggregations, all scoped to the owning user.
type ExpenseService struct {
	repo ExpenseRepository
}

func NewExpenseService(repo ExpenseRepository) *ExpenseService {
	return &ExpenseService{repo: repo}
}

func (s *ExpenseService) List(ctx context.Context, userID int64) ([]core.Expense, error) {
	expenses, err := s.repo.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (s *ExpenseService) Create(ctx context.Context, userID int64, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	expense, err := s.repo.CreateExpense(ctx, userID, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return expense, nil
}

// Update overwrites all mutable fields of an owned expense. core.ErrNotFound
// when the id does not exist or belongs to another user.
func (s *ExpenseService) Update(ctx context.Context, id, userID int64, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	expense, err := s.repo.UpdateExpense(ctx, id, userID, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Expense updated", "id", id, "user_id", userID)
	return expense, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id, userID int64) error {
	if err := s.repo.DeleteExpense(ctx, id, userID); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return nil
}

func (s *ExpenseService) SummaryByCategory(ctx context.Context, userID int64) ([]core.CategoryTotal, error) {
	totals, err := s.repo.SummaryByCategory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("summary by category: %w", err)
	}
	return totals, nil
}

func (s *ExpenseService) SummaryByMonth(ctx context.Context, userID int64) ([]core.MonthTotal, error) {
	totals, err := s.repo.SummaryByMonth(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("summary by month: %w", err)
	}
	return totals, nil
}
