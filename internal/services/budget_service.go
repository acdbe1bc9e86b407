package services

import (
	"context"
	"fmt"

	"spence/internal/core"
)

// BudgetRepository is the storage surface the budget register needs.
type BudgetRepository interface {
	ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
	BudgetByMonth(ctx context.Context, userID int64, month core.Month) (core.Budget, error)
	UpsertBudget(ctx context.Context, userID int64, in core.BudgetInput) (core.Budget, error)
}

// BudgetService implements the budget register: one amount per (user, month)
// with upsert semantics.
type BudgetService struct {
	repo BudgetRepository
}

func NewBudgetService(repo BudgetRepository) *BudgetService {
	return &BudgetService{repo: repo}
}

func (s *BudgetService) List(ctx context.Context, userID int64) ([]core.Budget, error) {
	budgets, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// GetByMonth returns the owned budget for month, or core.ErrNotFound.
func (s *BudgetService) GetByMonth(ctx context.Context, userID int64, month core.Month) (core.Budget, error) {
	if err := month.Validate(); err != nil {
		return core.Budget{}, core.ErrNotFound
	}

	budget, err := s.repo.BudgetByMonth(ctx, userID, month)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", month, err)
	}
	return budget, nil
}

// Upsert creates or overwrites the budget for (userID, month). The write is
// atomic at the storage layer, keyed on the (user, month) uniqueness
// constraint.
func (s *BudgetService) Upsert(ctx context.Context, userID int64, in core.BudgetInput) (core.Budget, error) {
	if err := in.Validate(); err != nil {
		return core.Budget{}, err
	}

	budget, err := s.repo.UpsertBudget(ctx, userID, in)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget %s: %w", in.Month, err)
	}
	return budget, nil
}
