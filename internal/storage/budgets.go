package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"spence/internal/core"
)

// ListBudgets returns all budgets owned by userID, ascending by month.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, month, amount_cents
		 FROM budgets WHERE user_id = ?
		 ORDER BY month ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Month, &b.Amount.Cents); err != nil {
			return nil, fmt.Errorf("list budgets: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// BudgetByMonth returns the budget for (userID, month), or core.ErrNotFound.
func (r *SQLiteRepository) BudgetByMonth(ctx context.Context, userID int64, month core.Month) (core.Budget, error) {
	var b core.Budget
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, month, amount_cents FROM budgets
		 WHERE user_id = ? AND month = ?`,
		userID, month,
	).Scan(&b.ID, &b.UserID, &b.Month, &b.Amount.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget by month: %w", err)
	}
	return b, nil
}

// UpsertBudget creates or overwrites the budget for (userID, month) as a
// single conditional write guarded by the (user_id, month) uniqueness
// constraint, so concurrent upserts for the same key can never produce two
// rows.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, userID int64, in core.BudgetInput) (core.Budget, error) {
	var b core.Budget
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO budgets (user_id, month, amount_cents) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, month) DO UPDATE SET amount_cents = excluded.amount_cents
		 RETURNING id, user_id, month, amount_cents`,
		userID, in.Month, in.Amount.Cents,
	).Scan(&b.ID, &b.UserID, &b.Month, &b.Amount.Cents)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget upserted",
		"id", b.ID,
		"user_id", b.UserID,
		"month", b.Month.String(),
		"amount_cents", b.Amount.Cents)
	return b, nil
}
