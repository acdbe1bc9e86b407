package storage

import (
	"context"
	"fmt"
	"log/slog"

	"spence/internal/core"
)

// ListExpenses returns all expenses owned by userID, newest date first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, amount_cents, category, date
		 FROM expenses WHERE user_id = ?
		 ORDER BY date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty result marshals as [] rather than null.
	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, userID int64, in core.ExpenseInput) (core.Expense, error) {
	var (
		e       core.Expense
		dateStr string
	)
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO expenses (user_id, title, amount_cents, category, date)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id, user_id, title, amount_cents, category, date`,
		userID, in.Title, in.Amount.Cents, in.Category, in.Date.String(),
	).Scan(&e.ID, &e.UserID, &e.Title, &e.Amount.Cents, &e.Category, &dateStr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	if e.Date, err = core.ParseDate(dateStr); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: bad stored date %q: %w", dateStr, err)
	}

	slog.InfoContext(ctx, "Expense created",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return e, nil
}

// UpdateExpense overwrites all mutable fields of the expense identified by
// (id, userID). core.ErrNotFound when no owned row matches.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id, userID int64, in core.ExpenseInput) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET title = ?, amount_cents = ?, category = ?, date = ?
		 WHERE id = ? AND user_id = ?`,
		in.Title, in.Amount.Cents, in.Category, in.Date.String(), id, userID,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if affected == 0 {
		return core.Expense{}, core.ErrNotFound
	}

	return core.Expense{
		ID:       id,
		UserID:   userID,
		Title:    in.Title,
		Amount:   in.Amount,
		Category: in.Category,
		Date:     in.Date,
	}, nil
}

// DeleteExpense removes the expense identified by (id, userID).
// core.ErrNotFound when no owned row matches.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id, "user_id", userID)
	return nil
}

// SummaryByCategory sums owned expense amounts grouped by the category
// string. Categories differing only in case or whitespace are distinct keys.
func (r *SQLiteRepository) SummaryByCategory(ctx context.Context, userID int64) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents)
		 FROM expenses WHERE user_id = ?
		 GROUP BY category`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("summary by category: %w", err)
	}
	defer rows.Close()

	totals := []core.CategoryTotal{}
	for rows.Next() {
		var t core.CategoryTotal
		if err := rows.Scan(&t.Category, &t.Total.Cents); err != nil {
			return nil, fmt.Errorf("summary by category: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summary by category: %w", err)
	}
	return totals, nil
}

// SummaryByMonth sums owned expense amounts grouped by the year-month of the
// expense date, ascending by month.
func (r *SQLiteRepository) SummaryByMonth(ctx context.Context, userID int64) ([]core.MonthTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', date) AS month, SUM(amount_cents)
		 FROM expenses WHERE user_id = ?
		 GROUP BY month
		 ORDER BY month ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("summary by month: %w", err)
	}
	defer rows.Close()

	totals := []core.MonthTotal{}
	for rows.Next() {
		var (
			t     core.MonthTotal
			month string
		)
		if err := rows.Scan(&month, &t.Total.Cents); err != nil {
			return nil, fmt.Errorf("summary by month: %w", err)
		}
		t.Month = core.Month(month)
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summary by month: %w", err)
	}
	return totals, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e       core.Expense
		dateStr string
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount.Cents, &e.Category, &dateStr); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: bad stored date %q: %w", dateStr, err)
	}
	e.Date = date
	return e, nil
}
