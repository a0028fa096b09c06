package storage

import (
	"context"

	"expenses/internal/core"
)

// Ports implemented by every storage backend.
type (
	ExpenseReader interface {
		// ListExpenses returns every expense, newest date first.
		ListExpenses(ctx context.Context) ([]core.Expense, error)
		// GetExpense returns the expense with id. A missing id is reported
		// with ok == false and a nil error.
		GetExpense(ctx context.Context, id int64) (e core.Expense, ok bool, err error)
	}

	ExpenseWriter interface {
		InsertExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
		// UpdateExpense replaces all fields of id. It reports false when no
		// row matched.
		UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) (bool, error)
		// DeleteExpense removes id. It reports false when no row matched.
		DeleteExpense(ctx context.Context, id int64) (bool, error)
	}

	// Aggregator computes category and month breakdowns.
	Aggregator interface {
		// DistinctMonths returns the YYYY-MM prefixes present, newest first.
		DistinctMonths(ctx context.Context) ([]string, error)
		// CategoryTotals sums amounts per category, restricted to dates
		// starting with month unless month is empty.
		CategoryTotals(ctx context.Context, month string) ([]core.CategoryTotal, error)
	}

	Store interface {
		ExpenseReader
		ExpenseWriter
		Aggregator
		Ping(ctx context.Context) error
		Close() error
	}
)
