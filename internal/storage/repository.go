package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"

	"expenses/internal/core"

	_ "modernc.org/sqlite"
)

const expensesTable = "expenses"

var expenseColumns = []string{"id", "amount", "category", "date"}

// SQLiteRepository persists expenses in a single SQLite table.
type SQLiteRepository struct {
	db *sql.DB
}

// DSN returns the driver connection string for a database file.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; serialise inside the process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListExpenses implements ExpenseReader. Dates sort as text.
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	query, args, err := sq.Select(expenseColumns...).
		From(expensesTable).
		OrderBy("date DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Amount, &e.Category, &e.Date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// GetExpense implements ExpenseReader.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, bool, error) {
	query, args, err := sq.Select(expenseColumns...).
		From(expensesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("build get query: %w", err)
	}

	var e core.Expense
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.Amount, &e.Category, &e.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, false, nil
	}
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("get expense by id: %w", err)
	}
	return e, true, nil
}

// InsertExpense implements ExpenseWriter.
func (r *SQLiteRepository) InsertExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	query, args, err := sq.Insert(expensesTable).
		Columns("amount", "category", "date").
		Values(in.Amount, in.Category, in.Date).
		ToSql()
	if err != nil {
		return core.Expense{}, fmt.Errorf("build insert query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("read inserted id: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", id,
		"amount", in.Amount,
		"category", in.Category,
		"date", in.Date)

	return core.Expense{ID: id, Amount: in.Amount, Category: in.Category, Date: in.Date}, nil
}

// UpdateExpense implements ExpenseWriter.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) (bool, error) {
	if err := in.Validate(); err != nil {
		return false, err
	}

	query, args, err := sq.Update(expensesTable).
		Set("amount", in.Amount).
		Set("category", in.Category).
		Set("date", in.Date).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update query: %w", err)
	}

	return r.execAffecting(ctx, "update expense", query, args)
}

// DeleteExpense implements ExpenseWriter.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	query, args, err := sq.Delete(expensesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete query: %w", err)
	}

	return r.execAffecting(ctx, "delete expense", query, args)
}

func (r *SQLiteRepository) execAffecting(ctx context.Context, op, query string, args []any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return n > 0, nil
}

// DistinctMonths implements Aggregator.
func (r *SQLiteRepository) DistinctMonths(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("DISTINCT substr(date, 1, 7) AS month").
		From(expensesTable).
		OrderBy("month DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build months query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct months: %w", err)
	}
	defer rows.Close()

	months := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate months: %w", err)
	}
	return months, nil
}

// CategoryTotals implements Aggregator. The month filter is a plain
// textual prefix comparison (no LIKE wildcards, case-sensitive).
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, month string) ([]core.CategoryTotal, error) {
	q := sq.Select("category", "SUM(amount) AS total").
		From(expensesTable).
		GroupBy("category").
		OrderBy("category")
	if month != "" {
		q = q.Where("substr(date, 1, ?) = ?", utf8.RuneCountInString(month), month)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build totals query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category totals (month=%q): %w", month, err)
	}
	defer rows.Close()

	totals := []core.CategoryTotal{}
	for rows.Next() {
		var t core.CategoryTotal
		if err := rows.Scan(&t.Category, &t.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}
	return totals, nil
}

// Compile-time check.
var _ Store = (*SQLiteRepository)(nil)
