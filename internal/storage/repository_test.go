package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"expenses/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "expenses.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seed(t *testing.T, repo *SQLiteRepository, inputs ...core.ExpenseInput) []core.Expense {
	t.Helper()
	out := make([]core.Expense, 0, len(inputs))
	for _, in := range inputs {
		e, err := repo.InsertExpense(context.Background(), in)
		if err != nil {
			t.Fatalf("insert %+v: %v", in, err)
		}
		out = append(out, e)
	}
	return out
}

func sampleDataset() []core.ExpenseInput {
	return []core.ExpenseInput{
		{Amount: 10, Category: "food", Date: "2024-01-05"},
		{Amount: 5, Category: "food", Date: "2024-01-20"},
		{Amount: 7, Category: "transit", Date: "2024-02-01"},
	}
}

func TestInsertThenListIsImmediatelyVisible(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := seed(t, repo, core.ExpenseInput{Amount: 12.5, Category: "books", Date: "2024-05-01"})[0]
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	list, err := repo.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0] != created {
		t.Fatalf("list = %+v, want [%+v]", list, created)
	}

	other := seed(t, repo, core.ExpenseInput{Amount: 1, Category: "books", Date: "2024-05-01"})[0]
	if other.ID == created.ID {
		t.Fatalf("ids must be unique")
	}
}

func TestListOrdersByDateTextDescending(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo,
		core.ExpenseInput{Amount: 1, Category: "a", Date: "2024-01-05"},
		core.ExpenseInput{Amount: 1, Category: "b", Date: "2024-13-99"},
		core.ExpenseInput{Amount: 1, Category: "c", Date: "2023-12-31"},
	)

	list, err := repo.ListExpenses(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var dates []string
	for _, e := range list {
		dates = append(dates, e.Date)
	}
	want := []string{"2024-13-99", "2024-01-05", "2023-12-31"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
}

func TestGetUpdateDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := seed(t, repo, core.ExpenseInput{Amount: 3, Category: "coffee", Date: "2024-02-02"})[0]

	got, ok, err := repo.GetExpense(ctx, e.ID)
	if err != nil || !ok || got != e {
		t.Fatalf("GetExpense = %+v ok=%v err=%v", got, ok, err)
	}

	updated, err := repo.UpdateExpense(ctx, e.ID, core.ExpenseInput{Amount: 4.5, Category: "tea", Date: "2024-02-03"})
	if err != nil || !updated {
		t.Fatalf("update: ok=%v err=%v", updated, err)
	}
	got, _, _ = repo.GetExpense(ctx, e.ID)
	want := core.Expense{ID: e.ID, Amount: 4.5, Category: "tea", Date: "2024-02-03"}
	if got != want {
		t.Fatalf("after update got %+v, want %+v", got, want)
	}

	deleted, err := repo.DeleteExpense(ctx, e.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: ok=%v err=%v", deleted, err)
	}
	if _, ok, err := repo.GetExpense(ctx, e.ID); ok || err != nil {
		t.Fatalf("expected absent after delete, ok=%v err=%v", ok, err)
	}
	list, _ := repo.ListExpenses(ctx)
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}
}

func TestMissingIDIsNoOp(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seed(t, repo, core.ExpenseInput{Amount: 3, Category: "coffee", Date: "2024-02-02"})

	if _, ok, err := repo.GetExpense(ctx, 404); ok || err != nil {
		t.Fatalf("expected absent, ok=%v err=%v", ok, err)
	}
	if ok, err := repo.UpdateExpense(ctx, 404, core.ExpenseInput{Amount: 1, Category: "x", Date: "y"}); ok || err != nil {
		t.Fatalf("expected no-op update, ok=%v err=%v", ok, err)
	}
	if ok, err := repo.DeleteExpense(ctx, 404); ok || err != nil {
		t.Fatalf("expected no-op delete, ok=%v err=%v", ok, err)
	}
	list, _ := repo.ListExpenses(ctx)
	if len(list) != 1 {
		t.Fatalf("no-op calls changed the table: %+v", list)
	}
}

func TestInvalidInputLeavesTableUnchanged(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.InsertExpense(ctx, core.ExpenseInput{Amount: 0, Category: "x", Date: "2024-01-01"}); !errors.Is(err, core.ErrNonPositiveAmount) {
		t.Fatalf("expected ErrNonPositiveAmount, got %v", err)
	}
	list, _ := repo.ListExpenses(ctx)
	if len(list) != 0 {
		t.Fatalf("invalid insert reached the table")
	}
}

func TestAggregations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seed(t, repo, sampleDataset()...)

	months, err := repo.DistinctMonths(ctx)
	if err != nil {
		t.Fatalf("months: %v", err)
	}
	if !reflect.DeepEqual(months, []string{"2024-02", "2024-01"}) {
		t.Fatalf("DistinctMonths = %v", months)
	}

	jan, err := repo.CategoryTotals(ctx, "2024-01")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if !reflect.DeepEqual(jan, []core.CategoryTotal{{Category: "food", Total: 15}}) {
		t.Fatalf("January totals = %+v", jan)
	}

	all, _ := repo.CategoryTotals(ctx, "")
	want := []core.CategoryTotal{{Category: "food", Total: 15}, {Category: "transit", Total: 7}}
	if !reflect.DeepEqual(all, want) {
		t.Fatalf("all-time totals = %+v", all)
	}
	if got := core.HighestCategory(all); got != "food" {
		t.Fatalf("HighestCategory = %q", got)
	}
}

func TestAggregationsMatchPureFunctions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seed(t, repo,
		core.ExpenseInput{Amount: 2, Category: "Food", Date: "2024-01-01"},
		core.ExpenseInput{Amount: 3, Category: "food", Date: "2024-01-02"},
		core.ExpenseInput{Amount: 4, Category: "misc", Date: "2024"},
		core.ExpenseInput{Amount: 5, Category: "misc", Date: "2024-01_x"},
		core.ExpenseInput{Amount: 6, Category: "misc", Date: "2024%01-09"},
	)

	list, _ := repo.ListExpenses(ctx)

	months, _ := repo.DistinctMonths(ctx)
	if want := core.DistinctMonths(list); !reflect.DeepEqual(months, want) {
		t.Fatalf("SQL months %v != pure months %v", months, want)
	}

	for _, month := range []string{"", "2024-01", "2024", "2024%", "2024-01_"} {
		got, err := repo.CategoryTotals(ctx, month)
		if err != nil {
			t.Fatalf("totals(%q): %v", month, err)
		}
		want := core.CategoryTotals(list, month)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("month %q: SQL totals %+v != pure totals %+v", month, got, want)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seed(t, repo, core.ExpenseInput{Amount: 9, Category: "rent", Date: "2024-04-01"})
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	list, _ := repo.ListExpenses(context.Background())
	if len(list) != 1 || list[0].Category != "rent" {
		t.Fatalf("data lost on reopen: %+v", list)
	}
}
