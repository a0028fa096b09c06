// Package memory provides an in-process expense store used by the memory
// backend and by tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"expenses/internal/core"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
}

func New() *Store {
	return &Store{nextID: 1}
}

// NewWithExpenses seeds the store; ids are assigned in order.
func NewWithExpenses(seed ...core.ExpenseInput) *Store {
	s := New()
	for _, in := range seed {
		s.items = append(s.items, core.Expense{ID: s.nextID, Amount: in.Amount, Category: in.Category, Date: in.Date})
		s.nextID++
	}
	return s
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	out := append([]core.Expense(nil), s.items...)
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	if out == nil {
		out = []core.Expense{}
	}
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true, nil
	}
	return core.Expense{}, false, nil
}

func (s *Store) InsertExpense(_ context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := core.Expense{ID: s.nextID, Amount: in.Amount, Category: in.Category, Date: in.Date}
	s.nextID++
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, id int64, in core.ExpenseInput) (bool, error) {
	if err := in.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.items[i] = core.Expense{ID: id, Amount: in.Amount, Category: in.Category, Date: in.Date}
	return true, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true, nil
}

func (s *Store) DistinctMonths(ctx context.Context) ([]string, error) {
	items, _ := s.ListExpenses(ctx)
	return core.DistinctMonths(items), nil
}

func (s *Store) CategoryTotals(ctx context.Context, month string) ([]core.CategoryTotal, error) {
	items, _ := s.ListExpenses(ctx)
	return core.CategoryTotals(items, month), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Len returns the number of stored expenses.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id int64) int {
	for i, e := range s.items {
		if e.ID == id {
			return i
		}
	}
	return -1
}

