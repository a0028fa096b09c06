package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/storage"
)

// EventPublisher delivers change notifications after a successful write.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event amqp.ExpenseEvent) error
}

// Dashboard is everything the index page renders.
type Dashboard struct {
	Expenses        []core.Expense
	Months          []string
	SelectedMonth   string
	HasMonth        bool
	MonthTotals     []core.CategoryTotal
	AllTimeTotals   []core.CategoryTotal
	CurrentMonth    string
	MonthlyTotal    float64
	HighestCategory string
}

// ChartData is the JSON body of the chart endpoint.
type ChartData struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// ExpenseService orchestrates expense operations across storage and AMQP
type ExpenseService struct {
	storage   storage.Store
	publisher EventPublisher
	logger    *applog.StructuredLogger
	now       func() time.Time
}

// Option configures an ExpenseService.
type Option func(*ExpenseService)

// WithPublisher enables change events.
func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

// WithLogger sets the logger used for write and publish records.
func WithLogger(l *applog.Logger) Option {
	return func(s *ExpenseService) { s.logger = applog.NewStructuredLogger(l) }
}

func NewExpenseService(store storage.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		storage: store,
		logger:  applog.NewStructuredLogger(applog.Discard()),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dashboard loads the records and aggregates for the index page. A
// requested month is honoured only if some expense falls in it; otherwise
// the current month, then the newest month, is selected.
func (s *ExpenseService) Dashboard(ctx context.Context, requestedMonth string) (Dashboard, error) {
	var d Dashboard
	d.CurrentMonth = core.CurrentMonth(s.now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		expenses, err := s.storage.ListExpenses(gctx)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		d.Expenses = expenses
		return nil
	})
	g.Go(func() error {
		months, err := s.storage.DistinctMonths(gctx)
		if err != nil {
			return fmt.Errorf("distinct months: %w", err)
		}
		d.Months = months
		return nil
	})
	g.Go(func() error {
		totals, err := s.storage.CategoryTotals(gctx, "")
		if err != nil {
			return fmt.Errorf("all-time totals: %w", err)
		}
		d.AllTimeTotals = totals
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.SelectedMonth, d.HasMonth = selectMonth(d.Months, requestedMonth, d.CurrentMonth)
	d.MonthTotals = []core.CategoryTotal{}
	if d.HasMonth {
		totals, err := s.storage.CategoryTotals(ctx, d.SelectedMonth)
		if err != nil {
			return Dashboard{}, fmt.Errorf("month totals: %w", err)
		}
		d.MonthTotals = totals
	}

	d.MonthlyTotal = core.MonthlyTotal(d.Expenses, d.CurrentMonth)
	d.HighestCategory = core.HighestCategory(d.AllTimeTotals)
	return d, nil
}

func selectMonth(available []string, requested, current string) (string, bool) {
	if requested != "" {
		for _, m := range available {
			if m == requested {
				return m, true
			}
		}
	}
	return core.SelectDefaultMonth(available, current)
}

// ChartData returns parallel label and value arrays for month, or for all
// records when month is empty.
func (s *ExpenseService) ChartData(ctx context.Context, month string) (ChartData, error) {
	totals, err := s.storage.CategoryTotals(ctx, month)
	if err != nil {
		return ChartData{}, fmt.Errorf("chart totals: %w", err)
	}
	labels, data := core.ChartSeries(totals)
	return ChartData{Labels: labels, Data: data}, nil
}

// CreateExpense validates the form, saves the record and publishes a
// created event.
func (s *ExpenseService) CreateExpense(ctx context.Context, form core.ExpenseForm) (core.Expense, error) {
	in, err := form.Parse()
	if err != nil {
		return core.Expense{}, err
	}

	e, err := s.storage.InsertExpense(ctx, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.logger.LogExpenseSaved(ctx, applog.OpCreate, e)

	s.publish(ctx, amqp.EventExpenseCreated, e)
	return e, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, bool, error) {
	e, ok, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("get expense: %w", err)
	}
	return e, ok, nil
}

// UpdateExpense replaces every field of id. It returns
// core.ErrExpenseNotFound when the record no longer exists.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, form core.ExpenseForm) (core.Expense, error) {
	in, err := form.Parse()
	if err != nil {
		return core.Expense{}, err
	}

	ok, err := s.storage.UpdateExpense(ctx, id, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if !ok {
		return core.Expense{}, core.ErrExpenseNotFound
	}

	e := core.Expense{ID: id, Amount: in.Amount, Category: in.Category, Date: in.Date}
	s.logger.LogExpenseSaved(ctx, applog.OpUpdate, e)

	s.publish(ctx, amqp.EventExpenseUpdated, e)
	return e, nil
}

// DeleteExpense removes id. Deleting a missing id is a no-op.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	// Read first so the event can name the affected month.
	e, found, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}
	if !found {
		return nil
	}

	removed, err := s.storage.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if !removed {
		return nil
	}
	s.logger.LogExpenseSaved(ctx, applog.OpDelete, e)

	s.publish(ctx, amqp.EventExpenseDeleted, e)
	return nil
}

// Ping reports whether the storage backend is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// publish never fails the caller; the write has already succeeded.
func (s *ExpenseService) publish(ctx context.Context, t amqp.EventType, e core.Expense) {
	if s.publisher == nil {
		return
	}
	event := amqp.NewExpenseEvent(t, e, s.now())
	if err := s.publisher.PublishExpenseEvent(ctx, event); err != nil {
		s.logger.LogError(ctx, "Failed to publish expense event", err, applog.ComponentAMQP, applog.OpPublish,
			applog.NewFields().WithExpense(e.ID, e.Amount, e.Category, e.Date))
	}
}

// IsValidationError reports whether err comes from form validation.
func IsValidationError(err error) bool {
	return errors.Is(err, core.ErrMissingFields) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrNonPositiveAmount)
}
