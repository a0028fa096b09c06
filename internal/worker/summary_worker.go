package worker

import (
	"context"
	"fmt"
	"sync"

	"expenses/internal/amqp"
	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/storage"
)

// MonthSummary is the per-month breakdown recomputed after each change.
type MonthSummary struct {
	Month       string
	Total       float64
	TopCategory string
	Categories  int
}

// SummaryWorker keeps month summaries current by reacting to expense
// change events. It reads state from storage and never writes.
type SummaryWorker struct {
	store  storage.Aggregator
	logger *applog.Logger

	mu        sync.RWMutex
	summaries map[string]MonthSummary
}

func NewSummaryWorker(store storage.Aggregator, logger *applog.Logger) *SummaryWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &SummaryWorker{
		store:     store,
		logger:    logger.WithComponent(applog.ComponentWorker),
		summaries: make(map[string]MonthSummary),
	}
}

// HandleEvent processes a single change event from AMQP.
func (w *SummaryWorker) HandleEvent(ctx context.Context, event amqp.ExpenseEvent) error {
	w.logger.DebugContext(ctx, "Processing expense event",
		"event_id", event.EventID,
		applog.FieldEventType, event.Type,
		applog.FieldExpenseID, event.ID,
		applog.FieldMonth, event.Month)

	s, err := w.Summarize(ctx, event.Month)
	if err != nil {
		return fmt.Errorf("summarize %s after %s: %w", event.Month, event.Type, err)
	}

	w.logger.InfoContext(ctx, "Month summary updated",
		applog.FieldEventType, event.Type,
		applog.FieldExpenseID, event.ID,
		applog.FieldMonth, s.Month,
		"total", core.FormatAmount(s.Total),
		"top_category", s.TopCategory,
		"categories", s.Categories)
	return nil
}

// Summarize recomputes and caches the summary for month.
func (w *SummaryWorker) Summarize(ctx context.Context, month string) (MonthSummary, error) {
	totals, err := w.store.CategoryTotals(ctx, month)
	if err != nil {
		return MonthSummary{}, err
	}

	s := MonthSummary{
		Month:       month,
		TopCategory: core.HighestCategory(totals),
		Categories:  len(totals),
	}
	for _, t := range totals {
		s.Total += t.Total
	}

	w.mu.Lock()
	if s.Categories == 0 {
		delete(w.summaries, month)
	} else {
		w.summaries[month] = s
	}
	w.mu.Unlock()

	return s, nil
}

// StartupSummary summarizes every month already in storage so the worker
// starts warm after downtime or missed messages.
func (w *SummaryWorker) StartupSummary(ctx context.Context) error {
	months, err := w.store.DistinctMonths(ctx)
	if err != nil {
		return fmt.Errorf("list months for startup summary: %w", err)
	}

	if len(months) == 0 {
		w.logger.InfoContext(ctx, "No expenses found on startup")
		return nil
	}

	for _, m := range months {
		if _, err := w.Summarize(ctx, m); err != nil {
			return fmt.Errorf("startup summary %s: %w", m, err)
		}
	}

	w.logger.InfoContext(ctx, "Startup summary completed", "months", len(months))
	return nil
}

// Summary returns the cached summary for month.
func (w *SummaryWorker) Summary(month string) (MonthSummary, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s, ok := w.summaries[month]
	return s, ok
}
