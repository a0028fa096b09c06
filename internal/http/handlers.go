package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/services"
)

const (
	msgAdded     = "Expense added successfully!"
	msgUpdated   = "Expense updated successfully!"
	msgDeleted   = "Expense deleted successfully!"
	msgNotFound  = "Expense not found."
	msgBadForm   = "Invalid form submission."
	msgServerErr = "Something went wrong. Please try again."
)

// indexView is the data behind the dashboard page.
type indexView struct {
	services.Dashboard
	Today       string
	ChartLabels []string
	ChartData   []float64
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	d, err := s.service.Dashboard(r.Context(), ParseMonthParam(r))
	if err != nil {
		s.serverError(w, r, "Failed to load dashboard", err, applog.OpList)
		return
	}

	labels, data := core.ChartSeries(d.MonthTotals)
	s.render(w, r, http.StatusOK, pageIndex, "Expense Tracker", indexView{
		Dashboard:   d,
		Today:       s.now().Format("2006-01-02"),
		ChartLabels: labels,
		ChartData:   data,
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	form, err := ParseExpenseForm(w, r)
	if err != nil {
		ErrorResponse(http.StatusBadRequest, msgBadForm).Write(w, r)
		return
	}

	if _, err := s.service.CreateExpense(r.Context(), form); err != nil {
		if services.IsValidationError(err) {
			s.redirectWithFlash(w, r, "/", FlashDanger, core.ValidationMessage(err))
			return
		}
		s.serverError(w, r, "Failed to create expense", err, applog.OpCreate)
		return
	}

	s.redirectWithFlash(w, r, "/", FlashSuccess, msgAdded)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadExpense(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, pageEdit, "Edit Expense", e)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := PathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	form, err := ParseExpenseForm(w, r)
	if err != nil {
		ErrorResponse(http.StatusBadRequest, msgBadForm).Write(w, r)
		return
	}

	_, err = s.service.UpdateExpense(r.Context(), id, form)
	switch {
	case err == nil:
		s.redirectWithFlash(w, r, "/", FlashSuccess, msgUpdated)
	case services.IsValidationError(err):
		s.redirectWithFlash(w, r, editPath(id), FlashDanger, core.ValidationMessage(err))
	case errors.Is(err, core.ErrExpenseNotFound):
		s.redirectWithFlash(w, r, "/", FlashDanger, msgNotFound)
	default:
		s.serverError(w, r, "Failed to update expense", err, applog.OpUpdate)
	}
}

func (s *Server) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadExpense(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, pageDelete, "Delete Expense", e)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := PathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	if err := s.service.DeleteExpense(r.Context(), id); err != nil {
		s.serverError(w, r, "Failed to delete expense", err, applog.OpDelete)
		return
	}
	s.redirectWithFlash(w, r, "/", FlashSuccess, msgDeleted)
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	month := ParseMonthParam(r)
	data, err := s.service.ChartData(r.Context(), month)
	if err != nil {
		s.logError(r, "Failed to load chart data", err, applog.OpSummarize, applog.NewFields())
		NewResponse().
			Status(http.StatusInternalServerError).
			JSON(map[string]string{"error": msgServerErr}).
			Write(w, r)
		return
	}
	NewResponse().JSON(data).Write(w, r)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w, r)
}

// handleReady checks that templates are loaded and storage answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]string{"templates": "ok", "storage": "ok"}

	if len(s.pages) == 0 {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	}
	if err := s.service.Ping(ctx); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w, r)
}

// handleMetrics exposes middleware counters in plain text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	var b strings.Builder
	fmt.Fprintf(&b, "expenses_uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
	fmt.Fprintf(&b, "expenses_requests_total %d\n", traceMetrics.TotalRequests)
	fmt.Fprintf(&b, "expenses_last_request_duration_us %d\n", traceMetrics.LastDurationUs)
	fmt.Fprintf(&b, "expenses_suspicious_requests_total %d\n", securityMetrics.SuspiciousRequests)
	fmt.Fprintf(&b, "expenses_rate_limit_hits_total %d\n", rateLimitMetrics.TotalHits)
	fmt.Fprintf(&b, "expenses_rate_limit_clients %d\n", rateLimitMetrics.ClientCount)

	NewResponse().Text(b.String()).Write(w, r)
}

// loadExpense resolves the {id} path value, writing a 404 or 500 page
// when no record can be returned.
func (s *Server) loadExpense(w http.ResponseWriter, r *http.Request) (core.Expense, bool) {
	id, ok := PathID(r)
	if !ok {
		s.notFound(w, r)
		return core.Expense{}, false
	}

	e, found, err := s.service.GetExpense(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "Failed to load expense", err, applog.OpRead)
		return core.Expense{}, false
	}
	if !found {
		s.notFound(w, r)
		return core.Expense{}, false
	}
	return e, true
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, category, message string) {
	if err := s.flash.Add(w, r, category, message); err != nil {
		s.logError(r, "Failed to set flash", err, applog.OpRender, applog.NewFields())
	}
	RedirectTo(location).Write(w, r)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, pageNotFound, "Not Found", nil)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	s.logError(r, msg, err, op, applog.NewFields())
	s.render(w, r, http.StatusInternalServerError, pageError, "Error", msgServerErr)
}

func (s *Server) logError(r *http.Request, msg string, err error, op string, fields applog.LogFields) {
	if id, ok := PathID(r); ok {
		fields[applog.FieldExpenseID] = id
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogError(r.Context(), msg, err, applog.ComponentHTTP, op, fields)
}
