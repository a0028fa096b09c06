package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
	appweb "expenses/web"
)

// ExpenseService is the slice of services.ExpenseService the handlers use.
type ExpenseService interface {
	Dashboard(ctx context.Context, requestedMonth string) (services.Dashboard, error)
	ChartData(ctx context.Context, month string) (services.ChartData, error)
	CreateExpense(ctx context.Context, form core.ExpenseForm) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, bool, error)
	UpdateExpense(ctx context.Context, id int64, form core.ExpenseForm) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

var _ ExpenseService = (*services.ExpenseService)(nil)

// Options tunes the server. Zero values pick the defaults.
type Options struct {
	FlashSecret        string
	RateLimitPerMinute int
	Logger             *applog.Logger
	// Now overrides the clock used for the default date on the add form.
	Now func() time.Time
}

type Server struct {
	http.Server
	service ExpenseService
	pages   map[string]*template.Template
	flash   *flashStore
	logger  *applog.Logger
	now     func() time.Time
	started time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, svc ExpenseService, opts Options) (*Server, error) {
	if svc == nil {
		return nil, errors.New("expense service is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	pages, err := parsePages(appweb.TemplatesFS)
	if err != nil {
		return nil, err
	}

	flash, err := newFlashStore(opts.FlashSecret)
	if err != nil {
		return nil, err
	}

	limitCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	detector := security.NewDetector()

	s := &Server{
		service:          svc,
		pages:            pages,
		flash:            flash,
		logger:           logger,
		now:              now,
		started:          time.Now(),
		rateLimiter:      ratelimit.NewLimiter(limitCfg),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		s.rateLimiter.Stop()
		return nil, err
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	// Outermost first: tracing puts the request logger in the context for
	// everything below it.
	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, http.MethodPost)(handler)
	handler = detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /add", s.handleAdd)
	mux.HandleFunc("GET /edit/{id}", s.handleEditForm)
	mux.HandleFunc("POST /edit/{id}", s.handleUpdate)
	mux.HandleFunc("GET /delete/{id}", s.handleDeleteConfirm)
	mux.HandleFunc("POST /delete/{id}", s.handleDelete)
	mux.HandleFunc("GET /chart-data", s.handleChartData)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	return nil
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
