package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "expenses/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Output: &buf})
	m := NewMiddleware(logger, func(*http.Request) string { return "7.7.7.7" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		applog.FromContext(r.Context()).InfoContext(r.Context(), "handler ran")
		w.WriteHeader(http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/edit/9", nil))

	if !strings.HasPrefix(seen, "req_") || len(seen) != len("req_")+16 {
		t.Fatalf("unexpected request id %q", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header %q != context id %q", rr.Header().Get(HeaderRequestID), seen)
	}

	out := buf.String()
	if strings.Count(out, "request_id="+seen) < 3 {
		t.Fatalf("request id missing from start, handler or end logs: %q", out)
	}
	if !strings.Contains(out, "status_code=404") || !strings.Contains(out, "level=WARN") {
		t.Fatalf("completion log should record 404 at WARN: %q", out)
	}
	if !strings.Contains(out, "client_ip=7.7.7.7") {
		t.Fatalf("client ip not logged: %q", out)
	}
	if m.GetMetrics().TotalRequests != 1 {
		t.Fatalf("TotalRequests = %d", m.GetMetrics().TotalRequests)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if got := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
