package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

const baseTemplate = "templates/base.html"

// Page templates, each parsed together with the base layout.
const (
	pageIndex    = "index.html"
	pageEdit     = "edit.html"
	pageDelete   = "delete.html"
	pageNotFound = "not_found.html"
	pageError    = "error.html"
)

var pageNames = []string{pageIndex, pageEdit, pageDelete, pageNotFound, pageError}

var templateFuncs = template.FuncMap{
	"amount": core.FormatAmount,
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// parsePages builds one template set per page so each can define its own
// "title" and "content" blocks.
func parsePages(fsys fs.FS) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("base.html").Funcs(templateFuncs).ParseFS(fsys, baseTemplate, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// pageData is what every page template receives.
type pageData struct {
	Title   string
	Flashes []Flash
	Data    any
}

// render executes a page into a buffer first so a template failure can
// still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	t, ok := s.pages[name]
	if !ok {
		s.logger.ErrorContext(r.Context(), "Template not found", applog.FieldOperation, applog.OpRender, "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pd := pageData{
		Title:   title,
		Flashes: s.flash.Pop(w, r),
		Data:    data,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base.html", pd); err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(), "Template execution failed", err,
			applog.ComponentTemplate, applog.OpRender, applog.NewFields())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
