// Package http provides HTTP server and handler implementations.
//
// This file implements a small fluent builder for non-HTML responses:
// JSON bodies, plain text and redirects.

package http

import (
	"encoding/json"
	"net/http"
)

// ResponseBuilder provides a fluent API for building responses.
type ResponseBuilder struct {
	statusCode int
	body       []byte
	headers    map[string]string
	location   string
	err        error
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON encodes v as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.headers["Content-Type"] = "application/json"
	b.body, b.err = json.Marshal(v)
	return b
}

// Text sets a plain text body.
func (b *ResponseBuilder) Text(content string) *ResponseBuilder {
	b.headers["Content-Type"] = "text/plain; charset=utf-8"
	b.body = []byte(content)
	return b
}

// Redirect turns the response into a 303 See Other to location, so the
// browser follows up with a GET.
func (b *ResponseBuilder) Redirect(location string) *ResponseBuilder {
	b.location = location
	b.statusCode = http.StatusSeeOther
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	if b.err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.location != "" {
		http.Redirect(w, r, b.location, b.statusCode)
		return
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates a plain text error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).Text(message)
}

// RedirectTo is a convenience for NewResponse().Redirect(location).
func RedirectTo(location string) *ResponseBuilder {
	return NewResponse().Redirect(location)
}
