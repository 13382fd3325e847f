// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for reading HTMX request metadata and
// form drafts.

package http

import (
	"net/http"
	"net/url"
	"strings"
)

// IsHTMX reports whether r was issued by htmx rather than by a plain
// navigation or form post.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderHXRequest) == "true"
}

// Location returns the page the request belongs to. Partial requests carry
// it in HX-Current-URL; a plain GET is its own location. Anything else
// falls back to fallback.
func Location(r *http.Request, fallback string) string {
	if raw := r.Header.Get(HeaderHXCurrentURL); raw != "" {
		if u, err := url.Parse(raw); err == nil && u.Path != "" {
			return u.RequestURI()
		}
	}
	if r.Method == http.MethodGet && !IsHTMX(r) {
		return r.URL.RequestURI()
	}
	return fallback
}

// TriggerField returns the name of the input that fired the request,
// preferring the htmx header over an explicit "field" form value.
func TriggerField(r *http.Request) string {
	if name := r.Header.Get(HeaderHXTriggerBy); name != "" {
		return name
	}
	return r.PostFormValue("field")
}

// FieldValues picks the posted values of the allowed fields. Fields that
// were not posted are left out so they keep their draft value.
func FieldValues(form url.Values, allowed []string) map[string]string {
	values := make(map[string]string)
	for _, name := range allowed {
		if _, ok := form[name]; ok {
			values[name] = sanitizeInput(form.Get(name))
		}
	}
	return values
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Malformed request")
	}
	return nil
}

// sanitizeInput removes control characters except tab, newline and
// carriage return. Whitespace is kept; trimming is up to the schema.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
