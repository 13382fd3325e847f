// Package web carries the page templates and static assets compiled into
// the server binary.
package web

import "embed"

// TemplatesFS holds the pages and the htmx partials they are built from.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS is served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
