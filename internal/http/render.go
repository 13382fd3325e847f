package http

import (
	"net/http"

	"github.com/samber/lo"

	"freedom/internal/form"
	"freedom/internal/log"
	"freedom/internal/recovery"
	"freedom/internal/session"
	"freedom/internal/view"
)

type Layout struct {
	Title         string
	Authenticated bool
}

// formPartial binds a form's render state to the endpoints serving it.
type formPartial struct {
	*view.FormView
	Action   string
	Validate string
	Cancel   string
	Target   string
}

type headerPartial struct {
	View view.AccountHeaderView
	Form *formPartial
}

type fundsPartial struct {
	View view.FundListView
	Form *formPartial
}

type accountPage struct {
	Layout
	Header headerPartial
	Funds  fundsPartial
}

type loginPage struct {
	Layout
	Form formPartial
}

type errorPage struct {
	Layout
	Message string
}

type notFoundPage struct {
	Layout
	Path string
}

func newHeaderPartial(v view.AccountHeaderView) headerPartial {
	p := headerPartial{View: v}
	if v.Form != nil {
		p.Form = &formPartial{
			FormView: v.Form,
			Action:   "/account",
			Validate: "/account/validate",
			Cancel:   "/account/cancel",
			Target:   "#account-header",
		}
	}
	return p
}

func newFundsPartial(v view.FundListView) fundsPartial {
	p := fundsPartial{View: v}
	if v.Form != nil {
		p.Form = &formPartial{
			FormView: v.Form,
			Action:   "/funds",
			Validate: "/funds/validate",
			Cancel:   "/funds/cancel",
			Target:   "#funds",
		}
	}
	return p
}

func newLoginPartial(f *form.Form[string]) formPartial {
	return formPartial{
		FormView: view.NewFormView(f),
		Action:   "/login",
		Validate: "/login/validate",
		Target:   "#login-form",
	}
}

func (s *Server) pageLayout(r *http.Request, title string) Layout {
	l := Layout{Title: title}
	if b := browserFrom(r.Context()); b != nil {
		l.Authenticated = b.Data.Current().Authenticated()
	}
	return l
}

// respond renders the named template into resp and writes it.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		InternalServerError("templates not loaded").Write(w)
		return
	}
	if err := resp.BodyTemplate(s.templates, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", name)
		InternalServerError("Failed to render page").Write(w)
		return
	}
	resp.Write(w)
}

// partial writes an htmx fragment. Plain form posts are redirected back to
// the page instead, which renders the same server side state in full.
func (s *Server) partial(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, name string, data any) {
	if !IsHTMX(r) {
		http.Redirect(w, r, Location(r, recovery.DefaultPath), http.StatusSeeOther)
		return
	}
	s.respond(w, r, resp, name, data)
}

// redirect navigates the browser to location, through htmx when the
// request came from it.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, location string) {
	if IsHTMX(r) {
		NewHTMXResponse().Redirect(location).Write(w)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// fail routes a query or mutation error. An expired session redirects to
// the login page; anything else is captured by the boundary of location
// and shown in place of the page.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, b *session.Browser, err error, location string) {
	d := s.recovery.Route(r.Context(), err, location, b)
	if d.Kind == recovery.AuthorizationExpired {
		s.redirect(w, r, d.Redirect)
		return
	}
	b.Boundary.Capture(err, location)
	s.renderFailure(w, r, err)
}

func (s *Server) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	data := errorPage{Layout: s.pageLayout(r, "Error"), Message: err.Error()}
	resp := NewHTMXResponse().Status(http.StatusInternalServerError)
	if IsHTMX(r) {
		resp.Retarget("#main", "innerHTML")
		s.respond(w, r, resp, "error_fallback", data)
		return
	}
	s.respond(w, r, resp, "error.html", data)
}

// guard blocks partial updates of a location whose boundary holds a
// failure. Navigating elsewhere clears it.
func (s *Server) guard(w http.ResponseWriter, r *http.Request, b *session.Browser) (string, bool) {
	location := Location(r, recovery.DefaultPath)
	b.Boundary.Observe(location)
	if err := b.Boundary.Err(location); err != nil {
		s.renderFailure(w, r, err)
		return location, false
	}
	return location, true
}

func (s *Server) renderRateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "Too many login attempts. Please try again later.").Write(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	data := notFoundPage{Layout: s.pageLayout(r, "Not found"), Path: r.URL.Path}
	s.respond(w, r, NewHTMXResponse().Status(http.StatusNotFound), "not_found.html", data)
}

// applyDraft copies the posted values of the form's fields into its draft.
func applyDraft[T any](f *form.Form[T], r *http.Request) {
	for name, value := range FieldValues(r.PostForm, fieldNames(f)) {
		_ = f.Change(name, value)
	}
}

// blurTrigger marks the input that fired the request as touched.
func blurTrigger[T any](f *form.Form[T], r *http.Request) {
	name := TriggerField(r)
	if lo.Contains(fieldNames(f), name) {
		_ = f.Blur(name)
	}
}

func fieldNames[T any](f *form.Form[T]) []string {
	return lo.Map(f.Fields(), func(fd form.Field, _ int) string { return fd.Name })
}
