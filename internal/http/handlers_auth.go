package http

import (
	"context"
	"errors"
	"net/http"

	"freedom/internal/core"
	"freedom/internal/form"
	"freedom/internal/log"
	"freedom/internal/recovery"
)

// The login form keeps no server state: every request rebuilds it from the
// posted draft.

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	browserFrom(r.Context()).Boundary.Reset()
	s.renderLogin(w, r, NewHTMXResponse(), form.NewLoginForm())
}

func (s *Server) handleLoginValidate(w http.ResponseWriter, r *http.Request) {
	f := form.NewLoginForm()
	applyDraft(f, r)
	blurTrigger(f, r)
	s.renderLogin(w, r, NewHTMXResponse(), f)
}

// handleLogin signs in and returns to the location remembered when the
// previous session expired.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	b := browserFrom(r.Context())
	logger := log.FromContext(r.Context())
	f := form.NewLoginForm()
	applyDraft(f, r)

	var (
		user        core.User
		destination string
	)
	err := f.Submit(r.Context(), func(ctx context.Context, username string) error {
		u, cred, err := b.Data.Current().Login(ctx, username)
		if err != nil {
			return err
		}
		user = u
		destination = b.SignIn(ctx, cred)
		return nil
	})

	resp := NewHTMXResponse()
	switch {
	case err == nil:
		logger.InfoContext(r.Context(), "User logged in",
			log.FieldOperation, log.OpLogin,
			log.FieldUsername, user.Username,
			log.FieldReturnTo, destination)
		s.redirect(w, r, destination)
		return
	case errors.Is(err, form.ErrInvalid):
		resp.Status(http.StatusUnprocessableEntity)
	default:
		d := s.recovery.Route(r.Context(), err, recovery.LoginPath, b)
		if d.Kind == recovery.AuthorizationExpired {
			s.redirect(w, r, d.Redirect)
			return
		}
		resp.Status(http.StatusUnprocessableEntity)
	}
	s.renderLogin(w, r, resp, f)
}

// handleLogout ends the backend session and starts an anonymous one. A
// failed logout still drops the local session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	b := browserFrom(r.Context())
	logger := log.FromContext(r.Context())

	if err := b.Data.Current().Logout(r.Context()); err != nil {
		logger.WarnContext(r.Context(), "Logout failed, resetting session anyway",
			log.FieldOperation, log.OpLogout,
			log.FieldError, err)
	} else {
		logger.InfoContext(r.Context(), "User logged out", log.FieldOperation, log.OpLogout)
	}

	b.RememberReturn("")
	b.ResetSession(r.Context())
	s.redirect(w, r, recovery.LoginPath)
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, f *form.Form[string]) {
	if IsHTMX(r) {
		s.respond(w, r, resp, "login_form", newLoginPartial(f))
		return
	}
	s.respond(w, r, resp, "login.html", loginPage{
		Layout: s.pageLayout(r, "Login"),
		Form:   newLoginPartial(f),
	})
}
