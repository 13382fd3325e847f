package http

import (
	"context"
	"errors"
	"net/http"

	"freedom/internal/core"
	"freedom/internal/form"
	"freedom/internal/log"
	"freedom/internal/recovery"
	"freedom/internal/session"
	"freedom/internal/view"
)

// handleAccount renders the full account screen. A page load remounts the
// screen, so it clears whatever failure the boundary was holding.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	b := browserFrom(r.Context())
	location := Location(r, recovery.DefaultPath)
	b.Boundary.Reset()

	acc, ok := s.account(w, r, b, location)
	if !ok {
		return
	}

	page := b.Screen.Render(acc)
	s.respond(w, r, NewHTMXResponse(), "account.html", accountPage{
		Layout: s.pageLayout(r, acc.Name),
		Header: newHeaderPartial(page.Header),
		Funds:  newFundsPartial(page.Funds),
	})
}

// account reads the account through the current data session. On failure
// the response has been written and ok is false.
func (s *Server) account(w http.ResponseWriter, r *http.Request, b *session.Browser, location string) (core.Account, bool) {
	acc, err := b.Data.Current().MyAccount(r.Context())
	if err != nil {
		s.fail(w, r, b, err, location)
		return core.Account{}, false
	}
	return acc, true
}

// accountPartial runs the common prologue of every header and fund list
// partial: boundary check and account read.
func (s *Server) accountPartial(w http.ResponseWriter, r *http.Request) (*session.Browser, core.Account, string, bool) {
	b := browserFrom(r.Context())
	location, ok := s.guard(w, r, b)
	if !ok {
		return nil, core.Account{}, "", false
	}
	acc, ok := s.account(w, r, b, location)
	if !ok {
		return nil, core.Account{}, "", false
	}
	return b, acc, location, true
}

func (s *Server) renderHeader(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, b *session.Browser, acc core.Account) {
	s.partial(w, r, resp, "account_header", newHeaderPartial(b.Screen.Header.Render(acc)))
}

func (s *Server) renderFunds(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, b *session.Browser, acc core.Account) {
	s.partial(w, r, resp, "fund_list", newFundsPartial(b.Screen.Funds.Render(acc.Funds)))
}

func (s *Server) handleAccountEdit(w http.ResponseWriter, r *http.Request) {
	b, acc, _, ok := s.accountPartial(w, r)
	if !ok {
		return
	}
	b.Screen.Header.Edit(acc)
	s.renderHeader(w, r, NewHTMXResponse(), b, acc)
}

func (s *Server) handleAccountValidate(w http.ResponseWriter, r *http.Request) {
	b, acc, _, ok := s.accountPartial(w, r)
	if !ok {
		return
	}
	if f := b.Screen.Header.Form(); f != nil {
		applyDraft(f, r)
		blurTrigger(f, r)
	}
	s.renderHeader(w, r, NewHTMXResponse(), b, acc)
}

func (s *Server) handleAccountSubmit(w http.ResponseWriter, r *http.Request) {
	b, acc, location, ok := s.accountPartial(w, r)
	if !ok {
		return
	}
	if f := b.Screen.Header.Form(); f != nil {
		applyDraft(f, r)
	}

	err := b.Screen.Header.Submit(r.Context(), func(ctx context.Context, in core.AccountInput) error {
		_, err := b.Data.Current().UpdateAccount(ctx, in)
		return err
	})

	resp, ok := s.settle(w, r, b, err, location, log.OpUpdateAccount)
	if !ok {
		return
	}
	if err == nil {
		resp.TriggerAccountUpdated(acc.ID)
		if acc, ok = s.account(w, r, b, location); !ok {
			return
		}
	}
	s.renderHeader(w, r, resp, b, acc)
}

func (s *Server) handleAccountCancel(w http.ResponseWriter, r *http.Request) {
	b, acc, _, ok := s.accountPartial(w, r)
	if !ok {
		return
	}
	_ = b.Screen.Header.Cancel()
	s.renderHeader(w, r, NewHTMXResponse(), b, acc)
}

func (s *Server) handleFundAdd(w http.ResponseWriter, r *http.Request) {
	b, acc, _, ok := s.accountPartial(w, r)
	if !ok {
		return
	}
	b.Screen.Funds.Add()
	s.renderFunds(w, r, NewHTMXResponse(), b, acc)
}

func (s *Server) handleFundValidate(w http.ResponseWriter, r *http.Request) {
	b, acc, _, ok := s.accountPartial(w, r)
	if !ok {
		return
	}
	if f := b.Screen.Funds.Form(); f != nil {
		applyDraft(f, r)
		blurTrigger(f, r)
	}
	s.renderFunds(w, r, NewHTMXResponse(), b, acc)
}

func (s *Server) handleFundSubmit(w http.ResponseWriter, r *http.Request) {
	b, acc, location, ok := s.accountPartial(w, r)
	if !ok {
		return
	}
	if f := b.Screen.Funds.Form(); f != nil {
		applyDraft(f, r)
	}

	var created core.Fund
	err := b.Screen.Funds.Submit(r.Context(), func(ctx context.Context, in core.FundInput) error {
		fund, err := b.Data.Current().CreateFund(ctx, acc.ID, in)
		created = fund
		return err
	})

	resp, ok := s.settle(w, r, b, err, location, log.OpCreateFund)
	if !ok {
		return
	}
	if err == nil {
		resp.TriggerFundCreated(acc.ID, created.ID)
		if acc, ok = s.account(w, r, b, location); !ok {
			return
		}
	}
	s.renderFunds(w, r, resp, b, acc)
}

func (s *Server) handleFundCancel(w http.ResponseWriter, r *http.Request) {
	b, acc, _, ok := s.accountPartial(w, r)
	if !ok {
		return
	}
	_ = b.Screen.Funds.Cancel()
	s.renderFunds(w, r, NewHTMXResponse(), b, acc)
}

// settle maps the outcome of a form submit to a response status. A
// rejected commit keeps the form open with its draft and shows the error
// inside it, unless the session expired, in which case the response has
// been written and ok is false.
func (s *Server) settle(w http.ResponseWriter, r *http.Request, b *session.Browser, err error, location, op string) (*HTMXResponseBuilder, bool) {
	resp := NewHTMXResponse()
	logger := log.FromContext(r.Context())

	switch {
	case err == nil:
		logger.InfoContext(r.Context(), "Commit succeeded", log.FieldOperation, op)
	case errors.Is(err, view.ErrNotEditing):
	case errors.Is(err, form.ErrInvalid):
		resp.Status(http.StatusUnprocessableEntity)
	case errors.Is(err, form.ErrSubmitting):
		resp.Status(http.StatusConflict)
	default:
		d := s.recovery.Route(r.Context(), err, location, b)
		if d.Kind == recovery.AuthorizationExpired {
			s.redirect(w, r, d.Redirect)
			return nil, false
		}
		resp.Status(http.StatusUnprocessableEntity)
	}
	return resp, true
}
