package view

import (
	"context"

	"freedom/internal/core"
	"freedom/internal/form"
)

// AccountHeader shows the account name and toggles into the account form.
type AccountHeader struct {
	toggle Toggle[core.AccountInput]
}

type AccountHeaderView struct {
	Account core.Account
	Editing bool
	Form    *FormView
}

// Edit opens the account form seeded from a. Calling it again while the
// form is open keeps the current draft.
func (h *AccountHeader) Edit(a core.Account) *form.Form[core.AccountInput] {
	return h.toggle.Open(func(opts ...form.Option) *form.Form[core.AccountInput] {
		return form.NewAccountForm(a, opts...)
	})
}

func (h *AccountHeader) Form() *form.Form[core.AccountInput] {
	return h.toggle.Active()
}

func (h *AccountHeader) Submit(ctx context.Context, onCommit form.CommitFunc[core.AccountInput]) error {
	f := h.toggle.Active()
	if f == nil {
		return ErrNotEditing
	}
	return f.Submit(ctx, onCommit)
}

func (h *AccountHeader) Cancel() error {
	f := h.toggle.Active()
	if f == nil {
		return nil
	}
	return f.Cancel()
}

func (h *AccountHeader) Render(a core.Account) AccountHeaderView {
	f := h.toggle.Active()
	return AccountHeaderView{
		Account: a,
		Editing: f != nil,
		Form:    newFormView(f),
	}
}
