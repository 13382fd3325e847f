// Package view holds the per-screen edit state: which entities are being
// edited and the forms mounted for them.
package view

import (
	"errors"
	"sync"

	"freedom/internal/form"
)

// ErrNotEditing is returned when an action targets a form that is not mounted.
var ErrNotEditing = errors.New("no form is open")

// Toggle owns the view/edit switch of one entity. At most one form is
// mounted; it is unmounted when it succeeds or is cancelled.
type Toggle[T any] struct {
	mu   sync.Mutex
	form *form.Form[T]
}

// Open mounts a form built by mount, unless one is already mounted, in
// which case the existing form is returned unchanged.
func (t *Toggle[T]) Open(mount func(opts ...form.Option) *form.Form[T]) *form.Form[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.form != nil {
		return t.form
	}

	var f *form.Form[T]
	unmount := func() { t.unmount(f) }
	f = mount(form.OnSuccess(unmount), form.OnCancel(unmount))
	t.form = f
	return f
}

// Active returns the mounted form or nil in view mode.
func (t *Toggle[T]) Active() *form.Form[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.form
}

func (t *Toggle[T]) Editing() bool {
	return t.Active() != nil
}

// Close drops the mounted form without running its hooks.
func (t *Toggle[T]) Close() {
	t.mu.Lock()
	t.form = nil
	t.mu.Unlock()
}

func (t *Toggle[T]) unmount(f *form.Form[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.form == f {
		t.form = nil
	}
}

// FormView is the render state of a mounted form.
type FormView struct {
	Name        string
	SubmitLabel string
	Fields      []form.Field
	Submitting  bool
	Error       string
}

func newFormView[T any](f *form.Form[T]) *FormView {
	if f == nil {
		return nil
	}
	v := &FormView{
		Name:        f.Name(),
		SubmitLabel: f.SubmitLabel(),
		Fields:      f.Fields(),
		Submitting:  f.State() == form.Submitting,
	}
	if err := f.CommitError(); err != nil {
		v.Error = err.Error()
	}
	return v
}

// NewFormView exposes the render state of a standalone form.
func NewFormView[T any](f *form.Form[T]) *FormView {
	return newFormView(f)
}
