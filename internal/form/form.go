package form

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/lo"

	"freedom/internal/validation"
)

// CommitFunc performs the remote mutation for a validated payload.
type CommitFunc[T any] func(ctx context.Context, payload T) error

// NoopCommit is used when Submit is given a nil CommitFunc.
func NoopCommit[T any](context.Context, T) error { return nil }

// FieldDef describes one input of a form.
type FieldDef struct {
	Name  string
	Label string
	Type  string
}

// Definition binds a schema to its inputs and to the payload type the
// commit function receives.
type Definition[T any] struct {
	Name        string
	SubmitLabel string
	Schema      validation.Schema
	Fields      []FieldDef
	// Editable is the allow-list of keys copied from the entity into the
	// initial draft.
	Editable []string
	Decode   func(validation.Values) (T, error)
}

// Field is the render state of one input.
type Field struct {
	FieldDef
	Value   string
	Error   string
	Touched bool
}

type hooks struct {
	onSuccess func()
	onCancel  func()
}

type Option func(*hooks)

// OnSuccess registers a callback run after a commit resolves. Defaults to a no-op.
func OnSuccess(fn func()) Option {
	return func(h *hooks) {
		if fn != nil {
			h.onSuccess = fn
		}
	}
}

// OnCancel registers a callback run after Cancel. Defaults to a no-op.
func OnCancel(fn func()) Option {
	return func(h *hooks) {
		if fn != nil {
			h.onCancel = fn
		}
	}
}

// Form is one edit session. It is safe for concurrent use; a second Submit
// while a commit is in flight fails with ErrSubmitting.
type Form[T any] struct {
	def Definition[T]

	mu        sync.Mutex
	state     State
	draft     validation.Values
	touched   map[string]bool
	result    validation.Result
	commitErr error
	hooks     hooks
}

// New starts an edit session seeded from entity. Only the keys listed in
// def.Editable are copied into the draft.
func New[T any](def Definition[T], entity validation.Values, opts ...Option) *Form[T] {
	h := hooks{onSuccess: func() {}, onCancel: func() {}}
	for _, opt := range opts {
		opt(&h)
	}

	draft := validation.Values(lo.PickByKeys(entity, def.Editable))
	for _, key := range def.Editable {
		if _, ok := draft[key]; !ok {
			draft[key] = ""
		}
	}

	return &Form[T]{
		def:     def,
		state:   Editing,
		draft:   draft,
		touched: make(map[string]bool),
		result:  def.Schema.Validate(draft),
		hooks:   h,
	}
}

func (f *Form[T]) Name() string {
	return f.def.Name
}

func (f *Form[T]) SubmitLabel() string {
	return f.def.SubmitLabel
}

func (f *Form[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns a copy of the current draft.
func (f *Form[T]) Draft() validation.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Clone()
}

func (f *Form[T]) Result() validation.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// CommitError is the error of the last rejected commit, if any.
func (f *Form[T]) CommitError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commitErr
}

// Change writes value into the draft and revalidates the entity.
func (f *Form[T]) Change(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, err := Transition(f.state, EventChange)
	if err != nil {
		return err
	}
	f.state = next
	f.draft[name] = value
	f.result = f.def.Schema.Validate(f.draft)
	return nil
}

// Blur marks name as touched and revalidates the whole entity.
func (f *Form[T]) Blur(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, err := Transition(f.state, EventBlur)
	if err != nil {
		return err
	}
	f.state = next
	f.touched[name] = true
	f.result = f.def.Schema.Validate(f.draft)
	return nil
}

// Submit validates the draft and, when valid, hands the decoded payload to
// commit. A rejected commit returns the form to Editing with the draft
// intact and the error returned to the caller. The commit runs detached from
// ctx cancellation so an in-flight mutation always settles.
func (f *Form[T]) Submit(ctx context.Context, commit CommitFunc[T]) error {
	if commit == nil {
		commit = NoopCommit[T]
	}

	f.mu.Lock()
	for _, fd := range f.def.Fields {
		f.touched[fd.Name] = true
	}
	f.result = f.def.Schema.Validate(f.draft)

	event := EventSubmitValid
	if !f.result.Valid() {
		event = EventSubmitInvalid
	}
	next, err := Transition(f.state, event)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.state = next
	if event == EventSubmitInvalid {
		f.mu.Unlock()
		return ErrInvalid
	}

	payload, err := f.def.Decode(f.def.Schema.Cast(f.draft))
	if err != nil {
		f.state = Editing
		f.mu.Unlock()
		return errors.Join(ErrInvalid, err)
	}
	f.commitErr = nil
	f.mu.Unlock()

	commitErr := commit(context.WithoutCancel(ctx), payload)

	f.mu.Lock()
	if commitErr != nil {
		f.state, _ = Transition(f.state, EventReject)
		f.commitErr = commitErr
		f.mu.Unlock()
		return commitErr
	}
	f.state, _ = Transition(f.state, EventResolve)
	f.mu.Unlock()

	f.hooks.onSuccess()
	return nil
}

// Cancel discards the draft without committing.
func (f *Form[T]) Cancel() error {
	f.mu.Lock()
	next, err := Transition(f.state, EventCancel)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.state = next
	f.mu.Unlock()

	f.hooks.onCancel()
	return nil
}

// Field returns the render state of the named input. The error is only
// exposed once the field has been touched.
func (f *Form[T]) Field(name string) Field {
	f.mu.Lock()
	defer f.mu.Unlock()

	def, _ := lo.Find(f.def.Fields, func(fd FieldDef) bool { return fd.Name == name })
	if def.Name == "" {
		def = FieldDef{Name: name, Label: name, Type: "text"}
	}
	return f.fieldLocked(def)
}

// Fields returns every input in declaration order.
func (f *Form[T]) Fields() []Field {
	f.mu.Lock()
	defer f.mu.Unlock()

	return lo.Map(f.def.Fields, func(fd FieldDef, _ int) Field {
		return f.fieldLocked(fd)
	})
}

func (f *Form[T]) fieldLocked(def FieldDef) Field {
	field := Field{
		FieldDef: def,
		Value:    f.draft[def.Name],
		Touched:  f.touched[def.Name],
	}
	if field.Touched {
		field.Error = f.result.Error(def.Name)
	}
	return field
}
