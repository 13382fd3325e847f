// Package form implements a bounded edit session over one entity: a draft,
// its validation state, and the editing -> submitting -> succeeded/cancelled
// lifecycle.
package form

import "errors"

var (
	// ErrInvalid is returned by Submit when the draft fails validation.
	ErrInvalid = errors.New("form has validation errors")
	// ErrSubmitting is returned when a commit is already in flight.
	ErrSubmitting = errors.New("form is submitting")
	// ErrClosed is returned once the form succeeded or was cancelled.
	ErrClosed = errors.New("form is closed")
)

type State int

const (
	Editing State = iota
	Submitting
	Succeeded
	Cancelled
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events are accepted.
func (s State) Terminal() bool {
	return s == Succeeded || s == Cancelled
}

type Event int

const (
	EventChange Event = iota
	EventBlur
	EventSubmitInvalid
	EventSubmitValid
	EventResolve
	EventReject
	EventCancel
)

func (e Event) String() string {
	switch e {
	case EventChange:
		return "change"
	case EventBlur:
		return "blur"
	case EventSubmitInvalid:
		return "submit_invalid"
	case EventSubmitValid:
		return "submit_valid"
	case EventResolve:
		return "resolve"
	case EventReject:
		return "reject"
	case EventCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Transition is the pure state machine of a form. It returns the next state
// or an error when the event is not accepted in s.
func Transition(s State, e Event) (State, error) {
	if s.Terminal() {
		return s, ErrClosed
	}

	switch s {
	case Editing:
		switch e {
		case EventChange, EventBlur, EventSubmitInvalid:
			return Editing, nil
		case EventSubmitValid:
			return Submitting, nil
		case EventCancel:
			return Cancelled, nil
		}
	case Submitting:
		switch e {
		case EventResolve:
			return Succeeded, nil
		case EventReject:
			return Editing, nil
		default:
			// input and cancel are blocked until the commit settles
			return s, ErrSubmitting
		}
	}
	return s, errors.New("form: event " + e.String() + " not accepted in state " + s.String())
}
