package recovery

import (
	"context"
	"sync"

	"freedom/internal/log"
)

// Target receives the side effects of a routed error.
type Target interface {
	// ResetSession discards the active data session and its cache.
	ResetSession(ctx context.Context)
	// RememberReturn stores the location to restore after login.
	RememberReturn(location string)
}

// Router applies Decisions. It is stateless; per-browser state lives in the
// Target.
type Router struct {
	logger *log.Logger
}

func NewRouter(logger *log.Logger) *Router {
	return &Router{logger: logger.WithComponent(log.ComponentRecovery)}
}

// Route decides for err and performs the session reset and return-path
// capture when the session expired.
func (r *Router) Route(ctx context.Context, err error, location string, target Target) Decision {
	d := Decide(err, location)
	switch d.Kind {
	case AuthorizationExpired:
		target.RememberReturn(d.ReturnTo)
		target.ResetSession(ctx)
		r.logger.InfoContext(ctx, "Session expired, redirecting to login",
			log.FieldPath, location,
			log.FieldReturnTo, d.ReturnTo)
	default:
		r.logger.ErrorContext(ctx, "Operation failed",
			log.FieldPath, location,
			log.FieldError, d.Message,
			log.FieldErrorType, log.ErrorTypeInternal)
	}
	return d
}

// Boundary holds the last unrecovered failure of a screen. It clears itself
// once the user moves to another location.
type Boundary struct {
	mu       sync.Mutex
	err      error
	location string
}

func (b *Boundary) Capture(err error, location string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
	b.location = location
}

// Observe records a navigation to location and reports whether a stale
// error was dropped because of it.
func (b *Boundary) Observe(location string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil || b.location == location {
		return false
	}
	b.err = nil
	b.location = ""
	return true
}

// Reset clears the boundary, as a fresh mount of the screen does.
func (b *Boundary) Reset() {
	b.mu.Lock()
	b.err = nil
	b.location = ""
	b.mu.Unlock()
}

// Err returns the captured error for location, or nil.
func (b *Boundary) Err(location string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.location != location {
		return nil
	}
	return b.err
}
