package session

import (
	"sync"
	"sync/atomic"

	"freedom/internal/core"
)

// State holds the active data session handle. Readers always go through
// Current; Reset swaps in a new handle atomically and invalidates the old
// one, so a stale handle fails with ErrSessionReset instead of serving
// cached data.
type State struct {
	newSession func(core.Credential) *DataSession

	resetMu sync.Mutex
	current atomic.Pointer[DataSession]
}

// NewState starts with an anonymous data session.
func NewState(newSession func(core.Credential) *DataSession) *State {
	s := &State{newSession: newSession}
	s.current.Store(newSession(""))
	return s
}

func (s *State) Current() *DataSession {
	return s.current.Load()
}

// Reset constructs a data session for cred and publishes it.
func (s *State) Reset(cred core.Credential) *DataSession {
	s.resetMu.Lock()
	defer s.resetMu.Unlock()

	next := s.newSession(cred)
	prev := s.current.Swap(next)
	if prev != nil {
		prev.Invalidate()
	}
	return next
}

// Close invalidates the current session without replacing it.
func (s *State) Close() {
	if cur := s.current.Load(); cur != nil {
		cur.Invalidate()
	}
}
