package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"freedom/internal/core"
	"freedom/internal/log"
	"freedom/internal/recovery"
	"freedom/internal/view"
)

// Browser is the server side state of one browser: its data session, the
// edit state of the account screen and the error boundary.
type Browser struct {
	ID        string
	CreatedAt time.Time

	Data     *State
	Screen   *view.Screen
	Boundary recovery.Boundary

	mu           sync.Mutex
	lastActiveAt time.Time
	returnTo     string
	logger       *log.Logger
}

// Touch updates the last activity timestamp.
func (b *Browser) Touch() {
	b.mu.Lock()
	b.lastActiveAt = time.Now()
	b.mu.Unlock()
}

// IsExpired returns true if the browser session has exceeded maxAge.
func (b *Browser) IsExpired(maxAge time.Duration) bool {
	return time.Since(b.CreatedAt) > maxAge
}

// IsIdle returns true if the browser has been idle longer than timeout.
func (b *Browser) IsIdle(timeout time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Since(b.lastActiveAt) > timeout
}

// ResetSession replaces the data session with an anonymous one and drops
// every open form, since their drafts belong to the old login.
func (b *Browser) ResetSession(ctx context.Context) {
	prev := b.Data.Current()
	next := b.Data.Reset("")
	b.Screen.Reset()
	b.logger.InfoContext(ctx, "Data session reset",
		log.FieldBrowserID, b.ID,
		log.FieldOperation, log.OpReset,
		"previous_session", prev.ID(),
		log.FieldSessionID, next.ID())
}

// SignIn publishes a data session for cred and returns the location
// remembered before the login, or the default landing path.
func (b *Browser) SignIn(ctx context.Context, cred core.Credential) string {
	next := b.Data.Reset(cred)
	b.Screen.Reset()
	b.Boundary.Reset()
	b.logger.InfoContext(ctx, "Signed in",
		log.FieldBrowserID, b.ID,
		log.FieldSessionID, next.ID())
	return b.TakeReturn()
}

// RememberReturn stores the location to restore after the next login.
func (b *Browser) RememberReturn(location string) {
	b.mu.Lock()
	b.returnTo = location
	b.mu.Unlock()
}

// ReturnTo returns the remembered location without consuming it.
func (b *Browser) ReturnTo() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.returnTo == "" {
		return recovery.DefaultPath
	}
	return b.returnTo
}

// TakeReturn returns and clears the remembered location.
func (b *Browser) TakeReturn() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	loc := b.returnTo
	b.returnTo = ""
	if loc == "" {
		return recovery.DefaultPath
	}
	return loc
}

var _ recovery.Target = (*Browser)(nil)

// Manager handles browser session creation, lookup, and cleanup.
type Manager struct {
	mu          sync.RWMutex
	browsers    map[string]*Browser
	newSession  func(core.Credential) *DataSession
	maxAge      time.Duration
	idleTimeout time.Duration
	logger      *log.Logger
}

// NewManager creates a browser session manager with the given timeouts.
func NewManager(newSession func(core.Credential) *DataSession, maxAge, idleTimeout time.Duration, logger *log.Logger) *Manager {
	return &Manager{
		browsers:    make(map[string]*Browser),
		newSession:  newSession,
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
		logger:      logger.WithComponent(log.ComponentSession),
	}
}

// Create creates a new browser session with an anonymous data session.
func (m *Manager) Create() *Browser {
	now := time.Now()
	b := &Browser{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		Data:         NewState(m.newSession),
		Screen:       &view.Screen{},
		lastActiveAt: now,
		logger:       m.logger,
	}
	m.mu.Lock()
	m.browsers[b.ID] = b
	m.mu.Unlock()
	return b
}

// Get retrieves a browser session by ID. Returns nil if not found or expired.
func (m *Manager) Get(id string) *Browser {
	m.mu.RLock()
	b, ok := m.browsers[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if b.IsExpired(m.maxAge) || b.IsIdle(m.idleTimeout) {
		m.Remove(id)
		return nil
	}
	b.Touch()
	return b
}

// Remove deletes a browser session and closes its data session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	b, ok := m.browsers[id]
	delete(m.browsers, id)
	m.mu.Unlock()
	if ok {
		b.Data.Close()
	}
}

// Len returns the number of live browser sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.browsers)
}

// Cleanup removes all expired and idle sessions and returns how many were
// removed.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	var evicted []*Browser
	for id, b := range m.browsers {
		if b.IsExpired(m.maxAge) || b.IsIdle(m.idleTimeout) {
			delete(m.browsers, id)
			evicted = append(evicted, b)
		}
	}
	m.mu.Unlock()

	for _, b := range evicted {
		b.Data.Close()
	}
	return len(evicted)
}

// Run calls Cleanup every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Cleanup(); n > 0 {
				m.logger.Info("Expired browser sessions removed", "count", n)
			}
		}
	}
}
