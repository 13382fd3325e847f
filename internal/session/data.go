// Package session owns the data session of each browser: the query cache,
// in-flight deduplication and the credential of one backend login, plus
// the atomic swap that replaces it on login, logout and expiry.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"freedom/internal/backend"
	"freedom/internal/cache"
	"freedom/internal/core"
	"freedom/internal/log"
)

// ErrSessionReset is returned by every operation on a data session that
// has been invalidated. Callers must re-issue the call on the current one.
var ErrSessionReset = errors.New("data session was reset")

const myAccountKey = "myAccount"

// ErrorHandler receives every error an operation returns.
type ErrorHandler func(ctx context.Context, s *DataSession, op string, err error)

// DataSession executes queries and mutations for one backend login.
type DataSession struct {
	id      string
	backend backend.Backend
	cred    core.Credential
	logger  *log.Logger
	onError ErrorHandler
	onClose func(*DataSession)

	cache  *cache.LRUCache[core.Account]
	group  singleflight.Group
	closed atomic.Bool

	// generation guards the cache against results of queries that were in
	// flight while it was purged.
	mu         sync.Mutex
	generation uint64
}

func (s *DataSession) ID() string {
	return s.id
}

func (s *DataSession) Credential() core.Credential {
	return s.cred
}

func (s *DataSession) Authenticated() bool {
	return !s.cred.Anonymous()
}

// Closed reports whether the session was invalidated.
func (s *DataSession) Closed() bool {
	return s.closed.Load()
}

// MyAccount returns the account, from cache when possible. Concurrent
// callers share one backend request. A caller that gives up waiting does
// not cancel the request for the others.
func (s *DataSession) MyAccount(ctx context.Context) (core.Account, error) {
	if s.Closed() {
		return core.Account{}, ErrSessionReset
	}
	if acc, ok := s.cache.Get(myAccountKey); ok {
		s.logger.DebugContext(ctx, "Account served from cache",
			log.FieldSessionID, s.id,
			log.FieldCacheHit, true)
		return acc, nil
	}

	gen := s.currentGeneration()
	ch := s.group.DoChan(myAccountKey, func() (any, error) {
		acc, err := s.backend.MyAccount(context.WithoutCancel(ctx), s.cred)
		if err != nil {
			return core.Account{}, err
		}
		s.store(gen, acc)
		return acc, nil
	})

	select {
	case <-ctx.Done():
		return core.Account{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return core.Account{}, s.fail(ctx, log.OpMyAccount, res.Err)
		}
		if s.Closed() {
			return core.Account{}, ErrSessionReset
		}
		return res.Val.(core.Account), nil
	}
}

// UpdateAccount commits the account settings and drops cached queries so
// the next read observes the change.
func (s *DataSession) UpdateAccount(ctx context.Context, in core.AccountInput) (core.Account, error) {
	if s.Closed() {
		return core.Account{}, ErrSessionReset
	}
	acc, err := s.backend.UpdateAccount(ctx, s.cred, in)
	if err != nil {
		return core.Account{}, s.fail(ctx, log.OpUpdateAccount, err)
	}
	s.purge()
	return acc, nil
}

func (s *DataSession) CreateFund(ctx context.Context, accountID string, in core.FundInput) (core.Fund, error) {
	if s.Closed() {
		return core.Fund{}, ErrSessionReset
	}
	fund, err := s.backend.CreateFund(ctx, s.cred, accountID, in)
	if err != nil {
		return core.Fund{}, s.fail(ctx, log.OpCreateFund, err)
	}
	s.purge()
	return fund, nil
}

// Login authenticates against the backend. The returned credential seeds
// the data session that replaces this one.
func (s *DataSession) Login(ctx context.Context, username string) (core.User, core.Credential, error) {
	if s.Closed() {
		return core.User{}, "", ErrSessionReset
	}
	user, cred, err := s.backend.Login(ctx, username)
	if err != nil {
		return core.User{}, "", s.fail(ctx, log.OpLogin, err)
	}
	return user, cred, nil
}

func (s *DataSession) Logout(ctx context.Context) error {
	if s.Closed() {
		return ErrSessionReset
	}
	if err := s.backend.Logout(ctx, s.cred); err != nil {
		return s.fail(ctx, log.OpLogout, err)
	}
	return nil
}

// Invalidate closes the session and discards every cached result.
func (s *DataSession) Invalidate() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.purge()
	s.group.Forget(myAccountKey)
	s.onClose(s)
	s.logger.Debug("Data session invalidated", log.FieldSessionID, s.id)
}

// CacheSize returns the number of cached query results.
func (s *DataSession) CacheSize() int {
	return s.cache.Size()
}

func (s *DataSession) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *DataSession) store(gen uint64, acc core.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.closed.Load() {
		return
	}
	s.cache.Set(myAccountKey, acc)
}

func (s *DataSession) purge() {
	s.mu.Lock()
	s.generation++
	s.cache.Purge()
	s.mu.Unlock()
}

func (s *DataSession) fail(ctx context.Context, op string, err error) error {
	s.onError(ctx, s, op, err)
	return err
}

// Factory builds data sessions sharing one backend.
type Factory struct {
	Backend   backend.Backend
	CacheSize int
	CacheTTL  time.Duration
	// Caches, when set, cleans expired entries of every live session.
	Caches *cache.Manager
	Logger *log.Logger
	// OnError defaults to a no-op.
	OnError ErrorHandler
}

// New returns a data session for cred. An empty credential yields an
// anonymous session whose account reads fail as unauthorized.
func (f *Factory) New(cred core.Credential) *DataSession {
	size, ttl := f.CacheSize, f.CacheTTL
	if size <= 0 {
		size = 32
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := f.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	onError := f.OnError
	if onError == nil {
		onError = func(context.Context, *DataSession, string, error) {}
	}

	s := &DataSession{
		id:      uuid.NewString(),
		backend: f.Backend,
		cred:    cred,
		logger:  logger.WithComponent(log.ComponentSession),
		onError: onError,
		onClose: func(*DataSession) {},
		cache:   cache.NewLRUCache[core.Account](size, ttl),
	}
	if f.Caches != nil {
		f.Caches.Register(s.id, s.cache)
		s.onClose = func(s *DataSession) { f.Caches.Unregister(s.id) }
	}
	return s
}
