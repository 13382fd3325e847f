// Package memory is an in-process repository with the same contract as the
// SQLite one. Data is lost on restart.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"freedom/internal/core"
)

type account struct {
	core.Account
	userID string
}

type Store struct {
	mu       sync.Mutex
	users    map[string]core.User // by username
	sessions map[string]string    // token -> user id
	accounts map[string]*account  // by account id
}

func New() *Store {
	return &Store{
		users:    make(map[string]core.User),
		sessions: make(map[string]string),
		accounts: make(map[string]*account),
	}
}

func (s *Store) UpsertUser(_ context.Context, username string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		u = core.User{ID: uuid.NewString(), Username: username}
		s.users[username] = u
	}
	return u, nil
}

func (s *Store) CreateSession(_ context.Context, token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = userID
	return nil
}

func (s *Store) SessionUser(_ context.Context, token string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessions[token]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	for _, u := range s.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Store) EnsureAccount(_ context.Context, userID string, defaults core.AccountInput) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.accountOf(userID); a != nil {
		return clone(a.Account), nil
	}
	a := &account{
		Account: core.Account{ID: uuid.NewString(), Name: defaults.Name, DepositsPerYear: defaults.DepositsPerYear},
		userID:  userID,
	}
	s.accounts[a.ID] = a
	return clone(a.Account), nil
}

func (s *Store) AccountByUser(_ context.Context, userID string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountOf(userID)
	if a == nil {
		return core.Account{}, core.ErrNotFound
	}
	return clone(a.Account), nil
}

func (s *Store) UpdateAccount(_ context.Context, userID string, in core.AccountInput) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[in.ID]
	if !ok || a.userID != userID {
		return core.Account{}, core.ErrNotFound
	}
	a.Name = in.Name
	a.DepositsPerYear = in.DepositsPerYear
	return clone(a.Account), nil
}

func (s *Store) CreateFund(_ context.Context, userID, accountID string, in core.FundInput) (core.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok || a.userID != userID {
		return core.Fund{}, core.ErrNotFound
	}
	f := core.Fund{ID: uuid.NewString(), Icon: in.Icon, Name: in.Name}
	a.Funds = append(a.Funds, f)
	return f, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) accountOf(userID string) *account {
	for _, a := range s.accounts {
		if a.userID == userID {
			return a
		}
	}
	return nil
}

// clone detaches the fund slice so callers never share it with the store.
func clone(a core.Account) core.Account {
	a.Funds = slices.Clone(a.Funds)
	if a.Funds == nil {
		a.Funds = []core.Fund{}
	}
	return a
}
