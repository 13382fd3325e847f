package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"freedom/internal/amqp"
	"freedom/internal/core"
	"freedom/internal/graphql"
	"freedom/internal/log"
)

// Repository is the persistence port of the local backends.
type Repository interface {
	UpsertUser(ctx context.Context, username string) (core.User, error)
	CreateSession(ctx context.Context, token, userID string) error
	SessionUser(ctx context.Context, token string) (core.User, error)
	DeleteSession(ctx context.Context, token string) error
	EnsureAccount(ctx context.Context, userID string, defaults core.AccountInput) (core.Account, error)
	AccountByUser(ctx context.Context, userID string) (core.Account, error)
	UpdateAccount(ctx context.Context, userID string, in core.AccountInput) (core.Account, error)
	CreateFund(ctx context.Context, userID, accountID string, in core.FundInput) (core.Fund, error)
	Close() error
}

// Publisher announces stored commits.
type Publisher interface {
	PublishCommit(ctx context.Context, msg *amqp.CommitMessage) error
	Close() error
}

// AccountService serves the account API from a local repository. It
// answers with the same GraphQL errors a remote backend would, including
// "unauthorized" for unknown credentials.
type AccountService struct {
	repo       Repository
	publisher  Publisher
	logger     *log.Logger
	structured *log.StructuredLogger
}

// NewAccountService wires a repository and an optional publisher.
func NewAccountService(repo Repository, publisher Publisher, logger *log.Logger) *AccountService {
	logger = logger.WithComponent(log.ComponentAccount)
	return &AccountService{
		repo:       repo,
		publisher:  publisher,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
	}
}

func (s *AccountService) MyAccount(ctx context.Context, cred core.Credential) (core.Account, error) {
	user, err := s.authenticate(ctx, cred)
	if err != nil {
		return core.Account{}, err
	}

	acc, err := s.repo.AccountByUser(ctx, user.ID)
	if errors.Is(err, core.ErrNotFound) {
		acc, err = s.repo.EnsureAccount(ctx, user.ID, defaultAccount())
	}
	if err != nil {
		return core.Account{}, s.internal(ctx, log.OpMyAccount, err)
	}
	return acc, nil
}

// UpdateAccount saves the settings first and publishes the commit second.
// A publish failure is logged and never fails the mutation.
func (s *AccountService) UpdateAccount(ctx context.Context, cred core.Credential, in core.AccountInput) (core.Account, error) {
	user, err := s.authenticate(ctx, cred)
	if err != nil {
		return core.Account{}, err
	}

	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Account{}, graphql.Errorf("invalid account input: %v", err)
	}

	acc, err := s.repo.UpdateAccount(ctx, user.ID, in)
	if errors.Is(err, core.ErrNotFound) {
		return core.Account{}, graphql.Errorf("account not found")
	}
	if err != nil {
		return core.Account{}, s.internal(ctx, log.OpUpdateAccount, err)
	}

	s.structured.LogCommit(ctx, log.OpUpdateAccount, acc.ID, log.NewFields())
	s.publish(ctx, amqp.NewAccountUpdated(acc.ID))
	return acc, nil
}

func (s *AccountService) CreateFund(ctx context.Context, cred core.Credential, accountID string, in core.FundInput) (core.Fund, error) {
	user, err := s.authenticate(ctx, cred)
	if err != nil {
		return core.Fund{}, err
	}

	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Fund{}, graphql.Errorf("invalid fund input: %v", err)
	}

	fund, err := s.repo.CreateFund(ctx, user.ID, accountID, in)
	if errors.Is(err, core.ErrNotFound) {
		return core.Fund{}, graphql.Errorf("account not found")
	}
	if err != nil {
		return core.Fund{}, s.internal(ctx, log.OpCreateFund, err)
	}

	s.structured.LogCommit(ctx, log.OpCreateFund, accountID, log.NewFields().WithFund(fund.ID, fund.Name))
	s.publish(ctx, amqp.NewFundCreated(accountID, fund.ID))
	return fund, nil
}

// Login signs username in, creating the user and its default account on
// first use.
func (s *AccountService) Login(ctx context.Context, username string) (core.User, core.Credential, error) {
	username = strings.TrimSpace(username)
	if err := core.ValidateUsername(username); err != nil {
		return core.User{}, "", graphql.Errorf("invalid username: %v", err)
	}

	user, err := s.repo.UpsertUser(ctx, username)
	if err != nil {
		return core.User{}, "", s.internal(ctx, log.OpLogin, err)
	}
	if _, err := s.repo.EnsureAccount(ctx, user.ID, defaultAccount()); err != nil {
		return core.User{}, "", s.internal(ctx, log.OpLogin, err)
	}

	token := uuid.NewString()
	if err := s.repo.CreateSession(ctx, token, user.ID); err != nil {
		return core.User{}, "", s.internal(ctx, log.OpLogin, err)
	}

	s.logger.InfoContext(ctx, "User logged in",
		log.FieldOperation, log.OpLogin,
		log.FieldUsername, user.Username)
	return user, core.Credential(token), nil
}

// Logout ends the session. Unknown credentials are not an error.
func (s *AccountService) Logout(ctx context.Context, cred core.Credential) error {
	if cred.Anonymous() {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, string(cred)); err != nil {
		return s.internal(ctx, log.OpLogout, err)
	}
	s.logger.InfoContext(ctx, "User logged out", log.FieldOperation, log.OpLogout)
	return nil
}

// Ping reports whether the repository is reachable. Stores without a
// connection are always ready.
func (s *AccountService) Ping(ctx context.Context) error {
	if p, ok := s.repo.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes both storage and AMQP connections
func (s *AccountService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close account service: %w", errors.Join(errs...))
	}

	return nil
}

func (s *AccountService) authenticate(ctx context.Context, cred core.Credential) (core.User, error) {
	if cred.Anonymous() {
		return core.User{}, graphql.Unauthorized()
	}
	user, err := s.repo.SessionUser(ctx, string(cred))
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, graphql.Unauthorized()
	}
	if err != nil {
		return core.User{}, s.internal(ctx, "authenticate", err)
	}
	return user, nil
}

func (s *AccountService) publish(ctx context.Context, msg *amqp.CommitMessage) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping commit event", "type", msg.Type)
		return
	}
	if err := s.publisher.PublishCommit(ctx, msg); err != nil {
		s.structured.LogError(ctx, "Failed to publish commit event", err, log.ComponentAMQP, log.OpPublish,
			log.NewFields().WithAccount(msg.AccountID).WithErrorType(log.ErrorTypeNetwork))
	}
}

// internal logs a storage failure and hides its details from the client.
func (s *AccountService) internal(ctx context.Context, op string, err error) error {
	s.structured.LogError(ctx, "Repository operation failed", err, log.ComponentStorage, op,
		log.NewFields().WithErrorType(log.ErrorTypeDatabase))
	return graphql.Errorf("internal server error")
}

func defaultAccount() core.AccountInput {
	return core.AccountInput{Name: core.DefaultAccountName, DepositsPerYear: core.DefaultDepositsPerYear}
}
