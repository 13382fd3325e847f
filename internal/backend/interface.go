package backend

import (
	"context"
	"time"

	"github.com/samber/lo"

	"freedom/internal/core"
)

// Backend is the account API consumed by the data session. Every operation
// but Login requires the credential of an authenticated backend session and
// fails with the "unauthorized" GraphQL error otherwise.
type Backend interface {
	MyAccount(ctx context.Context, cred core.Credential) (core.Account, error)
	UpdateAccount(ctx context.Context, cred core.Credential, in core.AccountInput) (core.Account, error)
	CreateFund(ctx context.Context, cred core.Credential, accountID string, in core.FundInput) (core.Fund, error)
	Login(ctx context.Context, username string) (core.User, core.Credential, error)
	Logout(ctx context.Context, cred core.Credential) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ReadyFunc reports whether the backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// BackendResult contains the backend instance and optional cleanup and
// readiness functions
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
	Ready   ReadyFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// GraphQL specific
	GraphQLURL     string
	GraphQLTimeout time.Duration

	// SQLite specific
	SQLiteDBPath string

	// Commit events, optional for the local backends
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	GraphQLBackend BackendType = "graphql"
	SQLiteBackend  BackendType = "sqlite"
	MemoryBackend  BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	return lo.Contains(BackendTypes(), bt)
}
