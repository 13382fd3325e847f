package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freedom/internal/amqp"
	"freedom/internal/core"
	"freedom/internal/graphql"
	"freedom/internal/log"
	"freedom/internal/storage/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	msgs   []*amqp.CommitMessage
	err    error
	closed bool
}

func (p *fakePublisher) PublishCommit(_ context.Context, msg *amqp.CommitMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func newService(pub Publisher) *AccountService {
	return NewAccountService(memory.New(), pub, log.New(log.DefaultConfig()))
}

func requireUnauthorized(t *testing.T, err error) {
	t.Helper()
	gqlErr, ok := graphql.As(err)
	require.True(t, ok, "expected a GraphQL error, got %v", err)
	first, _ := gqlErr.First()
	assert.Equal(t, graphql.MessageUnauthorized, first.Message)
}

func TestOperationsRequireSession(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()

	_, err := svc.MyAccount(ctx, "")
	requireUnauthorized(t, err)

	_, err = svc.MyAccount(ctx, "bogus-token")
	requireUnauthorized(t, err)

	_, err = svc.UpdateAccount(ctx, "", core.AccountInput{ID: "x", Name: "n", DepositsPerYear: 1})
	requireUnauthorized(t, err)

	_, err = svc.CreateFund(ctx, "", "x", core.FundInput{Icon: "i", Name: "n"})
	requireUnauthorized(t, err)
}

func TestLoginCreatesDefaultAccount(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()

	user, cred, err := svc.Login(ctx, "  alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, cred.Anonymous())

	acc, err := svc.MyAccount(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, "Initial Account", acc.Name)
	assert.Equal(t, 24, acc.DepositsPerYear)
	assert.Empty(t, acc.Funds)
}

func TestLoginRejectsInvalidUsername(t *testing.T) {
	svc := newService(nil)
	_, _, err := svc.Login(context.Background(), "   ")
	_, ok := graphql.As(err)
	assert.True(t, ok)
}

func TestUpdateAndCreatePublishCommits(t *testing.T) {
	pub := &fakePublisher{}
	svc := newService(pub)
	ctx := context.Background()

	_, cred, err := svc.Login(ctx, "bob")
	require.NoError(t, err)
	acc, err := svc.MyAccount(ctx, cred)
	require.NoError(t, err)

	updated, err := svc.UpdateAccount(ctx, cred, core.AccountInput{ID: acc.ID, Name: " New Name ", DepositsPerYear: 13})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)

	fund, err := svc.CreateFund(ctx, cred, acc.ID, core.FundInput{Icon: "✨", Name: "New Fund"})
	require.NoError(t, err)
	assert.NotEmpty(t, fund.ID)

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, amqp.AccountUpdated, pub.msgs[0].Type)
	assert.Equal(t, amqp.FundCreated, pub.msgs[1].Type)
	assert.Equal(t, fund.ID, pub.msgs[1].FundID)
}

func TestPublishFailureDoesNotFailCommit(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newService(pub)
	ctx := context.Background()

	_, cred, _ := svc.Login(ctx, "carol")
	acc, _ := svc.MyAccount(ctx, cred)

	_, err := svc.UpdateAccount(ctx, cred, core.AccountInput{ID: acc.ID, Name: "Renamed", DepositsPerYear: 12})
	assert.NoError(t, err)
}

func TestInvalidInputIsRejected(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()
	_, cred, _ := svc.Login(ctx, "dave")
	acc, _ := svc.MyAccount(ctx, cred)

	_, err := svc.UpdateAccount(ctx, cred, core.AccountInput{ID: acc.ID, Name: "ok", DepositsPerYear: 0})
	require.Error(t, err)
	_, err = svc.CreateFund(ctx, cred, acc.ID, core.FundInput{Icon: "", Name: "x"})
	require.Error(t, err)
	_, err = svc.CreateFund(ctx, cred, "someone-else", core.FundInput{Icon: "x", Name: "y"})
	assert.EqualError(t, err, "account not found")
}

func TestLogoutEndsSession(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()
	_, cred, _ := svc.Login(ctx, "erin")

	require.NoError(t, svc.Logout(ctx, cred))
	_, err := svc.MyAccount(ctx, cred)
	requireUnauthorized(t, err)

	assert.NoError(t, svc.Logout(ctx, ""))
}

func TestCloseClosesPublisher(t *testing.T) {
	pub := &fakePublisher{}
	svc := newService(pub)
	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}

func TestPingWithoutConnectionIsReady(t *testing.T) {
	assert.NoError(t, newService(nil).Ping(context.Background()))
}
