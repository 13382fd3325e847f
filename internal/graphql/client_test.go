package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freedom/internal/core"
)

type captured struct {
	cookie string
	body   request
}

func newServer(t *testing.T, got *captured, handler func(w http.ResponseWriter, req request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if got != nil {
			got.cookie = r.Header.Get("Cookie")
			got.body = req
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMyAccount(t *testing.T) {
	var got captured
	srv := newServer(t, &got, func(w http.ResponseWriter, _ request) {
		w.Write([]byte(`{"data":{"myAccount":{"depositsPerYear":24,"id":"a1","name":"Initial Account",
			"funds":[{"icon":"🚘","id":"f1","name":"Car Repairs"}]}}}`))
	})

	c := NewClient(srv.URL, time.Second)
	acc, err := c.MyAccount(context.Background(), "_session=abc")

	require.NoError(t, err)
	assert.Equal(t, core.Account{
		ID:              "a1",
		Name:            "Initial Account",
		DepositsPerYear: 24,
		Funds:           []core.Fund{{ID: "f1", Icon: "🚘", Name: "Car Repairs"}},
	}, acc)
	assert.Equal(t, "_session=abc", got.cookie)
	assert.Equal(t, "MyAccount", got.body.OperationName)
}

func TestUpdateAccountSendsInput(t *testing.T) {
	var got captured
	srv := newServer(t, &got, func(w http.ResponseWriter, _ request) {
		w.Write([]byte(`{"data":{"updateAccount":{"depositsPerYear":13,"id":"a1","name":"New Name"}}}`))
	})

	c := NewClient(srv.URL, time.Second)
	acc, err := c.UpdateAccount(context.Background(), "s=1", core.AccountInput{ID: "a1", Name: "New Name", DepositsPerYear: 13})

	require.NoError(t, err)
	assert.Equal(t, "New Name", acc.Name)
	assert.Equal(t, map[string]any{
		"input": map[string]any{"depositsPerYear": float64(13), "id": "a1", "name": "New Name"},
	}, got.body.Variables)
}

func TestCreateFund(t *testing.T) {
	var got captured
	srv := newServer(t, &got, func(w http.ResponseWriter, _ request) {
		w.Write([]byte(`{"data":{"createFund":{"icon":"✨","id":"f9","name":"New Fund"}}}`))
	})

	c := NewClient(srv.URL, time.Second)
	fund, err := c.CreateFund(context.Background(), "s=1", "a1", core.FundInput{Icon: "✨", Name: "New Fund"})

	require.NoError(t, err)
	assert.Equal(t, core.Fund{ID: "f9", Icon: "✨", Name: "New Fund"}, fund)
	assert.Equal(t, "a1", got.body.Variables["accountId"])
}

func TestUnauthorizedResponse(t *testing.T) {
	srv := newServer(t, nil, func(w http.ResponseWriter, _ request) {
		w.Write([]byte(`{"data":null,"errors":[{"message":"unauthorized","path":["myAccount"]}]}`))
	})

	c := NewClient(srv.URL, time.Second)
	_, err := c.MyAccount(context.Background(), "")

	gqlErr, ok := As(err)
	require.True(t, ok)
	first, ok := gqlErr.First()
	require.True(t, ok)
	assert.Equal(t, MessageUnauthorized, first.Message)
	assert.Equal(t, "unauthorized", err.Error())
}

func TestLoginCapturesSessionCookie(t *testing.T) {
	srv := newServer(t, nil, func(w http.ResponseWriter, _ request) {
		http.SetCookie(w, &http.Cookie{Name: "_freedom_key", Value: "tok123", Path: "/"})
		w.Write([]byte(`{"data":{"login":{"id":"u1"}}}`))
	})

	c := NewClient(srv.URL, time.Second)
	user, cred, err := c.Login(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, core.User{ID: "u1", Username: "alice"}, user)
	assert.Equal(t, core.Credential("_freedom_key=tok123"), cred)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.Logout(context.Background(), "s=1")

	gqlErr, ok := As(err)
	require.True(t, ok)
	assert.Error(t, gqlErr.Network)
	assert.Empty(t, gqlErr.GraphQL)
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("dial tcp: refused")
	err := NetworkError(base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "network error: dial tcp: refused", err.Error())
}
