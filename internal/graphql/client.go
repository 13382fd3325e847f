// Package graphql is a GraphQL-over-HTTP client for the account backend.
// The backend session travels as a cookie; the Credential handed around by
// the rest of the application is that Cookie header value.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"freedom/internal/core"
)

// Client executes operations against a single GraphQL endpoint. It never
// retries: mutations are not idempotent.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type request struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []SubError      `json:"errors"`
}

// do posts one operation and decodes data into dest. It returns the
// cookies set by the backend.
func (c *Client) do(ctx context.Context, cred core.Credential, req request, dest any) ([]*http.Cookie, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", req.OperationName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if !cred.Anonymous() {
		httpReq.Header.Set("Cookie", string(cred))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, NetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NetworkError(fmt.Errorf("reading response: %w", err))
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, NetworkError(fmt.Errorf("HTTP %d from %s", resp.StatusCode, c.endpoint))
		}
		return nil, NetworkError(fmt.Errorf("parsing %s response: %w", req.OperationName, err))
	}
	if len(out.Errors) > 0 {
		return nil, &Error{GraphQL: out.Errors}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NetworkError(fmt.Errorf("HTTP %d from %s", resp.StatusCode, c.endpoint))
	}

	if dest != nil {
		if err := json.Unmarshal(out.Data, dest); err != nil {
			return nil, fmt.Errorf("decoding %s data: %w", req.OperationName, err)
		}
	}
	return resp.Cookies(), nil
}

type fundJSON struct {
	Icon string `json:"icon"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type accountJSON struct {
	DepositsPerYear int        `json:"depositsPerYear"`
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Funds           []fundJSON `json:"funds"`
}

func (f fundJSON) core() core.Fund {
	return core.Fund{ID: f.ID, Icon: f.Icon, Name: f.Name}
}

func (a accountJSON) core() core.Account {
	acc := core.Account{ID: a.ID, Name: a.Name, DepositsPerYear: a.DepositsPerYear}
	for _, f := range a.Funds {
		acc.Funds = append(acc.Funds, f.core())
	}
	return acc
}

func (c *Client) MyAccount(ctx context.Context, cred core.Credential) (core.Account, error) {
	var data struct {
		MyAccount accountJSON `json:"myAccount"`
	}
	_, err := c.do(ctx, cred, request{OperationName: "MyAccount", Query: MyAccountDocument}, &data)
	if err != nil {
		return core.Account{}, err
	}
	return data.MyAccount.core(), nil
}

func (c *Client) UpdateAccount(ctx context.Context, cred core.Credential, in core.AccountInput) (core.Account, error) {
	var data struct {
		UpdateAccount accountJSON `json:"updateAccount"`
	}
	_, err := c.do(ctx, cred, request{
		OperationName: "UpdateAccount",
		Query:         UpdateAccountDocument,
		Variables: map[string]any{"input": map[string]any{
			"depositsPerYear": in.DepositsPerYear,
			"id":              in.ID,
			"name":            in.Name,
		}},
	}, &data)
	if err != nil {
		return core.Account{}, err
	}
	return data.UpdateAccount.core(), nil
}

func (c *Client) CreateFund(ctx context.Context, cred core.Credential, accountID string, in core.FundInput) (core.Fund, error) {
	var data struct {
		CreateFund fundJSON `json:"createFund"`
	}
	_, err := c.do(ctx, cred, request{
		OperationName: "CreateFund",
		Query:         CreateFundDocument,
		Variables: map[string]any{
			"accountId": accountID,
			"input":     map[string]any{"icon": in.Icon, "name": in.Name},
		},
	}, &data)
	if err != nil {
		return core.Fund{}, err
	}
	return data.CreateFund.core(), nil
}

// Login establishes a backend session. The returned credential is built
// from the cookies the backend set.
func (c *Client) Login(ctx context.Context, username string) (core.User, core.Credential, error) {
	var data struct {
		Login struct {
			ID string `json:"id"`
		} `json:"login"`
	}
	cookies, err := c.do(ctx, "", request{
		OperationName: "Login",
		Query:         LoginDocument,
		Variables:     map[string]any{"username": username},
	}, &data)
	if err != nil {
		return core.User{}, "", err
	}

	pairs := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		if ck.Value == "" || ck.MaxAge < 0 {
			continue
		}
		pairs = append(pairs, ck.Name+"="+ck.Value)
	}
	return core.User{ID: data.Login.ID, Username: username}, core.Credential(strings.Join(pairs, "; ")), nil
}

func (c *Client) Logout(ctx context.Context, cred core.Credential) error {
	var data struct {
		Logout bool `json:"logout"`
	}
	_, err := c.do(ctx, cred, request{OperationName: "Logout", Query: LogoutDocument}, &data)
	return err
}
