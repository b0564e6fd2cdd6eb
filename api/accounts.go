package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// envelope is the server's RsData wrapper around domain payloads.
type envelope[T any] struct {
	ResultCode string `json:"resultCode"`
	Msg        string `json:"msg"`
	Data       T      `json:"data"`
}

// unwrap performs an authenticated call against an enveloped endpoint and
// returns the inner payload.
func unwrap[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var env envelope[T]
	if err := c.JSON(ctx, method, path, body, &env); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

// Account is a bank account tracked by the dashboard.
type Account struct {
	ID            json.Number `json:"id"`
	AccountNumber string      `json:"accountNumber"`
	Name          string      `json:"name"`
	Balance       int64       `json:"balance"`
}

// CreateAccountRequest carries the fields for registering a new account.
type CreateAccountRequest struct {
	AccountNumber string `json:"accountNumber"`
	Name          string `json:"name"`
	Balance       int64  `json:"balance"`
}

func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (Account, error) {
	return unwrap[Account](ctx, c, http.MethodPost, "/api/v1/accounts", req)
}

func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	return unwrap[[]Account](ctx, c, http.MethodGet, "/api/v1/accounts", nil)
}

func (c *Client) Account(ctx context.Context, accountID string) (Account, error) {
	return unwrap[Account](ctx, c, http.MethodGet, "/api/v1/accounts/"+accountID, nil)
}

func (c *Client) UpdateAccount(ctx context.Context, accountID string, req CreateAccountRequest) (Account, error) {
	return unwrap[Account](ctx, c, http.MethodPut, "/api/v1/accounts/"+accountID, req)
}

func (c *Client) DeleteAccount(ctx context.Context, accountID string) error {
	_, err := unwrap[json.RawMessage](ctx, c, http.MethodDelete, "/api/v1/accounts/"+accountID, nil)
	return err
}

// TotalBalance sums the balances of all accounts. Used by the dashboard
// summary screen.
func (c *Client) TotalBalance(ctx context.Context) (int64, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load accounts: %w", err)
	}
	var total int64
	for _, a := range accounts {
		total += a.Balance
	}
	return total, nil
}
