package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Transaction is a single ledger entry on an account.
type Transaction struct {
	ID        json.Number `json:"id"`
	AccountID json.Number `json:"accountId"`
	Type      string      `json:"type"`
	Amount    int64       `json:"amount"`
	Content   string      `json:"content"`
	Date      string      `json:"date"`
}

// TransactionRequest carries the writable transaction fields. Type is
// "ADD" or "REMOVE".
type TransactionRequest struct {
	AccountID json.Number `json:"accountId"`
	Type      string      `json:"type"`
	Amount    int64       `json:"amount"`
	Content   string      `json:"content"`
	Date      string      `json:"date"`
}

func (c *Client) CreateAccountTransaction(ctx context.Context, req TransactionRequest) (Transaction, error) {
	return unwrap[Transaction](ctx, c, http.MethodPost, "/api/v1/transactions/account", req)
}

func (c *Client) AccountTransactions(ctx context.Context) ([]Transaction, error) {
	return unwrap[[]Transaction](ctx, c, http.MethodGet, "/api/v1/transactions/account", nil)
}

// TransactionsByAccount lists the entries of one account.
func (c *Client) TransactionsByAccount(ctx context.Context, accountID string) ([]Transaction, error) {
	return unwrap[[]Transaction](ctx, c, http.MethodGet, "/api/v1/transactions/account/search/"+accountID, nil)
}

func (c *Client) DeleteAccountTransaction(ctx context.Context, transactionID string) error {
	_, err := unwrap[json.RawMessage](ctx, c, http.MethodDelete, "/api/v1/transactions/account/"+transactionID, nil)
	return err
}
