// Package api is the authenticated HTTP client for the finview backend:
// token resolution and refresh, the single retry-after-refresh cycle on
// authorization failures, and thin typed wrappers over the REST endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finview/finview-cli/session"
)

const requestTimeout = 15 * time.Second

// Client issues authenticated calls against the finview API. Every request
// resolves a usable access token first (refreshing an expired one), attaches
// it as a bearer credential, and on a 401/403 response performs exactly one
// refresh-and-retry cycle before giving up.
type Client struct {
	baseURL   string
	http      *retry.Client
	store     session.Store
	refresher *Refresher
	log       zerolog.Logger
}

// NewClient creates a Client for the API at baseURL. The retry client should
// carry a cookie jar shared with the session store's cookie fallback.
func NewClient(baseURL string, hc *retry.Client, store session.Store, refresher *Refresher, log zerolog.Logger) *Client {
	return &Client{baseURL: baseURL, http: hc, store: store, refresher: refresher, log: log}
}

// RequestOptions control a single call. The zero value is a plain
// authenticated request with no body.
type RequestOptions struct {
	// Header entries always win over anything the client would set itself,
	// including Authorization and Content-Type.
	Header http.Header

	// Body is marshaled as JSON and sent with a JSON content type unless the
	// caller supplied one.
	Body any

	// RawBody is sent as-is (multipart uploads and the like). The caller owns
	// the content type; none is ever added. Takes precedence over Body.
	RawBody io.Reader

	// NoAuth skips token resolution entirely. Used by login, signup, and the
	// account-recovery endpoints, which run before a session exists.
	NoAuth bool
}

// Request performs one API call and returns the raw JSON body. A success
// with an empty body yields "{}" so callers can unmarshal unconditionally.
func (c *Client) Request(ctx context.Context, method, path string, opts *RequestOptions) (json.RawMessage, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	body, contentType, err := encodeBody(opts)
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	for k, vs := range opts.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	if header.Get("X-Request-Id") == "" {
		header.Set("X-Request-Id", uuid.NewString())
	}
	if contentType != "" && header.Get("Content-Type") == "" {
		header.Set("Content-Type", contentType)
	}

	callerAuth := header.Get("Authorization") != ""
	if !callerAuth && !opts.NoAuth {
		token, err := c.usableToken(ctx)
		if err != nil {
			return nil, err
		}
		header.Set("Authorization", "Bearer "+token)
	}

	status, respBody, err := c.send(ctx, method, path, header, body)
	if err != nil {
		return nil, err
	}

	// One refresh-and-retry cycle on an authorization failure. Skipped when
	// the caller pinned its own Authorization header: refreshing behind its
	// back would override an explicit choice.
	retried := false
	if (status == http.StatusUnauthorized || status == http.StatusForbidden) && !callerAuth && !opts.NoAuth {
		firstErr := newRemoteError(status, respBody)
		c.log.Debug().Int("status", status).Str("path", path).Msg("authorization failure, refreshing token")

		token, refreshErr := c.refresher.Refresh(ctx)
		if refreshErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthorizationFailed, refreshErr)
		}
		header.Set("Authorization", "Bearer "+token)

		retried = true
		status, respBody, err = c.send(ctx, method, path, header, body)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			// The refreshed token was rejected too. The session is not
			// salvageable from here.
			if clearErr := c.store.Clear(); clearErr != nil {
				c.log.Error().Err(clearErr).Msg("failed to clear session after repeated authorization failure")
			}
			return nil, fmt.Errorf("%w: %v", ErrAuthorizationFailed, firstErr)
		}
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Bool("retried", retried).
		Msg("api request")

	if status < 200 || status > 299 {
		return nil, newRemoteError(status, respBody)
	}
	if len(respBody) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(respBody) {
		return nil, &RemoteError{Status: status, Message: "malformed response body"}
	}
	return json.RawMessage(respBody), nil
}

// JSON performs a call with an optional JSON body and unmarshals the
// response into out. out may be nil to discard the body.
func (c *Client) JSON(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.Request(ctx, method, path, &RequestOptions{Body: body})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RemoteError{Status: http.StatusOK, Message: fmt.Sprintf("malformed response body: %v", err)}
	}
	return nil
}

// usableToken returns an unexpired access token, refreshing when the stored
// one is absent or expired.
func (c *Client) usableToken(ctx context.Context) (string, error) {
	creds, ok := c.store.Get()
	if ok && creds.AccessToken != "" && !session.IsExpired(creds.AccessToken) {
		return creds.AccessToken, nil
	}
	if !ok {
		return "", ErrNotAuthenticated
	}
	return c.refresher.Refresh(ctx)
}

// send issues one HTTP attempt. The body is replayed from the buffered bytes
// so the refresh retry can resend it.
func (c *Client) send(ctx context.Context, method, path string, header http.Header, body []byte) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = header.Clone()

	resp, err := c.http.DoWithContext(reqCtx, req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// encodeBody buffers the request body up front so authorization retries can
// replay it, and decides whether a JSON content type applies.
func encodeBody(opts *RequestOptions) ([]byte, string, error) {
	if opts.RawBody != nil {
		data, err := io.ReadAll(opts.RawBody)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read request body: %w", err)
		}
		return data, "", nil
	}
	if opts.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(opts.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode request body: %w", err)
	}
	return data, "application/json; charset=utf-8", nil
}
