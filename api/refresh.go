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
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/finview/finview-cli/session"
)

const refreshTimeout = 10 * time.Second

// Refresher exchanges the stored refresh token for a new token pair.
//
// Concurrent callers share a single in-flight refresh call: with rotating
// refresh tokens, a second parallel refresh would invalidate the token the
// first call already spent, logging out a legitimate caller. The
// singleflight group is the correctness core of this type.
type Refresher struct {
	baseURL string
	http    *retry.Client
	store   session.Store
	log     zerolog.Logger
	group   singleflight.Group

	// OnSessionExpired, when set, runs after a rejected refresh has cleared
	// the session. The navigation layer uses it to send the user back to the
	// public entry screen.
	OnSessionExpired func()
}

// NewRefresher creates a Refresher for the API at baseURL.
func NewRefresher(baseURL string, hc *retry.Client, store session.Store, log zerolog.Logger) *Refresher {
	return &Refresher{baseURL: baseURL, http: hc, store: store, log: log}
}

// Refresh returns a fresh access token, issuing at most one network call no
// matter how many callers arrive concurrently. Every caller sharing the
// flight observes the same outcome.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	v, err, shared := r.group.Do("refresh", func() (any, error) {
		return r.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	if shared {
		r.log.Debug().Msg("joined in-flight token refresh")
	}
	return v.(string), nil
}

func (r *Refresher) refresh(ctx context.Context) (string, error) {
	creds, ok := r.store.Get()
	if !ok || creds.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token available", ErrRefreshFailed)
	}

	reqCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{"refreshToken": creds.RefreshToken})
	if err != nil {
		return "", fmt.Errorf("failed to encode refresh request: %w", err)
	}
	req, err := http.NewRequestWithContext(
		reqCtx,
		http.MethodPost,
		r.baseURL+"/api/v1/auth/refresh",
		bytes.NewReader(payload),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := r.http.DoWithContext(reqCtx, req)
	if err != nil {
		r.expireSession()
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.expireSession()
		return "", fmt.Errorf("%w: failed to read response: %v", ErrRefreshFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.log.Warn().Int("status", resp.StatusCode).Msg("refresh rejected, clearing session")
		r.expireSession()
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, newRemoteError(resp.StatusCode, body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		r.expireSession()
		return "", fmt.Errorf("%w: failed to parse token response: %v", ErrRefreshFailed, err)
	}
	access := tr.access()
	if access == "" {
		r.expireSession()
		return "", fmt.Errorf("%w: token response carried no access token", ErrRefreshFailed)
	}

	// Rotation vs fixed mode: keep the old refresh token when the server did
	// not send a new one. Either way the pair is replaced as a whole.
	newCreds := session.Credentials{
		AccessToken:  access,
		RefreshToken: tr.RefreshToken,
		UserID:       tr.userID(),
		Email:        tr.Email,
	}
	if newCreds.RefreshToken == "" {
		newCreds.RefreshToken = creds.RefreshToken
	}
	if newCreds.UserID == "" {
		newCreds.UserID = creds.UserID
	}
	if newCreds.Email == "" {
		newCreds.Email = creds.Email
	}

	if err := r.store.Set(newCreds); err != nil {
		return "", fmt.Errorf("%w: failed to store refreshed tokens: %v", ErrRefreshFailed, err)
	}

	r.log.Debug().Msg("access token refreshed")
	return access, nil
}

// expireSession clears the whole stored session and notifies the navigation
// layer. A failed refresh always means "log the user out", never "retry
// silently".
func (r *Refresher) expireSession() {
	if err := r.store.Clear(); err != nil {
		r.log.Error().Err(err).Msg("failed to clear session after rejected refresh")
	}
	if r.OnSessionExpired != nil {
		r.OnSessionExpired()
	}
}
