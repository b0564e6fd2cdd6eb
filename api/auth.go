package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/finview/finview-cli/session"
)

// tokenResponse is the login/refresh response body. The server has shipped
// both accessToken and token as the field name over time; access()
// normalizes that variance here instead of at every call site.
type tokenResponse struct {
	AccessToken  string      `json:"accessToken"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	TokenType    string      `json:"tokenType"`
	ExpiresIn    int64       `json:"expiresIn"`
	UserID       json.Number `json:"userId"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Role         string      `json:"role"`
}

func (t tokenResponse) access() string {
	if t.AccessToken != "" {
		return t.AccessToken
	}
	return t.Token
}

func (t tokenResponse) userID() string {
	return t.UserID.String()
}

// LoginResult is the outcome of a successful login, already persisted to the
// session store by the time the caller sees it.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	UserID      string
	Email       string
	Name        string
	Role        string
}

// Member is the authenticated user as reported by the members endpoint.
type Member struct {
	ID          json.Number `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	PhoneNumber string      `json:"phoneNumber"`
	Role        string      `json:"role"`
	Active      bool        `json:"isActive"`
}

// IsAdmin reports whether the member may use the admin endpoints.
func (m Member) IsAdmin() bool { return m.Role == "ADMIN" }

// validateTokenResponse rejects token payloads that are present but
// obviously unusable, before they reach the store.
func validateTokenResponse(accessToken, tokenType string) error {
	if accessToken == "" {
		return errors.New("accessToken is empty")
	}
	if len(accessToken) < 10 {
		return fmt.Errorf("accessToken is too short (length: %d)", len(accessToken))
	}
	if tokenType != "" && tokenType != "Bearer" {
		return fmt.Errorf("unexpected tokenType: %s (expected Bearer)", tokenType)
	}
	return nil
}

// Login exchanges credentials for a token pair and stores pair and identity
// together. The server also sets its cookies on this response; the shared
// jar picks those up as the recovery fallback.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	raw, err := c.Request(ctx, http.MethodPost, "/api/v1/auth/login", &RequestOptions{
		Body:   map[string]string{"email": email, "password": password},
		NoAuth: true,
	})
	if err != nil {
		return LoginResult{}, err
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return LoginResult{}, fmt.Errorf("failed to parse login response: %w", err)
	}
	access := tr.access()
	if err := validateTokenResponse(access, tr.TokenType); err != nil {
		return LoginResult{}, fmt.Errorf("invalid login response: %w", err)
	}

	if err := c.store.Set(session.Credentials{
		AccessToken:  access,
		RefreshToken: tr.RefreshToken,
		UserID:       tr.userID(),
		Email:        tr.Email,
	}); err != nil {
		return LoginResult{}, fmt.Errorf("failed to store session: %w", err)
	}

	c.log.Info().Str("email", tr.Email).Msg("logged in")
	return LoginResult{
		AccessToken: access,
		TokenType:   tr.TokenType,
		ExpiresIn:   tr.ExpiresIn,
		UserID:      tr.userID(),
		Email:       tr.Email,
		Name:        tr.Name,
		Role:        tr.Role,
	}, nil
}

// Signup registers a new member. No session is created; the caller logs in
// afterwards.
func (c *Client) Signup(ctx context.Context, name, email, password, phoneNumber string) error {
	_, err := c.Request(ctx, http.MethodPost, "/api/v1/members/signup", &RequestOptions{
		Body: map[string]string{
			"name":        name,
			"email":       email,
			"password":    password,
			"phoneNumber": phoneNumber,
		},
		NoAuth: true,
	})
	return err
}

// Logout invalidates the session server-side and then clears the local
// session unconditionally. A failed server call still logs the user out
// locally; a half-cleared session must never survive this method.
func (c *Client) Logout(ctx context.Context) error {
	_, reqErr := c.Request(ctx, http.MethodPost, "/api/v1/auth/logout", nil)
	if reqErr != nil {
		c.log.Warn().Err(reqErr).Msg("server-side logout failed, clearing local session anyway")
	}
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	c.log.Info().Msg("logged out")
	return nil
}

// Me fetches the current member. Doubles as the token-validation probe used
// by the route guard.
func (c *Client) Me(ctx context.Context) (Member, error) {
	var m Member
	if err := c.JSON(ctx, http.MethodGet, "/api/v1/members/me", nil, &m); err != nil {
		return Member{}, err
	}
	return m, nil
}

// FindAccount recovers the email registered for a name and phone number.
func (c *Client) FindAccount(ctx context.Context, name, phoneNumber string) (string, error) {
	var out struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	raw, err := c.Request(ctx, http.MethodPost, "/api/v1/auth/find-account", &RequestOptions{
		Body:   map[string]string{"name": name, "phoneNumber": phoneNumber},
		NoAuth: true,
	})
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to parse find-account response: %w", err)
	}
	return out.Email, nil
}

// ResetPassword verifies identity fields and asks the server to reset the
// password out of band.
func (c *Client) ResetPassword(ctx context.Context, email, name, phoneNumber string) (bool, error) {
	var out struct {
		Success bool `json:"success"`
	}
	raw, err := c.Request(ctx, http.MethodPost, "/api/v1/auth/reset-password", &RequestOptions{
		Body:   map[string]string{"email": email, "name": name, "phoneNumber": phoneNumber},
		NoAuth: true,
	})
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("failed to parse reset-password response: %w", err)
	}
	return out.Success, nil
}

// ChangePassword updates the member's password.
func (c *Client) ChangePassword(ctx context.Context, memberID, currentPassword, newPassword string) error {
	path := fmt.Sprintf("/api/v1/members/%s/password", memberID)
	return c.JSON(ctx, http.MethodPatch, path, map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}, nil)
}
