package api

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/finview/finview-cli/session"
)

// newTestClient wires a Client, Refresher, and file-backed store against the
// given test server URL.
func newTestClient(t *testing.T, serverURL string) (*Client, *Refresher, session.Store) {
	t.Helper()

	hc, err := retry.NewClient()
	if err != nil {
		t.Fatalf("failed to create retry client: %v", err)
	}
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), serverURL, nil)
	refresher := NewRefresher(serverURL, hc, store, zerolog.Nop())
	client := NewClient(serverURL, hc, store, refresher, zerolog.Nop())
	return client, refresher, store
}

// testToken mints an HS256 token expiring at now+ttl.
func testToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(ttl).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

// seedSession stores a full session whose access token expires at now+ttl.
func seedSession(t *testing.T, store session.Store, ttl time.Duration) session.Credentials {
	t.Helper()
	creds := session.Credentials{
		AccessToken:  testToken(t, ttl),
		RefreshToken: "refresh-token-123456",
		UserID:       "42",
		Email:        "user@example.com",
	}
	if err := store.Set(creds); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return creds
}

// tokenPairJSON is a refresh/login response body with the given tokens.
func tokenPairJSON(access, refreshToken string) string {
	if refreshToken == "" {
		return fmt.Sprintf(`{"accessToken":%q,"tokenType":"Bearer","expiresIn":1800,"userId":42,"email":"user@example.com"}`, access)
	}
	return fmt.Sprintf(`{"accessToken":%q,"refreshToken":%q,"tokenType":"Bearer","expiresIn":1800,"userId":42,"email":"user@example.com"}`, access, refreshToken)
}
