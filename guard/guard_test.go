package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/finview/finview-cli/api"
	"github.com/finview/finview-cli/session"
)

func newTestGuard(t *testing.T, serverURL string) (*Guard, session.Store) {
	t.Helper()

	hc, err := retry.NewClient()
	if err != nil {
		t.Fatalf("failed to create retry client: %v", err)
	}
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), serverURL, nil)
	refresher := api.NewRefresher(serverURL, hc, store, zerolog.Nop())
	client := api.NewClient(serverURL, hc, store, refresher, zerolog.Nop())
	return New(store, client, zerolog.Nop()), store
}

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

func memberHandler(t *testing.T, wantToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/members/me" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if wantToken != "" && r.Header.Get("Authorization") != "Bearer "+wantToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":42,"email":"user@example.com","name":"Ada","role":"USER","isActive":true}`))
	}
}

func TestProtected(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/", false},
		{"/auth/login", false},
		{"/auth/find-account", false},
		{"/mypage", true},
		{"/mypage/accounts", true},
		{"/mypage/goals/3", true},
		{"/admin", true},
		{"/admin/members", true},
		{"/mypage2", false},
		{"/administrator", false},
	}
	for _, tt := range tests {
		if got := Protected(tt.path); got != tt.want {
			t.Errorf("Protected(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestProtectedPathWithoutSession(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	g, _ := newTestGuard(t, server.URL)

	d := g.Evaluate(context.Background(), "/mypage")
	if d.Action != Redirect || d.Path != PublicEntryPath {
		t.Errorf("decision = %+v, want redirect to %q", d, PublicEntryPath)
	}
	if calls.Load() != 0 {
		t.Error("no session means no network probe")
	}
	if g.State() != Resolved {
		t.Error("guard must end each evaluation resolved")
	}
}

func TestEntryPathWithValidSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	g, store := newTestGuard(t, server.URL)
	if err := store.Set(session.Credentials{
		AccessToken:  testToken(t, time.Hour),
		RefreshToken: "refresh-token-123456",
		UserID:       "42",
	}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	d := g.Evaluate(context.Background(), "/")
	if d.Action != Redirect || d.Path != LandingPath {
		t.Errorf("decision = %+v, want redirect to %q", d, LandingPath)
	}
}

func TestEntryPathWithoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	g, _ := newTestGuard(t, server.URL)

	if d := g.Evaluate(context.Background(), "/"); d.Action != Stay {
		t.Errorf("decision = %+v, want stay", d)
	}
}

func TestProtectedPathWithValidSession(t *testing.T) {
	token := testToken(t, time.Hour)
	server := httptest.NewServer(memberHandler(t, token))
	defer server.Close()

	g, store := newTestGuard(t, server.URL)
	if err := store.Set(session.Credentials{
		AccessToken:  token,
		RefreshToken: "refresh-token-123456",
		UserID:       "42",
	}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	if d := g.Evaluate(context.Background(), "/mypage"); d.Action != Stay {
		t.Errorf("decision = %+v, want stay", d)
	}
}

func TestProtectedPathRefreshesExpiredToken(t *testing.T) {
	fresh := testToken(t, time.Hour)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"accessToken":"` + fresh + `","tokenType":"Bearer"}`))
	})
	mux.HandleFunc("/api/v1/members/me", memberHandler(t, fresh))
	server := httptest.NewServer(mux)
	defer server.Close()

	g, store := newTestGuard(t, server.URL)
	if err := store.Set(session.Credentials{
		AccessToken:  testToken(t, -time.Minute),
		RefreshToken: "refresh-token-123456",
		UserID:       "42",
	}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	if d := g.Evaluate(context.Background(), "/mypage/accounts"); d.Action != Stay {
		t.Errorf("decision = %+v, want stay", d)
	}
	creds, ok := store.Get()
	if !ok || creds.AccessToken != fresh {
		t.Error("expected the refreshed token stored after the guard check")
	}
}

func TestProtectedPathRedirectsWhenRefreshFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"session expired"}`))
	}))
	defer server.Close()

	g, store := newTestGuard(t, server.URL)
	if err := store.Set(session.Credentials{
		AccessToken:  testToken(t, -time.Minute),
		RefreshToken: "refresh-token-123456",
		UserID:       "42",
	}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	d := g.Evaluate(context.Background(), "/mypage")
	if d.Action != Redirect || d.Path != PublicEntryPath {
		t.Errorf("decision = %+v, want redirect to %q", d, PublicEntryPath)
	}
	if _, ok := store.Get(); ok {
		t.Error("expected the session cleared after the failed refresh")
	}
}

func TestProtectedPathStaysOnServerError(t *testing.T) {
	token := testToken(t, time.Hour)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	g, store := newTestGuard(t, server.URL)
	if err := store.Set(session.Credentials{
		AccessToken:  token,
		RefreshToken: "refresh-token-123456",
		UserID:       "42",
	}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	if d := g.Evaluate(context.Background(), "/mypage"); d.Action != Stay {
		t.Errorf("decision = %+v, want stay on a non-auth failure", d)
	}
	if _, ok := store.Get(); !ok {
		t.Error("a server error must not log the user out")
	}
}

type staticCookie struct {
	token   string
	expired bool
}

func (c *staticCookie) AccessToken() (string, bool) { return c.token, c.token != "" }
func (c *staticCookie) Expire()                     { c.expired = true }

func TestCookieSessionRecovery(t *testing.T) {
	token := testToken(t, time.Hour)
	server := httptest.NewServer(memberHandler(t, token))
	defer server.Close()

	hc, err := retry.NewClient()
	if err != nil {
		t.Fatalf("failed to create retry client: %v", err)
	}
	cookie := &staticCookie{token: token}
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), server.URL, cookie)
	refresher := api.NewRefresher(server.URL, hc, store, zerolog.Nop())
	client := api.NewClient(server.URL, hc, store, refresher, zerolog.Nop())
	g := New(store, client, zerolog.Nop())

	if d := g.Evaluate(context.Background(), "/mypage"); d.Action != Stay {
		t.Errorf("decision = %+v, want stay after cookie recovery", d)
	}

	creds, ok := store.Get()
	if !ok {
		t.Fatal("expected a promoted session record")
	}
	if creds.UserID != "42" || creds.Email != "user@example.com" {
		t.Errorf("promoted identity = %q %q", creds.UserID, creds.Email)
	}
}

func TestExpiredCookieSessionDegradesToNone(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	hc, err := retry.NewClient()
	if err != nil {
		t.Fatalf("failed to create retry client: %v", err)
	}
	cookie := &staticCookie{token: testToken(t, -time.Minute)}
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), server.URL, cookie)
	refresher := api.NewRefresher(server.URL, hc, store, zerolog.Nop())
	client := api.NewClient(server.URL, hc, store, refresher, zerolog.Nop())
	g := New(store, client, zerolog.Nop())

	d := g.Evaluate(context.Background(), "/mypage")
	if d.Action != Redirect || d.Path != PublicEntryPath {
		t.Errorf("decision = %+v, want redirect to %q", d, PublicEntryPath)
	}
	if calls.Load() != 0 {
		t.Error("an expired cookie token must not be probed against the API")
	}
}
