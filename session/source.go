package session

import (
	"errors"

	"golang.org/x/oauth2"
)

// TokenSource exposes the stored session as an oauth2.TokenSource, so code
// that speaks the standard token interface (status reporting, downstream
// SDKs) can consume the session without knowing about the store. It never
// refreshes; an expired or absent token is an error for the caller to act on.
type TokenSource struct {
	store Store
}

var _ oauth2.TokenSource = (*TokenSource)(nil)

// ErrNoUsableToken is returned by Token when the store holds no unexpired
// access token.
var ErrNoUsableToken = errors.New("no usable access token in session store")

// NewTokenSource wraps store as an oauth2.TokenSource.
func NewTokenSource(store Store) *TokenSource {
	return &TokenSource{store: store}
}

func (s *TokenSource) Token() (*oauth2.Token, error) {
	creds, ok := s.store.Get()
	if !ok || creds.AccessToken == "" || IsExpired(creds.AccessToken) {
		return nil, ErrNoUsableToken
	}
	return &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}
