// Package guard decides, for each navigation, whether the requested path
// may render or the user must be redirected — the client-side gate between
// authentication state and screens.
package guard

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/finview/finview-cli/api"
	"github.com/finview/finview-cli/session"
)

// Well-known paths.
const (
	// PublicEntryPath is where unauthenticated users land.
	PublicEntryPath = "/"
	// LandingPath is where authenticated users land.
	LandingPath = "/mypage"
)

// protectedPrefixes lists the path prefixes that require a session.
var protectedPrefixes = []string{"/mypage", "/admin"}

// Protected classifies a path. Classification is a pure prefix match; it
// never consults session state.
func Protected(path string) bool {
	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Action is what the navigation layer should do with the requested path.
type Action int

const (
	// Stay renders the requested path.
	Stay Action = iota
	// Redirect navigates to Decision.Path instead.
	Redirect
)

// Decision is the outcome of one navigation check.
type Decision struct {
	Action Action
	// Path is the redirect target when Action is Redirect.
	Path string
}

func stay() Decision                { return Decision{Action: Stay} }
func redirect(path string) Decision { return Decision{Action: Redirect, Path: path} }

// State is the per-navigation machine state. Every navigation starts a new
// cycle at Loading and terminates at Resolved; there is no error state —
// every failure resolves into a redirect or into staying put.
type State int

const (
	Loading State = iota
	Resolved
)

// Guard evaluates navigations. Not safe for concurrent use; the navigation
// layer is single-threaded (one evaluation per navigation event).
type Guard struct {
	store session.Store
	api   *api.Client
	log   zerolog.Logger
	state State
}

// New creates a Guard over the session store and the authenticated client
// (used for the token-validation probe and silent cookie recovery).
func New(store session.Store, client *api.Client, log zerolog.Logger) *Guard {
	return &Guard{store: store, api: client, log: log, state: Resolved}
}

// State returns the current machine state. Loading while an Evaluate call is
// in flight, Resolved otherwise.
func (g *Guard) State() State { return g.state }

// Evaluate runs the navigation state machine for path and returns a
// decision. It never returns an error.
func (g *Guard) Evaluate(ctx context.Context, path string) Decision {
	g.state = Loading
	defer func() { g.state = Resolved }()

	d := g.evaluate(ctx, path)
	if d.Action == Redirect {
		g.log.Debug().Str("path", path).Str("target", d.Path).Msg("navigation redirected")
	}
	return d
}

func (g *Guard) evaluate(ctx context.Context, path string) Decision {
	creds, ok := g.store.Get()
	if ok {
		creds, ok = g.recover(ctx, creds)
	}

	if Protected(path) {
		if !ok {
			return redirect(PublicEntryPath)
		}
		return g.checkSession(ctx)
	}

	// A logged-in user opening the bare entry path goes straight to the
	// dashboard. Other public paths (login form, recovery) always render.
	if path == PublicEntryPath && ok && !session.IsExpired(creds.AccessToken) {
		return redirect(LandingPath)
	}
	return stay()
}

// recover promotes a cookie-only session (access token but no identity,
// left by the server's login cookie) into a full local record, after
// validating the token against the API. An invalid cookie token degrades to
// "no session" rather than failing.
func (g *Guard) recover(ctx context.Context, creds session.Credentials) (session.Credentials, bool) {
	if creds.UserID != "" || creds.RefreshToken != "" {
		return creds, true
	}
	if session.IsExpired(creds.AccessToken) {
		return session.Credentials{}, false
	}

	member, err := g.api.Me(ctx)
	if err != nil {
		g.log.Debug().Err(err).Msg("cookie session validation failed")
		return session.Credentials{}, false
	}

	promoted := session.Credentials{
		AccessToken: creds.AccessToken,
		UserID:      member.ID.String(),
		Email:       member.Email,
	}
	if err := g.store.Set(promoted); err != nil {
		g.log.Warn().Err(err).Msg("failed to persist recovered session")
	} else {
		g.log.Info().Msg("recovered session from cookie")
	}
	return promoted, true
}

// checkSession validates an existing session for a protected path. The
// client already performs the one allowed refresh-and-retry cycle, so a
// session-terminating error here means refresh was attempted and lost.
func (g *Guard) checkSession(ctx context.Context) Decision {
	if _, err := g.api.Me(ctx); err != nil {
		if errors.Is(err, api.ErrRefreshFailed) ||
			errors.Is(err, api.ErrAuthorizationFailed) ||
			errors.Is(err, api.ErrNotAuthenticated) {
			// The failed refresh cleared the store already; Clear again is
			// harmless and keeps the invariant local.
			if clearErr := g.store.Clear(); clearErr != nil {
				g.log.Error().Err(clearErr).Msg("failed to clear session during route guard")
			}
			return redirect(PublicEntryPath)
		}
		// Network trouble or a server-side error is not a reason to log the
		// user out; render the page and let it surface its own error.
		g.log.Warn().Err(err).Msg("session validation inconclusive, staying on path")
	}
	return stay()
}
