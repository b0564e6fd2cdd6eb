package tui

import (
	"github.com/finview/finview-cli/api"
	"github.com/finview/finview-cli/guard"
)

// routeResolvedMsg carries the guard's decision for a requested path.
type routeResolvedMsg struct {
	path     string
	decision guard.Decision
}

// loginDoneMsg is the outcome of a login attempt.
type loginDoneMsg struct {
	result api.LoginResult
	err    error
}

// logoutDoneMsg is the outcome of a logout.
type logoutDoneMsg struct{ err error }

// dashboardLoadedMsg carries the summary data for the dashboard screen.
type dashboardLoadedMsg struct {
	member  api.Member
	balance int64
	goals   []api.Goal
	notices []api.Notice
	err     error
}

// accountsLoadedMsg carries the account list screen data.
type accountsLoadedMsg struct {
	accounts []api.Account
	err      error
}

// goalsLoadedMsg carries the goal list screen data.
type goalsLoadedMsg struct {
	goals []api.Goal
	err   error
}

// SessionExpiredMsg is injected from outside the event loop when a token
// refresh fails mid-request. The session store is already cleared by then;
// the model only has to navigate back to the entry screen.
type SessionExpiredMsg struct{}
