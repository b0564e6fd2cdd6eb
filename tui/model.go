// Package tui is the interactive dashboard: a small router over the route
// guard plus one view per screen. Every navigation goes through the guard;
// the model never renders a protected screen the guard did not approve.
package tui

import (
	"context"
	"errors"
	"fmt"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/finview/finview-cli/api"
	"github.com/finview/finview-cli/guard"
)

// Screen routes. Matching the server's paths keeps the guard rules shared
// between this model and the headless flows.
const (
	routeWelcome  = guard.PublicEntryPath
	routeLogin    = "/auth/login"
	routeMypage   = guard.LandingPath
	routeAccounts = "/mypage/accounts"
	routeGoals    = "/mypage/goals"
)

// statusKind distinguishes line types in the status log.
type statusKind int

const (
	statusOK   statusKind = iota
	statusWarn            // warning / non-fatal
	statusInfo            // neutral info
)

// statusLine is one row in the scrolling status log.
type statusLine struct {
	kind statusKind
	text string
}

// Model is the BubbleTea model for the dashboard.
type Model struct {
	client *api.Client
	guard  *guard.Guard
	log    zerolog.Logger

	// route is the screen currently rendered; pending is the path being
	// resolved by the guard while the spinner shows.
	route   string
	pending string
	spinner spinner.Model
	width   int
	height  int

	// Login form
	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool

	// Screen data
	member   api.Member
	balance  int64
	accounts []api.Account
	goals    []api.Goal
	notices  []api.Notice

	errMsg      string
	statusLines []statusLine
}

// NewModel creates the initial model. The first navigation targets the entry
// path; the guard decides whether a stored session skips the welcome screen.
func NewModel(client *api.Client, g *guard.Guard, log zerolog.Logger) Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))),
	)

	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	return Model{
		client:   client,
		guard:    g,
		log:      log,
		route:    routeWelcome,
		spinner:  s,
		email:    email,
		password: password,
	}
}

// Init starts the spinner and resolves the entry route.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.navigate(routeWelcome))
}

// navigate runs the guard for path off the event loop and reports its
// decision.
func (m Model) navigate(path string) tea.Cmd {
	return func() tea.Msg {
		return routeResolvedMsg{path: path, decision: m.guard.Evaluate(context.Background(), path)}
	}
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case routeResolvedMsg:
		return m.handleRoute(msg)

	case loginDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = loginErrorText(msg.err)
			return m, nil
		}
		m.errMsg = ""
		m.password.Reset()
		m.addStatus(statusOK, "Logged in as "+msg.result.Email)
		return m, m.navigate(routeMypage)

	case logoutDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.addStatus(statusWarn, fmt.Sprintf("Logout failed: %v", msg.err))
		} else {
			m.addStatus(statusOK, "Logged out")
		}
		m.member = api.Member{}
		return m, m.navigate(routeWelcome)

	case SessionExpiredMsg:
		m.addStatus(statusWarn, "Session expired, please log in again")
		m.member = api.Member{}
		return m, m.navigate(routeWelcome)

	case dashboardLoadedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.member = msg.member
		m.balance = msg.balance
		m.goals = msg.goals
		m.notices = msg.notices
		return m, nil

	case accountsLoadedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.accounts = msg.accounts
		return m, nil

	case goalsLoadedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.goals = msg.goals
		return m, nil
	}

	return m, nil
}

// handleRoute applies a guard decision. A redirect re-enters the guard for
// the target path; the chain terminates because redirect targets always
// resolve to Stay on the second pass.
func (m Model) handleRoute(msg routeResolvedMsg) (tea.Model, tea.Cmd) {
	if msg.decision.Action == guard.Redirect {
		m.pending = msg.decision.Path
		return m, m.navigate(msg.decision.Path)
	}

	m.pending = ""
	m.route = msg.path
	m.errMsg = ""

	switch msg.path {
	case routeLogin:
		m.focus = 0
		m.password.Blur()
		return m, m.email.Focus()
	case routeMypage:
		return m, m.loadDashboard()
	case routeAccounts:
		return m, m.loadAccounts()
	case routeGoals:
		return m, m.loadGoals()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.route {
	case routeWelcome:
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "enter", "l":
			return m, m.navigate(routeLogin)
		}
		return m, nil

	case routeLogin:
		return m.handleLoginKey(msg)

	case routeMypage:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "a":
			return m, m.navigate(routeAccounts)
		case "g":
			return m, m.navigate(routeGoals)
		case "r":
			return m, m.loadDashboard()
		case "o":
			if m.busy {
				return m, nil
			}
			m.busy = true
			return m, m.logout()
		}
		return m, nil

	case routeAccounts, routeGoals:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc", "backspace":
			return m, m.navigate(routeMypage)
		case "r":
			if m.route == routeAccounts {
				return m, m.loadAccounts()
			}
			return m, m.loadGoals()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, m.navigate(routeWelcome)

	case "tab", "shift+tab", "up", "down":
		m.focus = 1 - m.focus
		if m.focus == 0 {
			m.password.Blur()
			return m, m.email.Focus()
		}
		m.email.Blur()
		return m, m.password.Focus()

	case "enter":
		if m.focus == 0 {
			m.focus = 1
			m.email.Blur()
			return m, m.password.Focus()
		}
		if m.busy || m.email.Value() == "" || m.password.Value() == "" {
			return m, nil
		}
		m.busy = true
		m.errMsg = ""
		return m, m.login(m.email.Value(), m.password.Value())
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// ── Commands ─────────────────────────────────────────────────────────────

func (m Model) login(email, password string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.client.Login(context.Background(), email, password)
		return loginDoneMsg{result: result, err: err}
	}
}

func (m Model) logout() tea.Cmd {
	return func() tea.Msg {
		return logoutDoneMsg{err: m.client.Logout(context.Background())}
	}
}

func (m Model) loadDashboard() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		member, err := m.client.Me(ctx)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}
		balance, err := m.client.TotalBalance(ctx)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}
		goals, err := m.client.Goals(ctx)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}
		// Notices are decoration; a failure here must not blank the screen.
		notices, err := m.client.Notices(ctx)
		if err != nil {
			notices = nil
		}
		return dashboardLoadedMsg{member: member, balance: balance, goals: goals, notices: notices}
	}
}

func (m Model) loadAccounts() tea.Cmd {
	return func() tea.Msg {
		accounts, err := m.client.Accounts(context.Background())
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

func (m Model) loadGoals() tea.Cmd {
	return func() tea.Msg {
		goals, err := m.client.Goals(context.Background())
		return goalsLoadedMsg{goals: goals, err: err}
	}
}

// addStatus appends a line to the status log, keeping the last few.
func (m *Model) addStatus(kind statusKind, text string) {
	m.statusLines = append(m.statusLines, statusLine{kind: kind, text: text})
	if len(m.statusLines) > 5 {
		m.statusLines = m.statusLines[len(m.statusLines)-5:]
	}
}

// loginErrorText turns a login failure into a message fit for the form.
func loginErrorText(err error) string {
	var remote *api.RemoteError
	if errors.As(err, &remote) {
		if remote.Status == 401 || remote.Status == 400 {
			return "Invalid email or password"
		}
		return remote.Message
	}
	return fmt.Sprintf("Login failed: %v", err)
}
