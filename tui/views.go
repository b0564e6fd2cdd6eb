package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// Lipgloss styles, defined once at package level.
var (
	styleTitleBox = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 2)

	styleBalanceBox = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("228")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("228")).
			Padding(0, 2)

	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleBold = lipgloss.NewStyle().Bold(true)
)

// View renders the current screen.
func (m Model) View() tea.View {
	if m.pending != "" {
		return tea.NewView(m.viewLoading())
	}
	switch m.route {
	case routeLogin:
		return tea.NewView(m.viewLogin())
	case routeMypage:
		return tea.NewView(m.viewDashboard())
	case routeAccounts:
		return tea.NewView(m.viewAccounts())
	case routeGoals:
		return tea.NewView(m.viewGoals())
	default:
		return tea.NewView(m.viewWelcome())
	}
}

func (m Model) viewLoading() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.spinner.View())
	b.WriteString(" Loading...\n")
	b.WriteString(m.viewStatusLog())
	return b.String()
}

func (m Model) viewWelcome() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  FinView  "))
	b.WriteString("\n\n")
	b.WriteString("Track accounts, transactions, and savings goals from the terminal.\n\n")
	b.WriteString(styleBold.Render("enter"))
	b.WriteString(styleDim.Render("  log in    "))
	b.WriteString(styleBold.Render("q"))
	b.WriteString(styleDim.Render("  quit"))
	b.WriteString("\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

func (m Model) viewLogin() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  Log in  "))
	b.WriteString("\n\n")

	b.WriteString("  " + m.email.View() + "\n")
	b.WriteString("  " + m.password.View() + "\n\n")

	if m.busy {
		b.WriteString("  " + m.spinner.View() + " Logging in...\n")
	} else if m.errMsg != "" {
		b.WriteString(styleErr.Render("  " + m.errMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render("  tab switch field   enter submit   esc back"))
	b.WriteString("\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

func (m Model) viewDashboard() string {
	var b strings.Builder

	b.WriteString("\n")
	title := "  My Page  "
	if m.member.Name != "" {
		title = "  My Page · " + m.member.Name + "  "
	}
	b.WriteString(styleTitleBox.Render(title))
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(styleErr.Render("  " + m.errMsg))
		b.WriteString("\n\n")
	}

	if m.member.Email == "" && m.errMsg == "" {
		b.WriteString("  " + m.spinner.View() + " Loading dashboard...\n")
	} else {
		b.WriteString(styleBold.Render("  Total balance"))
		b.WriteString("\n  ")
		b.WriteString(styleBalanceBox.Render(formatAmount(m.balance) + " KRW"))
		b.WriteString("\n\n")

		b.WriteString(styleBold.Render(fmt.Sprintf("  Goals (%d)", len(m.goals))))
		b.WriteString("\n")
		if len(m.goals) == 0 {
			b.WriteString(styleDim.Render("  No savings goals yet"))
			b.WriteString("\n")
		}
		for i, g := range m.goals {
			if i == 3 {
				b.WriteString(styleDim.Render(fmt.Sprintf("  ... and %d more", len(m.goals)-i)))
				b.WriteString("\n")
				break
			}
			b.WriteString(fmt.Sprintf("  %s  %s\n", progressBar(g.Progress()), g.Description))
		}

		if len(m.notices) > 0 {
			b.WriteString("\n")
			b.WriteString(styleBold.Render("  Notice"))
			b.WriteString("\n")
			b.WriteString(styleDim.Render("  " + m.notices[0].Title))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render("  a accounts   g goals   r reload   o log out   q quit"))
	b.WriteString("\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

func (m Model) viewAccounts() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  Accounts  "))
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(styleErr.Render("  " + m.errMsg))
		b.WriteString("\n")
	} else if len(m.accounts) == 0 {
		b.WriteString(styleDim.Render("  No accounts registered"))
		b.WriteString("\n")
	}
	for _, a := range m.accounts {
		b.WriteString(fmt.Sprintf(
			"  %-20s %-18s %s\n",
			a.Name,
			styleDim.Render(a.AccountNumber),
			styleBold.Render(formatAmount(a.Balance)),
		))
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render("  esc back   r reload   q quit"))
	b.WriteString("\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

func (m Model) viewGoals() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  Savings Goals  "))
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(styleErr.Render("  " + m.errMsg))
		b.WriteString("\n")
	} else if len(m.goals) == 0 {
		b.WriteString(styleDim.Render("  No savings goals yet"))
		b.WriteString("\n")
	}
	for _, g := range m.goals {
		b.WriteString(fmt.Sprintf(
			"  %s %3d%%  %-24s %s / %s\n",
			progressBar(g.Progress()),
			g.Progress(),
			g.Description,
			formatAmount(g.CurrentAmount),
			formatAmount(g.TargetAmount),
		))
		if g.Deadline != "" {
			b.WriteString(styleDim.Render("         due " + g.Deadline))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render("  esc back   r reload   q quit"))
	b.WriteString("\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewStatusLog renders the scrolling status log.
func (m Model) viewStatusLog() string {
	if len(m.statusLines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")

	for _, line := range m.statusLines {
		switch line.kind {
		case statusOK:
			b.WriteString(styleOK.Render("  ✓ " + line.text))
		case statusWarn:
			b.WriteString(styleWarn.Render("  ⚠ " + line.text))
		default:
			b.WriteString(styleDim.Render("  · " + line.text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// progressBar renders a ten-cell bar for a 0..100 percentage.
func progressBar(percent int) string {
	filled := percent / 10
	return styleOK.Render(strings.Repeat("█", filled)) + styleDim.Render(strings.Repeat("░", 10-filled))
}

// formatAmount groups digits in thousands: 1234567 -> "1,234,567".
func formatAmount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
