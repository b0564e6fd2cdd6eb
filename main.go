// finview is a terminal dashboard for the FinView personal-finance API.
// It keeps a persistent login session on disk, refreshes access tokens
// transparently, and guards every screen change the way the web app guards
// its routes.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "charm.land/bubbletea/v2"

	"github.com/finview/finview-cli/api"
	"github.com/finview/finview-cli/guard"
	"github.com/finview/finview-cli/session"
	"github.com/finview/finview-cli/tui"
)

// app bundles the wired components shared by the TUI and the headless flows.
type app struct {
	store     session.Store
	refresher *api.Refresher
	client    *api.Client
	guard     *guard.Guard
}

func buildApp() *app {
	base, err := url.Parse(baseURL)
	if err != nil {
		// initConfig validated the URL already.
		panic(fmt.Sprintf("invalid base URL: %v", err))
	}
	cookies := session.NewJarCookies(cookieJar, base)
	store := session.NewFileStore(tokenFile, baseURL, cookies)
	refresher := api.NewRefresher(baseURL, retryClient, store, logger)
	client := api.NewClient(baseURL, retryClient, store, refresher, logger)
	return &app{
		store:     store,
		refresher: refresher,
		client:    client,
		guard:     guard.New(store, client, logger),
	}
}

func main() {
	initConfig()
	a := buildApp()

	switch {
	case *flagStatus:
		exitOn(runStatus(a))
	case *flagLogout:
		exitOn(runLogout(a))
	case *flagLogin:
		exitOn(runLogin(a))
	case isTTY():
		exitOn(runTUI(a))
	default:
		// Piped or CI invocation without a mode flag: report status.
		exitOn(runStatus(a))
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(a *app) error {
	m := tui.NewModel(a.client, a.guard, logger)
	p := tea.NewProgram(m)

	// A refresh rejected mid-request logs the user out; the model gets told
	// so it can drop back to the entry screen.
	a.refresher.OnSessionExpired = func() {
		p.Send(tui.SessionExpiredMsg{})
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runStatus prints whether a usable session exists. The oauth2 token source
// is the same one scripts embed when they drive the API themselves.
func runStatus(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, ok := a.store.Get(); !ok {
		fmt.Println("Not logged in")
		return nil
	}

	// Probing the member endpoint exercises the same refresh path the
	// dashboard uses; an expired access token with a live refresh token
	// still counts as logged in.
	member, err := a.client.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrNotAuthenticated) ||
			errors.Is(err, api.ErrRefreshFailed) ||
			errors.Is(err, api.ErrAuthorizationFailed) {
			fmt.Println("Not logged in (session expired)")
			return nil
		}
		return err
	}

	fmt.Printf("Logged in as %s (%s)\n", member.Name, member.Email)
	if member.IsAdmin() {
		fmt.Println("Role: ADMIN")
	}
	if _, err := session.NewTokenSource(a.store).Token(); err == nil {
		fmt.Println("Access token: valid")
	}
	return nil
}

func runLogin(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	email := *flagEmail
	if email == "" {
		return errors.New("-login requires -email")
	}
	password := os.Getenv("FINVIEW_PASSWORD")
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errors.New("password is empty")
	}

	result, err := a.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Printf("Logged in as %s\n", result.Email)
	fmt.Printf("Session saved to %s\n", tokenFile)
	return nil
}

func runLogout(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, ok := a.store.Get(); !ok {
		fmt.Println("Not logged in")
		return nil
	}
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}
