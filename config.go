package main

import (
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var (
	baseURL           string
	tokenFile         string
	debugLog          string
	flagBaseURL       *string
	flagTokenFile     *string
	flagDebugLog      *string
	flagStatus        *bool
	flagLogin         *bool
	flagLogout        *bool
	flagEmail         *string
	configInitialized bool
	retryClient       *retry.Client
	cookieJar         http.CookieJar
	logger            zerolog.Logger
)

func init() {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Define flags (but don't parse yet to avoid conflicts with test flags)
	flagBaseURL = flag.String(
		"base-url",
		"",
		"API base URL (default: http://localhost:8080 or API_BASE_URL env)",
	)
	flagTokenFile = flag.String(
		"token-file",
		"",
		"Session storage file (default: .finview-session.json or TOKEN_FILE env)",
	)
	flagDebugLog = flag.String(
		"debug-log",
		"",
		"Debug log file (default: disabled, or DEBUG_LOG env)",
	)
	flagStatus = flag.Bool("status", false, "Print session status and exit (no TUI)")
	flagLogin = flag.Bool("login", false, "Log in and exit (no TUI); see -email")
	flagLogout = flag.Bool("logout", false, "Log out and exit (no TUI)")
	flagEmail = flag.String("email", "", "Email for -login (password read from FINVIEW_PASSWORD env or stdin)")
}

// initConfig parses flags and initializes configuration
// Separated from init() to avoid conflicts with test flag parsing
func initConfig() {
	if configInitialized {
		return
	}
	configInitialized = true

	flag.Parse()

	// Priority: flag > env > default
	baseURL = getConfig(*flagBaseURL, "API_BASE_URL", "http://localhost:8080")
	tokenFile = getConfig(*flagTokenFile, "TOKEN_FILE", ".finview-session.json")
	debugLog = getConfig(*flagDebugLog, "DEBUG_LOG", "")

	if err := validateBaseURL(baseURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid API_BASE_URL: %v\n", err)
		os.Exit(1)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	// Warn if using HTTP instead of HTTPS
	if strings.HasPrefix(strings.ToLower(baseURL), "http://") {
		fmt.Fprintln(
			os.Stderr,
			"⚠️  WARNING: Using HTTP instead of HTTPS. Tokens will be transmitted in plaintext!",
		)
		fmt.Fprintln(
			os.Stderr,
			"⚠️  This is only safe for local development. Use HTTPS in production.",
		)
		fmt.Fprintln(os.Stderr)
	}

	logger = newLogger(debugLog)

	// The jar is shared between the HTTP client and the session store's
	// cookie fallback, so server-set auth cookies are visible to both.
	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(fmt.Sprintf("failed to create cookie jar: %v", err))
	}
	cookieJar = jar

	baseHTTPClient := &http.Client{
		Jar: jar,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			DisableKeepAlives:   false,
		},
	}

	// Wrap with retry logic using go-httpretry
	retryClient, err = retry.NewBackgroundClient(
		retry.WithHTTPClient(baseHTTPClient),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create retry client: %v", err))
	}
}

// newLogger returns a file-backed debug logger, or a disabled one when no
// log path is configured. Logging to a file keeps the TUI's screen clean.
func newLogger(path string) zerolog.Logger {
	if path == "" {
		return zerolog.Nop()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to open debug log %s: %v\n", path, err)
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Logger().Level(zerolog.DebugLevel)
}

// getConfig returns value with priority: flag > env > default
func getConfig(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return getEnv(envKey, defaultValue)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// validateBaseURL validates that the API base URL is properly formatted
func validateBaseURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("base URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("URL must include a host")
	}

	return nil
}

// isTTY reports whether stdout is a character device (interactive terminal).
func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
