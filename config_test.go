package main

import (
	"testing"
)

func TestGetConfig_Priority(t *testing.T) {
	t.Setenv("FINVIEW_TEST_KEY", "from-env")

	// Flag wins over env
	if got := getConfig("from-flag", "FINVIEW_TEST_KEY", "from-default"); got != "from-flag" {
		t.Errorf("Expected flag value, got %s", got)
	}

	// Env wins over default
	if got := getConfig("", "FINVIEW_TEST_KEY", "from-default"); got != "from-env" {
		t.Errorf("Expected env value, got %s", got)
	}

	// Default when neither set
	if got := getConfig("", "FINVIEW_TEST_KEY_UNSET", "from-default"); got != "from-default" {
		t.Errorf("Expected default value, got %s", got)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("FINVIEW_TEST_ENV", "value")

	if got := getEnv("FINVIEW_TEST_ENV", "default"); got != "value" {
		t.Errorf("Expected env value, got %s", got)
	}
	if got := getEnv("FINVIEW_TEST_ENV_UNSET", "default"); got != "default" {
		t.Errorf("Expected default value, got %s", got)
	}
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid http", "http://localhost:8080", false},
		{"valid https", "https://api.finview.example.com", false},
		{"empty", "", true},
		{"no scheme", "localhost:8080", true},
		{"wrong scheme", "ftp://example.com", true},
		{"no host", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBaseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateBaseURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger_Disabled(t *testing.T) {
	log := newLogger("")
	// Must be safe to use without any output destination.
	log.Debug().Msg("discarded")
}
