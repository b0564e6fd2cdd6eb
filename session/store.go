// Package session owns the client-side session state: the persisted
// access/refresh token pair, the cached user identity, and the fallback
// cookie the server sets at login time.
package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

// accessTokenCookie is the name of the cookie the server sets alongside the
// login response body.
const accessTokenCookie = "accessToken"

// Credentials is the whole persisted session record. The token pair and the
// identity are always written and cleared together; callers never observe a
// partial record.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
}

// Store reads and writes the session record. Implementations never return
// read errors; unreadable state degrades to "absent".
type Store interface {
	// Get returns the current credentials, falling back to the server-set
	// cookie when nothing is persisted locally. A cookie-only session has an
	// empty refresh token and no identity.
	Get() (Credentials, bool)
	// Set replaces the whole record atomically.
	Set(Credentials) error
	// Clear removes the record and expires the fallback cookie. Safe to call
	// when nothing is stored.
	Clear() error
}

// CookieSource exposes the server-set access token cookie to the store.
type CookieSource interface {
	AccessToken() (string, bool)
	Expire()
}

// sessionFile is the on-disk layout: one record per API base URL, so a
// single token file can hold sessions for several environments.
type sessionFile struct {
	Sessions map[string]*Credentials `json:"sessions"`
}

// FileStore persists credentials in a JSON file. Writes go through a
// temp-file rename and a cross-process lock file so concurrent processes
// sharing a token file cannot interleave partial records.
type FileStore struct {
	path    string
	baseURL string
	cookies CookieSource

	mu sync.Mutex
}

// NewFileStore creates a store backed by the file at path, scoped to the
// record for baseURL. cookies may be nil when no fallback is available.
func NewFileStore(path, baseURL string, cookies CookieSource) *FileStore {
	return &FileStore{path: path, baseURL: baseURL, cookies: cookies}
}

func (s *FileStore) Get() (Credentials, bool) {
	if creds, ok := s.read(); ok {
		return creds, true
	}
	if s.cookies != nil {
		if token, ok := s.cookies.AccessToken(); ok && token != "" {
			return Credentials{AccessToken: token}, true
		}
	}
	return Credentials{}, false
}

func (s *FileStore) read() (Credentials, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Credentials{}, false
	}
	var file sessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Credentials{}, false
	}
	creds, ok := file.Sessions[s.baseURL]
	if !ok || creds == nil || creds.AccessToken == "" {
		return Credentials{}, false
	}
	return *creds, true
}

func (s *FileStore) Set(creds Credentials) error {
	if creds.AccessToken == "" {
		return errors.New("refusing to store credentials without an access token")
	}
	return s.update(func(file *sessionFile) {
		file.Sessions[s.baseURL] = &creds
	})
}

func (s *FileStore) Clear() error {
	err := s.update(func(file *sessionFile) {
		delete(file.Sessions, s.baseURL)
	})
	if s.cookies != nil {
		s.cookies.Expire()
	}
	return err
}

// update performs a locked read-modify-write of the session file. The write
// lands via temp file + rename so readers never see a torn file.
func (s *FileStore) update(mutate func(*sessionFile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := acquireLock(s.path)
	if err != nil {
		return err
	}
	defer lock.release()

	var file sessionFile
	if data, err := os.ReadFile(s.path); err == nil {
		// Corrupt files start over rather than failing the write.
		_ = json.Unmarshal(data, &file)
	}
	if file.Sessions == nil {
		file.Sessions = make(map[string]*Credentials)
	}

	mutate(&file)

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// JarCookies adapts an http.CookieJar to a CookieSource for a given API base
// URL. The jar is shared with the HTTP client, so cookies the server sets on
// login and refresh responses are visible here without extra plumbing.
type JarCookies struct {
	jar  http.CookieJar
	base *url.URL
}

// NewJarCookies wraps jar for cookies scoped to base.
func NewJarCookies(jar http.CookieJar, base *url.URL) *JarCookies {
	return &JarCookies{jar: jar, base: base}
}

func (j *JarCookies) AccessToken() (string, bool) {
	for _, c := range j.jar.Cookies(j.base) {
		if c.Name == accessTokenCookie && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// Expire overwrites the access token cookie with an already-expired one,
// which the jar treats as a deletion.
func (j *JarCookies) Expire() {
	j.jar.SetCookies(j.base, []*http.Cookie{{
		Name:    accessTokenCookie,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	}})
}
