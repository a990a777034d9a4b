// Package auth holds the session credential state shared by the HTTP layer.
package auth

import "sync"

// Session stores the bootstrap credentials and the session token. Before a
// token is set, requests authenticate with HTTP Basic credentials built from
// "username@org" and the password. Once a token is stored it replaces Basic
// auth until cleared.
type Session struct {
	mutex    sync.RWMutex
	username string
	org      string
	password string
	token    string
}

// NewSession creates a session holding the bootstrap credentials.
func NewSession(username, org, password string) *Session {
	return &Session{
		username: username,
		org:      org,
		password: password,
	}
}

// NewTokenSession creates a session from an existing token, with no
// bootstrap credentials.
func NewTokenSession(token string) *Session {
	return &Session{token: token}
}

// Token returns the current session token, empty when not authenticated.
func (s *Session) Token() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.token
}

// SetToken stores the session token obtained from login.
func (s *Session) SetToken(token string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = token
}

// Clear discards the session token. Bootstrap credentials are kept so a
// subsequent login can succeed.
func (s *Session) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = ""
}

// Authenticated reports whether a session token is present.
func (s *Session) Authenticated() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.token != ""
}

// BasicAuth returns the Basic credentials pair ("username@org", password).
// ok is false when no bootstrap credentials were configured.
func (s *Session) BasicAuth() (user, password string, ok bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.username == "" {
		return "", "", false
	}

	return s.username + "@" + s.org, s.password, true
}

// Username returns the configured username.
func (s *Session) Username() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.username
}

// Org returns the configured organization name.
func (s *Session) Org() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.org
}
