package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Session is the per-user dashboard context: the bearer credential and the
// selected store. It is created at login and torn down on logout or expiry.
type Session struct {
	mu       sync.RWMutex
	token    string
	username string
	storeID  string
}

// NewSession returns an empty, unauthenticated session.
func NewSession() *Session {
	return &Session{}
}

// Begin starts an authenticated session.
func (s *Session) Begin(token, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.username = username
}

// End tears the session down. It reports whether a credential was held,
// so concurrent expiry handling redirects only once.
func (s *Session) End() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	held := s.token != ""
	s.token = ""
	s.username = ""
	s.storeID = ""
	return held
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// StoreID returns the selected store; empty means all stores the user may see.
func (s *Session) StoreID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storeID
}

func (s *Session) SetStore(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeID = id
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

type sessionFile struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	StoreID  string `json:"store_id,omitempty"`
}

// FileSessionStore persists a session between CLI invocations.
type FileSessionStore struct {
	Path string
}

// DefaultSessionPath is session.json under the user config directory.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "dealer-dashboard", "session.json"), nil
}

// Load restores a saved session into s. A missing file leaves s untouched.
func (f FileSessionStore) Load(s *Session) error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read session: %w", err)
	}
	var saved sessionFile
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	s.Begin(saved.Token, saved.Username)
	s.SetStore(saved.StoreID)
	return nil
}

// Save writes s to disk, or removes the file when s is unauthenticated.
func (f FileSessionStore) Save(s *Session) error {
	s.mu.RLock()
	saved := sessionFile{Token: s.token, Username: s.username, StoreID: s.storeID}
	s.mu.RUnlock()

	if saved.Token == "" {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
