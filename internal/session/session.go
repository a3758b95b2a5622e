package session

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNoToken is returned by services when an operation needs an
// authenticated session and none is present. No request is sent in that case.
var ErrNoToken = errors.New("authentication required")

// Store owns the bearer token: one in-memory copy plus a durable slot on
// disk so the session survives restarts. The token is opaque to the client;
// an invalid or expired one is only ever detected by a failed profile fetch.
type Store struct {
	mu    sync.RWMutex
	path  string
	token string
}

// New seeds the in-memory token from the durable slot. A missing slot file
// simply means logged out.
func New(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	s.token = strings.TrimSpace(string(data))
	return s, nil
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) HasToken() bool {
	return s.Token() != ""
}

// SetToken persists the token and updates the in-memory copy. An empty
// token clears the slot. The slot is replaced via rename so a crashed write
// can never leave a half-written token behind, and memory is only updated
// once the slot write succeeded.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		s.token = ""
		return nil
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	s.token = token
	return nil
}

func (s *Store) Clear() error {
	return s.SetToken("")
}
