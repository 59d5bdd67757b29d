// Package store owns the persisted access token: one key on disk,
// absent means unauthenticated.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FileStore persists the access token to a single file. It implements
// domain.TokenStore. Construction reads any previously persisted
// token, so a new process resumes the session it left behind.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	token string
}

// NewFileStore creates a file-backed token store rooted at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No persisted session.
	case err != nil:
		return nil, fmt.Errorf("reading token file: %w", err)
	default:
		s.token = strings.TrimSpace(string(data))
	}
	return s, nil
}

// Token returns the current access token. A token whose JWT expiry has
// already passed is treated as absent; the server stays authoritative,
// this only skips a doomed round trip.
func (s *FileStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" || !tokenUsable(s.token) {
		return "", false
	}
	return s.token, true
}

// Save persists the token and makes it the current session.
func (s *FileStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	s.token = token
	return nil
}

// Clear tears the session down, removing the persisted token.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// tokenUsable reports whether the token is worth presenting to the
// backend. Opaque (non-JWT) tokens always are; JWTs with a parseable
// exp claim are checked against the clock. The parse is unverified by
// design: this store has no signing key and needs none.
func tokenUsable(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Now().Before(exp.Time)
}

// MemoryStore is an in-process token store for tests and wiring that
// must not touch disk.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" || !tokenUsable(s.token) {
		return "", false
	}
	return s.token, true
}

func (s *MemoryStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
