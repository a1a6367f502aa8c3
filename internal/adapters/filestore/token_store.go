// Package filestore persists bearer tokens in a local JSON file for the command line client.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aulaweb/aula-admin/internal/adapters/jwtexp"
	"github.com/aulaweb/aula-admin/internal/ports"
)

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore keeps tokens keyed by client identity in a single 0600 file.
type TokenStore struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

// NewTokenStore creates a store backed by path. The file is created on first save.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path, now: time.Now}
}

// Path returns the backing file location.
func (s *TokenStore) Path() string { return s.path }

func (s *TokenStore) Get(_ context.Context, clientID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return "", err
	}
	token, ok := tokens[clientID]
	if !ok || token == "" {
		return "", ports.ErrNoToken
	}
	if jwtexp.Expired(token, s.now()) {
		delete(tokens, clientID)
		if err := s.write(tokens); err != nil {
			return "", fmt.Errorf("cleanup expired token: %w", err)
		}
		return "", ports.ErrNoToken
	}
	return token, nil
}

func (s *TokenStore) Save(_ context.Context, clientID, token string) error {
	if clientID == "" {
		return errors.New("client ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return err
	}
	tokens[clientID] = token
	return s.write(tokens)
}

func (s *TokenStore) Delete(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := tokens[clientID]; !ok {
		return nil
	}
	delete(tokens, clientID)
	return s.write(tokens)
}

func (s *TokenStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	tokens := map[string]string{}
	if len(data) == 0 {
		return tokens, nil
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("decode token file %s: %w", s.path, err)
	}
	return tokens, nil
}

// write replaces the file atomically through a temp file in the same directory.
func (s *TokenStore) write(tokens map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp token file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp token file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}
