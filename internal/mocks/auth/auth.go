package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"sync"

	"github.com/aulaweb/aula-admin/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.TokenStore = (*MemoryTokenStore)(nil)
	_ ports.Navigator  = (*RecordingNavigator)(nil)
)

// MemoryTokenStore is an in-memory token store for unit tests.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string

	// SaveErr, GetErr and DeleteErr force failures when set.
	SaveErr   error
	GetErr    error
	DeleteErr error
}

// NewMemoryTokenStore creates a new in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]string)}
}

func (m *MemoryTokenStore) Save(_ context.Context, clientID, token string) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if clientID == "" {
		return errors.New("client ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[clientID] = token
	return nil
}

func (m *MemoryTokenStore) Get(_ context.Context, clientID string) (string, error) {
	if m.GetErr != nil {
		return "", m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[clientID]
	if !ok {
		return "", ports.ErrNoToken
	}
	return token, nil
}

func (m *MemoryTokenStore) Delete(_ context.Context, clientID string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, clientID)
	return nil
}

// Has reports whether a token is stored for clientID.
func (m *MemoryTokenStore) Has(clientID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[clientID]
	return ok
}

// RecordingNavigator captures navigation requests in order.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

// NewRecordingNavigator creates an empty navigator.
func NewRecordingNavigator() *RecordingNavigator {
	return &RecordingNavigator{}
}

func (n *RecordingNavigator) Navigate(_ context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

// Paths returns every recorded navigation.
func (n *RecordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// Last returns the most recent navigation or "".
func (n *RecordingNavigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}
