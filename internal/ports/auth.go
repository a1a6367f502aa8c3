package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
)

// ErrNoToken is returned by token stores when the client has no persisted token.
var ErrNoToken = errors.New("no token stored")

// TokenStore persists the backend bearer token per client.
// A missing token is reported as ErrNoToken.
type TokenStore interface {
	Get(ctx context.Context, clientID string) (string, error)
	Save(ctx context.Context, clientID, token string) error
	Delete(ctx context.Context, clientID string) error
}

// Navigator receives post-action navigation decisions (login landing, forced logout).
type Navigator interface {
	Navigate(ctx context.Context, path string)
}
