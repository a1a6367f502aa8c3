// Package redis provides Redis-backed adapters for the admin gateway.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aulaweb/aula-admin/internal/adapters/jwtexp"
	"github.com/aulaweb/aula-admin/internal/ports"
)

const (
	// DefaultTokenPrefix namespaces token keys.
	DefaultTokenPrefix = "aula:token:"
	// DefaultFallbackTTL applies to tokens whose expiry cannot be read.
	DefaultFallbackTTL = 8 * time.Hour
)

// ErrTokenExpired is returned when saving a token whose exp claim already passed.
var ErrTokenExpired = errors.New("token is expired")

// Compile-time conformance.
var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStoreOptions configures a TokenStore.
type TokenStoreOptions struct {
	Client      redis.UniversalClient
	Prefix      string
	FallbackTTL time.Duration
	// Now is used for TTL computation; defaults to time.Now.
	Now func() time.Time
}

// TokenStore persists one bearer token per client identity. Key TTLs follow the
// token's exp claim so Redis evicts tokens exactly when the backend would reject them.
type TokenStore struct {
	client      redis.UniversalClient
	prefix      string
	fallbackTTL time.Duration
	now         func() time.Time
}

// NewTokenStore creates a Redis-backed token store.
func NewTokenStore(opts TokenStoreOptions) *TokenStore {
	s := &TokenStore{
		client:      opts.Client,
		prefix:      opts.Prefix,
		fallbackTTL: opts.FallbackTTL,
		now:         opts.Now,
	}
	if s.prefix == "" {
		s.prefix = DefaultTokenPrefix
	}
	if s.fallbackTTL <= 0 {
		s.fallbackTTL = DefaultFallbackTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *TokenStore) key(clientID string) string { return s.prefix + clientID }

// Save stores token for clientID, replacing any previous token.
func (s *TokenStore) Save(ctx context.Context, clientID, token string) error {
	if clientID == "" {
		return errors.New("client ID cannot be empty")
	}
	if token == "" {
		return errors.New("token cannot be empty")
	}

	ttl := jwtexp.TTL(token, s.now(), s.fallbackTTL)
	if ttl <= 0 {
		return ErrTokenExpired
	}

	if err := s.client.Set(ctx, s.key(clientID), token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

// Get returns the token for clientID or ports.ErrNoToken.
func (s *TokenStore) Get(ctx context.Context, clientID string) (string, error) {
	if clientID == "" {
		return "", ports.ErrNoToken
	}

	token, err := s.client.Get(ctx, s.key(clientID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ports.ErrNoToken
		}
		return "", fmt.Errorf("redis get token: %w", err)
	}
	return token, nil
}

// Delete removes the token for clientID. Deleting a missing token is not an error.
func (s *TokenStore) Delete(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(clientID)).Err(); err != nil {
		return fmt.Errorf("redis del token: %w", err)
	}
	return nil
}
