package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/aulaweb/aula-admin/config"
	"github.com/aulaweb/aula-admin/internal/adapters/filestore"
	redisadapter "github.com/aulaweb/aula-admin/internal/adapters/redis"
	"github.com/aulaweb/aula-admin/internal/ports"
)

// AuthConfig contains configuration for the token store.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildTokenStore creates the token store selected by the configured mode.
//
//nolint:ireturn // the store implementation is picked at runtime.
func BuildTokenStore(cfg AuthConfig) (ports.TokenStore, error) {
	switch cfg.Auth.TokenStore {
	case config.TokenStoreFile:
		if cfg.Logger != nil {
			cfg.Logger.Warn("using file token store; sessions are local to this instance", "path", cfg.Auth.TokenFile)
		}
		return filestore.NewTokenStore(cfg.Auth.TokenFile), nil

	case config.TokenStoreRedis, "":
		if cfg.RedisClient == nil {
			return nil, errors.New("redis token store selected but redis client not configured")
		}
		return redisadapter.NewTokenStore(redisadapter.TokenStoreOptions{
			Client:      cfg.RedisClient,
			Prefix:      cfg.Auth.TokenKeyPrefix,
			FallbackTTL: cfg.Auth.TokenTTL,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported token store %q", cfg.Auth.TokenStore)
	}
}
