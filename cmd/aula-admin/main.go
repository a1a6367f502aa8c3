package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/aulaweb/aula-admin/config"
	"github.com/aulaweb/aula-admin/internal/bootstrap"
	httpx "github.com/aulaweb/aula-admin/internal/http"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.ConfigureLogger(cfg.Observability.Logging)

	// Log startup info
	logStartupInfo(ctx, logger, &cfg)

	redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	tokens, err := bootstrap.BuildTokenStore(bootstrap.AuthConfig{
		Auth:        cfg.Auth,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build token store: %w", err)
	}

	deps := &bootstrap.ServiceDeps{
		Config:    &cfg,
		Tokens:    tokens,
		Navigator: httpx.ContextNavigator{},
		Logger:    logger,
	}
	if redisClient != nil {
		deps.Ready = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	services, err := bootstrap.NewServices(deps)
	if err != nil {
		return err
	}

	return bootstrap.RunWithShutdown(ctx, &bootstrap.HTTPServerConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting aula admin gateway",
		"backend_url", cfg.Backend.BaseURL,
		"token_store", cfg.Auth.TokenStore,
		"http_addr", cfg.HTTP.Addr,
		"metrics_enabled", cfg.Observability.Metrics.IsEnabled(),
		"dev", cfg.IsDev)
}

// initInfrastructure connects Redis when the token store needs it.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	if !cfg.UsesRedis() {
		return nil, nil
	}
	client, err := bootstrap.ConnectRedis(ctx, bootstrap.RedisConfig{Redis: cfg.Redis, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}
