package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aulaweb/aula-admin/config"
	httpx "github.com/aulaweb/aula-admin/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RouterServices maps the service container onto the router's dependencies.
func RouterServices(cfg *HTTPServerConfig) httpx.RouterServices {
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}
	svc := cfg.Services
	return httpx.RouterServices{
		Auth:     svc.Auth,
		Courses:  svc.Courses,
		Subjects: svc.Subjects,
		Students: svc.Students,
		Users:    svc.Users,
		Grades:   svc.Grades,
		Metrics:  svc.Observability.Metrics,
		Gatherer: svc.Observability.Gatherer,
		Ready:    svc.Ready,
		Client: httpx.ClientIdentityConfig{
			CookieName:   appCfg.Auth.ClientCookie,
			CookieDomain: appCfg.HTTP.CookieDomain,
			MaxAge:       appCfg.Auth.ClientCookieMaxAge,
		},
		CSRF:   httpx.CSRFConfig{CookieDomain: appCfg.HTTP.CookieDomain},
		IsDev:  appCfg.IsDev,
		Logger: cfg.Logger,
	}
}

// StartHTTPServer creates and starts the HTTP server. Listen failures are sent on errCh.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig, errCh chan<- error) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
		appCfg.HTTP.Sanitize()
	}

	server := &http.Server{
		Addr:              appCfg.HTTP.Addr,
		Handler:           httpx.NewRouter(RouterServices(cfg)),
		ReadTimeout:       appCfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: appCfg.HTTP.ReadTimeout,
		WriteTimeout:      appCfg.HTTP.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				errCh <- err
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Server.Shutdown(ctx); err != nil {
		return err
	}
	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}
	return nil
}
