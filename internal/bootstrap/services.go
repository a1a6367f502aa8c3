package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aulaweb/aula-admin/config"
	"github.com/aulaweb/aula-admin/internal/apiclient"
	httpx "github.com/aulaweb/aula-admin/internal/http"
	"github.com/aulaweb/aula-admin/internal/observability/metrics"
	"github.com/aulaweb/aula-admin/internal/ports"
	"github.com/aulaweb/aula-admin/internal/service"
	"github.com/aulaweb/aula-admin/internal/session"
	"github.com/aulaweb/aula-admin/internal/validation"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth     *service.AuthService
	Courses  *service.CourseService
	Subjects *service.SubjectService
	Students *service.StudentService
	Users    *service.UserService
	Grades   *service.GradeService

	Authorizer    *apiclient.Authorizer
	Observability ObservabilityContainer
	// Ready probes token storage for /healthz. Nil when the store is local.
	Ready httpx.ReadyFunc
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Config   config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Tokens ports.TokenStore
	// Navigator receives auth navigation. The HTTP server passes httpx.ContextNavigator.
	Navigator ports.Navigator
	// Transport overrides the outbound transport (tests).
	Transport http.RoundTripper
	// Ready probes token storage (the Redis ping in production).
	Ready  httpx.ReadyFunc
	Logger *slog.Logger
}

// buildObservability registers the Prometheus collectors on a private registry.
func buildObservability(cfg config.ObservabilityMetricsConfig) ObservabilityContainer {
	reg := prometheus.NewRegistry()
	if !cfg.IsEnabled() {
		return ObservabilityContainer{Gatherer: reg, Config: cfg}
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return ObservabilityContainer{
		Metrics:  metrics.New(metrics.Options{Registry: reg, Namespace: cfg.Namespace}),
		Gatherer: reg,
		Config:   cfg,
	}
}

// NewServices wires the backend client stack and the services on top of it.
//
// The transport chain is metrics → authorizer → base transport, so every request the
// authorizer lets through is counted, including the 401s that trigger a forced logout.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps require config")
	}
	if deps.Tokens == nil {
		return ServiceContainer{}, errors.New("service deps require a token store")
	}
	if deps.Navigator == nil {
		return ServiceContainer{}, errors.New("service deps require a navigator")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	obs := buildObservability(cfg.Observability.Metrics)

	authorizer, err := apiclient.NewAuthorizer(apiclient.AuthorizerOptions{
		BaseURL: cfg.Backend.BaseURL,
		Tokens:  deps.Tokens,
		Next:    deps.Transport,
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build authorizer: %w", err)
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL:      cfg.Backend.BaseURL,
		Transport:    obs.Metrics.InstrumentTransport(authorizer),
		Timeout:      cfg.Backend.Timeout,
		MaxBodyBytes: cfg.Backend.MaxBodyBytes,
		Logger:       logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build api client: %w", err)
	}

	v, err := validation.New()
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build validator: %w", err)
	}

	auth := service.NewAuthService(service.AuthServiceOptions{
		API:       client,
		Tokens:    deps.Tokens,
		Navigator: deps.Navigator,
		Sessions:  session.NewRegistry(),
		Validator: v,
		Metrics:   obs.Metrics,
		Logger:    logger,
	})
	authorizer.OnUnauthorized(auth.ForceLogout)

	catalog := service.CatalogServiceOptions{API: client, Validator: v}
	return ServiceContainer{
		Auth: auth,
		Courses: service.NewCourseService(service.CourseServiceOptions{
			API:       client,
			Validator: v,
			Metrics:   obs.Metrics,
			Logger:    logger,
		}),
		Subjects: service.NewSubjectService(catalog),
		Students: service.NewStudentService(catalog),
		Users:    service.NewUserService(catalog),
		Grades: service.NewGradeService(service.GradeServiceOptions{
			API:       client,
			Validator: v,
			Logger:    logger,
		}),
		Authorizer:    authorizer,
		Observability: obs,
		Ready:         deps.Ready,
	}, nil
}

// RunWithShutdown serves HTTP until a shutdown signal arrives, ctx is canceled, or the
// server fails.
func RunWithShutdown(ctx context.Context, cfg *HTTPServerConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	server := StartHTTPServer(cfg, errCh)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down services...")
	case runErr = <-errCh:
		logger.Error("service error", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Config.HTTP.ShutdownTimeout)
	defer cancel()
	if err := ShutdownHTTPServer(ShutdownConfig{Context: shutdownCtx, Server: server, Logger: logger}); err != nil {
		return errors.Join(runErr, fmt.Errorf("shutdown http server: %w", err))
	}
	return runErr
}
