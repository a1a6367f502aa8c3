// Command aula-cli drives the school backend from a terminal with the same auth gateway
// and services the web front end uses. The token is kept in a local file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/aulaweb/aula-admin/config"
	"github.com/aulaweb/aula-admin/internal/adapters/filestore"
	"github.com/aulaweb/aula-admin/internal/bootstrap"
	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
)

// cliClientID keys the terminal session in the token file.
const cliClientID = "cli"

var errUsage = errors.New("usage")

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx      context.Context
	Logger   *slog.Logger
	Config   config.AppConfig
	Services bootstrap.ServiceContainer
	Out      io.Writer
	In       *os.File
}

func main() {
	logger := bootstrap.InitLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, logger, os.Args[1:], os.Stdout)
	if code != 0 {
		stop()
		os.Exit(code) //nolint:forbidigo // CLI must propagate command status to shell scripts
	}
}

func run(ctx context.Context, logger *slog.Logger, args []string, out io.Writer) int {
	if len(args) < 1 {
		if err := printUsage(out); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		return 2
	}

	cmdName := args[0]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(out, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(out); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		return 2
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(ctx, "load config", "error", err)
		return 1
	}

	cmdCtx, err := newCommandContext(ctx, logger, cfg, out)
	if err != nil {
		logger.ErrorContext(ctx, "initialise services", "error", err)
		return 1
	}
	if runErr := cmd.run(cmdCtx, args[1:]); runErr != nil {
		if errors.Is(runErr, errUsage) {
			return 2
		}
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		if msg := userMessage(runErr); msg != "" {
			_ = writeln(out, msg)
		}
		return 1
	}
	return 0
}

// newCommandContext wires the services over a file token store bound to the terminal session.
func newCommandContext(ctx context.Context, logger *slog.Logger, cfg config.AppConfig, out io.Writer) (*commandContext, error) {
	path, err := tokenFile(cfg.CLI)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create token dir: %w", err)
	}

	// The CLI never serves /metrics.
	cfg.Observability.Metrics.Enabled = false
	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:    &cfg,
		Tokens:    filestore.NewTokenStore(path),
		Navigator: &lastNavigator{},
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return &commandContext{
		Ctx:      domainauth.WithClientID(ctx, cliClientID),
		Logger:   logger,
		Config:   cfg,
		Services: services,
		Out:      out,
		In:       os.Stdin,
	}, nil
}

// tokenFile resolves AULA_CLI_TOKEN_FILE, falling back to the user config dir.
func tokenFile(cfg config.CLIConfig) (string, error) {
	if cfg.TokenFile != "" {
		return cfg.TokenFile, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "aula", "token.json"), nil
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Sign in with email and password (password is prompted)",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and forget the stored token",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the signed-in user",
			run:         runWhoami,
		},
		"recover": {
			name:        "recover",
			description: "Request a password reset email",
			run:         runRecover,
		},
		"courses": {
			name:        "courses",
			description: "List every course (administrators)",
			run:         runCourses,
		},
		"my-courses": {
			name:        "my-courses",
			description: "List the courses assigned to the signed-in instructor",
			run:         runMyCourses,
		},
		"grade": {
			name:        "grade",
			description: "Submit grades for one student: grade -course ID -student ID SUBJECT=VALUE...",
			run:         runGrade,
		},
	}
}

func printUsage(out io.Writer) error {
	if err := writef(out, "Usage: aula-cli <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(out, "Available commands:\n"); err != nil {
		return err
	}
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands()[name]
		if err := writef(out, "  %-12s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}
