//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools (install via `go install`):
//
// Air - Live reload for the admin gateway (DEV=true serves templates from disk)
//   Install: go install github.com/air-verse/air@v1.63.0
//   Version: v1.63.0
//   Docs: https://github.com/air-verse/air
//
// mockgen - Regenerates internal/mocks from the ports interfaces
//   Run: go generate ./internal/mocks (invokes go.uber.org/mock/mockgen@v0.6.0)
//   Docs: https://github.com/uber-go/mock
