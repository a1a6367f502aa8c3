// Package mocks provides mock implementations for testing the admin gateway.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	api := mocks.NewMockRESTClient(ctrl)
//	api.EXPECT().Get(gomock.Any(), "cursos/mis", gomock.Nil()).Return(payload, nil)
package mocks

// Generate mock for RESTClient interface from internal/ports package.
// This creates MockRESTClient with methods for all RESTClient interface methods:
// Get, Send
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=rest_client_mock.go github.com/aulaweb/aula-admin/internal/ports RESTClient

// Generate mock for TokenStore interface from internal/ports package.
// This creates MockTokenStore with methods for all TokenStore interface methods:
// Get, Save, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_store_mock.go github.com/aulaweb/aula-admin/internal/ports TokenStore
