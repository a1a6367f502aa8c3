// Package errors derives low-cardinality error classes for logs and metric labels.
package errors

import (
	"context"
	goerrors "errors"
	"net"
	"reflect"
	"strings"

	apperrors "github.com/aulaweb/aula-admin/internal/errors"
)

// Classify returns a normalized error class suitable for tagging logs.
// Application errors report their code, context and network failures get fixed names,
// anything else falls back to the innermost concrete type in snake_case.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	}
	var netErr net.Error
	if goerrors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
