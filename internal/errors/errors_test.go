package errors

import (
	"errors"
	"fmt"
	"testing"
)

// statusErr stands in for a backend error that only knows its code.
type statusErr struct{ code ErrorCode }

func (e statusErr) Error() string   { return "backend said " + string(e.code) }
func (e statusErr) Code() ErrorCode { return e.code }

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  NotFound("Usuario no encontrado."),
			want: "Usuario no encontrado.",
		},
		{
			name: "error with cause",
			err:  Wrap(errors.New("tag failed"), ErrCodeValidation, "datos inválidos"),
			want: "datos inválidos: tag failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, ErrCodeInternal, "falló")
	if !errors.Is(err, cause) {
		t.Fatal("Wrap lost the cause")
	}
	if err.Code != ErrCodeInternal {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInternal)
	}
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("correo", "correo debe ser un correo válido")
	if err.Field != "correo" || err.Code != ErrCodeValidation {
		t.Errorf("unexpected error %+v", err)
	}
	if Validation("x").Field != "" {
		t.Error("Validation should not name a field")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("x"), ""},
		{"app error", Unauthorized("Cuenta inactiva"), ErrCodeUnauthorized},
		{"wrapped app error", fmt.Errorf("login: %w", Validation("x")), ErrCodeValidation},
		{"coder", fmt.Errorf("get cursos: %w", statusErr{ErrCodeConflict}), ErrCodeConflict},
		{"app error wins over its cause", Wrap(statusErr{ErrCodeTimeout}, ErrCodeNotFound, "x"), ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsHelpers(t *testing.T) {
	if !IsValidation(fmt.Errorf("form: %w", ValidationField("nota", "fuera de rango"))) {
		t.Error("IsValidation missed a wrapped field error")
	}
	if IsValidation(NotFound("x")) {
		t.Error("IsValidation matched a NotFound error")
	}
	if !IsUnauthorized(statusErr{ErrCodeUnauthorized}) {
		t.Error("IsUnauthorized missed a backend 401")
	}
	if IsUnauthorized(errors.New("401")) {
		t.Error("IsUnauthorized matched a plain error")
	}
}

func TestGetField(t *testing.T) {
	if got := GetField(fmt.Errorf("x: %w", ValidationField("nombre", "requerido"))); got != "nombre" {
		t.Errorf("GetField() = %q, want nombre", got)
	}
	if got := GetField(errors.New("x")); got != "" {
		t.Errorf("GetField() = %q, want empty", got)
	}
}
