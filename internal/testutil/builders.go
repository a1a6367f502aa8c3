package testutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testSigningKey signs fixture tokens. The application never verifies signatures.
var testSigningKey = []byte("aula-test-signing-key")

// Token returns a signed JWT expiring at exp, shaped like the backend's login token.
func Token(t TestingTB, exp time.Time) string {
	t.Helper()
	return signToken(t, jwt.MapClaims{
		"uid": "fixture-user",
		"exp": jwt.NewNumericDate(exp),
	})
}

// TokenWithoutExpiry returns a signed JWT that carries no exp claim.
func TokenWithoutExpiry(t TestingTB) string {
	t.Helper()
	return signToken(t, jwt.MapClaims{"uid": "fixture-user"})
}

func signToken(t TestingTB, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CourseBuilder provides a fluent interface for building backend course payloads.
type CourseBuilder struct {
	body map[string]any
}

// NewCourse creates a CourseBuilder with an id and a name.
func NewCourse(id, name string) *CourseBuilder {
	return &CourseBuilder{body: map[string]any{
		"_id":    id,
		"nombre": name,
	}}
}

// WithTutorID sets profesorTutor to a bare reference.
func (b *CourseBuilder) WithTutorID(id string) *CourseBuilder {
	b.body["profesorTutor"] = id
	return b
}

// WithTutor sets profesorTutor to an embedded profile.
func (b *CourseBuilder) WithTutor(id, name, surname string) *CourseBuilder {
	b.body["profesorTutor"] = map[string]any{"uid": id, "nombre": name, "apellido": surname}
	return b
}

// WithSubject appends an embedded materia.
func (b *CourseBuilder) WithSubject(id, name string) *CourseBuilder {
	b.body["materias"] = append(b.list("materias"), map[string]any{"_id": id, "nombre": name})
	return b
}

// WithStudent appends an embedded estudiante.
func (b *CourseBuilder) WithStudent(id, name, surname, nationalID string) *CourseBuilder {
	b.body["estudiantes"] = append(b.list("estudiantes"), map[string]any{
		"_id":      id,
		"nombre":   name,
		"apellido": surname,
		"cedula":   nationalID,
	})
	return b
}

// WithActive sets estado.
func (b *CourseBuilder) WithActive(active bool) *CourseBuilder {
	b.body["estado"] = active
	return b
}

func (b *CourseBuilder) list(key string) []any {
	if existing, ok := b.body[key].([]any); ok {
		return existing
	}
	return []any{}
}

// Build returns the payload as the JSON decoder would produce it.
func (b *CourseBuilder) Build() map[string]any {
	out := make(map[string]any, len(b.body))
	for k, v := range b.body {
		out[k] = v
	}
	return out
}

// Wrap nests items under key, matching the backend's enveloped list responses.
func Wrap(key string, items ...any) map[string]any {
	list := make([]any, 0, len(items))
	list = append(list, items...)
	return map[string]any{key: list}
}

// Profile returns a profile payload for the usuarios/ endpoint.
func Profile(id, name, role string) map[string]any {
	return map[string]any{
		"usuario": map[string]any{
			"uid":    id,
			"nombre": name,
			"rol":    role,
			"correo": id + "@aula.test",
		},
	}
}

// LoginSuccess returns the body of a successful iniciarSesion call.
func LoginSuccess(token string) map[string]any {
	return map[string]any{"success": true, "token": token}
}

// ErrorBody returns a backend error body.
func ErrorBody(message string) map[string]any {
	return map[string]any{"success": false, "error": message}
}
