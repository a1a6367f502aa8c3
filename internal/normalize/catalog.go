package normalize

import (
	"strings"

	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
	"github.com/aulaweb/aula-admin/internal/domain/model"
)

// SubjectList normalizes a materias collection.
func SubjectList(raw any) []model.Subject {
	items := unwrapList(raw, "materias", "data", "results")
	return subjects(items)
}

// SubjectOne normalizes a single materia response.
func SubjectOne(raw any, fallbackID string) (model.Subject, bool) {
	return subject(unwrap(raw, "materia", "data"), fallbackID)
}

func subject(item any, fallbackID string) (model.Subject, bool) {
	id := ResolveID(item)
	if id == "" {
		id = fallbackID
	}
	if id == "" {
		return model.Subject{}, false
	}
	if _, isObj := item.(map[string]any); !isObj {
		return model.Subject{ID: id, Name: model.MissingName}, true
	}
	return model.Subject{ID: id, Name: nameOr(item, model.MissingName)}, true
}

// StudentList normalizes an estudiantes collection.
func StudentList(raw any) []model.Student {
	return students(unwrapList(raw, "estudiantes", "data", "results"))
}

// StudentOne normalizes a single estudiante response.
func StudentOne(raw any, fallbackID string) (model.Student, bool) {
	return student(unwrap(raw, "estudiante", "data"), fallbackID)
}

func student(item any, fallbackID string) (model.Student, bool) {
	id := ResolveID(item)
	if id == "" {
		id = fallbackID
	}
	if id == "" {
		return model.Student{}, false
	}
	if _, isObj := item.(map[string]any); !isObj {
		return model.Student{ID: id, Name: model.MissingName}, true
	}
	return model.Student{
		ID:         id,
		Name:       nameOr(item, model.MissingName),
		Surname:    field(item, "apellido"),
		NationalID: field(item, "cedula"),
		Email:      field(item, "correo", "email"),
	}, true
}

// UserList normalizes a usuarios collection.
func UserList(raw any) []model.User {
	items := unwrapList(raw, "usuarios", "data", "results")
	out := make([]model.User, 0, len(items))
	for _, item := range items {
		if u, ok := user(item, ""); ok {
			out = append(out, u)
		}
	}
	return out
}

// UserOne normalizes a single usuario response.
func UserOne(raw any, fallbackID string) (model.User, bool) {
	return user(unwrap(raw, "usuario", "data"), fallbackID)
}

func user(item any, fallbackID string) (model.User, bool) {
	if _, isObj := item.(map[string]any); !isObj {
		return model.User{}, false
	}
	id := ResolveID(item)
	if id == "" {
		id = fallbackID
	}
	if id == "" {
		return model.User{}, false
	}
	return model.User{
		ID:      id,
		Name:    nameOr(item, model.MissingName),
		Surname: field(item, "apellido"),
		Email:   field(item, "correo", "email"),
		Role:    string(domainauth.ParseRole(field(item, "rol", "role"))),
		Active:  optionalBool(item, "estado"),
	}, true
}

// CurrentUser extracts the signed-in profile from a profile response, which may be bare or
// wrapped under usuario, datos or data. It returns nil when no identity can be found.
func CurrentUser(raw any) *domainauth.CurrentUser {
	item := unwrap(raw, "usuario", "datos", "data")
	if _, ok := item.(map[string]any); !ok {
		return nil
	}
	id := ResolveID(item)
	role := field(item, "rol", "role")
	if id == "" && role == "" {
		return nil
	}
	name := strings.TrimSpace(field(item, "nombre") + " " + field(item, "apellido"))
	return &domainauth.CurrentUser{
		ID:          id,
		DisplayName: name,
		Role:        domainauth.ParseRole(role),
		Email:       field(item, "correo", "email"),
	}
}

// AuthResult is the outcome envelope returned by the login and password reset endpoints.
type AuthResult struct {
	Success bool
	Token   string
	Message string
	User    *domainauth.CurrentUser
}

// Auth decodes an authentication envelope {success, token, datos}.
func Auth(raw any) AuthResult {
	success, _ := search("success", raw).(bool)
	res := AuthResult{
		Success: success,
		Token:   field(raw, "token"),
		Message: ErrorMessage(raw),
	}
	if datos := search("datos", raw); datos != nil {
		res.User = CurrentUser(datos)
	}
	return res
}

// ErrorMessage extracts a human-readable message from an error body (error, message or msg).
func ErrorMessage(raw any) string {
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s)
	}
	if _, ok := raw.(map[string]any); !ok {
		return ""
	}
	return field(raw, "error", "message", "msg", "mensaje")
}
