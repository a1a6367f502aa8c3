package httpx

import (
	"net/http"

	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
	"github.com/aulaweb/aula-admin/internal/service"
)

// PageMeta is the layout metadata every page carries.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// flashMessages maps the ?ok= query value set after a successful write to its notice.
//
//nolint:gochecknoglobals // static read-only lookup
var flashMessages = map[string]string{
	"creado":      "Registro creado correctamente.",
	"actualizado": "Cambios guardados.",
	"eliminado":   "Registro eliminado.",
	"notas":       "Notas guardadas correctamente.",
	"clave":       service.MsgResetDone,
}

// basePageData seeds the template data shared by every page.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	data := map[string]any{
		"Title":           meta.Title,
		"PageTitle":       meta.PageTitle,
		"CurrentPage":     meta.CurrentPage,
		"IsAuthenticated": false,
		"IsAdmin":         false,
		"IsInstructor":    false,
		"CSRFToken":       CSRFToken(r),
	}
	if u := UserFromContext(r.Context()); u != nil {
		data["User"] = u
		data["IsAuthenticated"] = true
		data["IsAdmin"] = u.Role.Is(domainauth.RoleAdmin)
		data["IsInstructor"] = u.Role.Is(domainauth.RoleInstructor)
	}
	if msg, ok := flashMessages[r.URL.Query().Get("ok")]; ok {
		data["Flash"] = msg
	}
	return data
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{data: basePageData(r, meta)}
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	if msg == "" {
		return b
	}
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
