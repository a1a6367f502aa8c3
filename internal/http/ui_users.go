package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aulaweb/aula-admin/internal/domain/model"
	apperrors "github.com/aulaweb/aula-admin/internal/errors"
	obserrors "github.com/aulaweb/aula-admin/internal/observability/errors"
	"github.com/aulaweb/aula-admin/internal/service"
)

const pathUsers = "/app/usuarios"

func usersMeta() PageMeta {
	return PageMeta{Title: "Usuarios", PageTitle: "Gestión de usuarios", CurrentPage: PageUsers}
}

func userFormMeta(mode FormMode) PageMeta {
	title := "Nuevo usuario"
	if mode == FormModeEdit {
		title = "Editar usuario"
	}
	return PageMeta{Title: title, PageTitle: title, CurrentPage: PageUserForm}
}

// Users lists every account.
// GET /app/usuarios.
func (h *UIHandlers) Users(w http.ResponseWriter, r *http.Request) {
	h.usersPage(w, r, "")
}

func (h *UIHandlers) usersPage(w http.ResponseWriter, r *http.Request, notice string) {
	h.Page(w, r, PageSpec{
		Meta: usersMeta(),
		Fetch: func(ctx context.Context, data map[string]any) error {
			setNotice(data, notice, nil)
			users, err := h.Users.List(ctx)
			data["Users"] = users
			return err
		},
	})
}

// UserNew renders an empty user form.
// GET /app/usuarios/nuevo.
func (h *UIHandlers) UserNew(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, userFormMeta(FormModeCreate)).
		With("Mode", FormModeCreate).
		With("Form", model.UserRequest{Role: "profesor"}).
		Build()
	h.render(w, r, data)
}

// UserEdit renders the form for an existing user.
// GET /app/usuarios/{id}/editar.
func (h *UIHandlers) UserEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.Page(w, r, PageSpec{
		Meta: userFormMeta(FormModeEdit),
		Fetch: func(ctx context.Context, data map[string]any) error {
			data["Mode"] = FormModeEdit
			data["ID"] = id
			users, err := h.Users.List(ctx)
			if err != nil {
				return err
			}
			for _, u := range users {
				if u.ID == id {
					data["Form"] = model.UserRequest{Name: u.Name, Surname: u.Surname, Email: u.Email, Role: u.Role}
					return nil
				}
			}
			return apperrors.NotFound("Usuario no encontrado.")
		},
	})
}

func userFormRequest(r *http.Request) model.UserRequest {
	return model.UserRequest{
		Name:     r.FormValue("nombre"),
		Surname:  r.FormValue("apellido"),
		Email:    r.FormValue("correo"),
		Password: r.FormValue("clave"),
		Role:     strings.ToLower(strings.TrimSpace(r.FormValue("rol"))),
	}
}

// UserCreate creates an account.
// POST /app/usuarios.
func (h *UIHandlers) UserCreate(w http.ResponseWriter, r *http.Request) {
	req := userFormRequest(r)
	if _, err := h.Users.Create(r.Context(), req); err != nil {
		h.userFormError(w, r, FormModeCreate, "", req, err)
		return
	}
	afterWrite(w, r, pathUsers, "creado")
}

// UserUpdate saves changes to an account. An empty password leaves it unchanged.
// POST /app/usuarios/{id}.
func (h *UIHandlers) UserUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	req := userFormRequest(r)
	if _, err := h.Users.Update(r.Context(), id, req); err != nil {
		h.userFormError(w, r, FormModeEdit, id, req, err)
		return
	}
	afterWrite(w, r, pathUsers, "actualizado")
}

// UserDelete removes an account.
// POST /app/usuarios/{id}/eliminar, DELETE /app/usuarios/{id}.
func (h *UIHandlers) UserDelete(w http.ResponseWriter, r *http.Request) {
	err := h.Users.Delete(r.Context(), r.PathValue("id"))
	h.afterDelete(w, r, pathUsers, err, h.usersPage)
}

func (h *UIHandlers) userFormError(w http.ResponseWriter, r *http.Request, mode FormMode, id string, req model.UserRequest, err error) {
	if sessionEnded(r, err) {
		redirectToLogin(w, r)
		return
	}
	req.Password = ""
	data := NewTemplateData(r, userFormMeta(mode)).
		With("Mode", mode).
		With("ID", id).
		With("Form", req).
		WithError(service.NoticeMessage(err)).
		WithFieldErrors(fieldErrors(err)).
		Build()
	h.render(w, r, data)
}

// afterDelete returns to the list after a delete. A failure re-renders the list with the notice.
func (h *UIHandlers) afterDelete(
	w http.ResponseWriter,
	r *http.Request,
	listPath string,
	err error,
	relist func(w http.ResponseWriter, r *http.Request, notice string),
) {
	switch {
	case err == nil:
		afterWrite(w, r, listPath, "eliminado")
	case sessionEnded(r, err):
		redirectToLogin(w, r)
	default:
		h.logger().WarnContext(r.Context(), "delete failed",
			"path", r.URL.Path, "error", err, "error_class", obserrors.Classify(err))
		relist(w, r, service.NoticeMessage(err))
	}
}
