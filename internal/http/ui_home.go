package httpx

import (
	"net/http"

	"github.com/aulaweb/aula-admin/internal/service"
)

// Home is the generic signed-in landing page. Users with a known role are sent on to
// their section; anyone else stays here.
// GET /app.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	if u := UserFromContext(r.Context()); u != nil && u.Role.Known() {
		Redirect(w, r, service.LandingPath(u.Role, ""))
		return
	}
	h.Page(w, r, PageSpec{Meta: PageMeta{Title: "Inicio", PageTitle: "Bienvenido", CurrentPage: PageHome}})
}
