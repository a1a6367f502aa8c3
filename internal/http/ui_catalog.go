package httpx

import (
	"context"
	"net/http"

	"github.com/aulaweb/aula-admin/internal/domain/model"
	"github.com/aulaweb/aula-admin/internal/service"
)

const (
	pathSubjects = "/app/materias"
	pathStudents = "/app/estudiantes"
)

func subjectsMeta() PageMeta {
	return PageMeta{Title: "Materias", PageTitle: "Materias", CurrentPage: PageSubjects}
}

func studentsMeta() PageMeta {
	return PageMeta{Title: "Estudiantes", PageTitle: "Estudiantes", CurrentPage: PageStudents}
}

// Subjects lists the subject catalog. ?editar=<id> preloads the inline form.
// GET /app/materias.
func (h *UIHandlers) Subjects(w http.ResponseWriter, r *http.Request) {
	h.subjectsPage(w, r, "")
}

func (h *UIHandlers) subjectsPage(w http.ResponseWriter, r *http.Request, notice string) {
	h.subjectsForm(w, r, subjectsView{notice: notice, editID: r.URL.Query().Get("editar")})
}

type subjectsView struct {
	notice string
	editID string
	form   *model.SubjectRequest
	errs   map[string]string
}

func (h *UIHandlers) subjectsForm(w http.ResponseWriter, r *http.Request, v subjectsView) {
	h.Page(w, r, PageSpec{
		Meta: subjectsMeta(),
		Fetch: func(ctx context.Context, data map[string]any) error {
			setNotice(data, v.notice, v.errs)
			subjects, err := h.Subjects.List(ctx)
			data["Subjects"] = subjects
			data["EditID"] = v.editID
			form := model.SubjectRequest{}
			if v.form != nil {
				form = *v.form
			} else if v.editID != "" {
				for _, s := range subjects {
					if s.ID == v.editID {
						form.Name = s.Name
					}
				}
			}
			data["Form"] = form
			return err
		},
	})
}

// SubjectCreate adds a subject.
// POST /app/materias.
func (h *UIHandlers) SubjectCreate(w http.ResponseWriter, r *http.Request) {
	req := model.SubjectRequest{Name: r.FormValue("nombre")}
	if _, err := h.Subjects.Create(r.Context(), req); err != nil {
		h.catalogWriteError(w, r, err, func(notice string, errs map[string]string) {
			h.subjectsForm(w, r, subjectsView{notice: notice, form: &req, errs: errs})
		})
		return
	}
	afterWrite(w, r, pathSubjects, "creado")
}

// SubjectUpdate renames a subject.
// POST /app/materias/{id}.
func (h *UIHandlers) SubjectUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	req := model.SubjectRequest{Name: r.FormValue("nombre")}
	if _, err := h.Subjects.Update(r.Context(), id, req); err != nil {
		h.catalogWriteError(w, r, err, func(notice string, errs map[string]string) {
			h.subjectsForm(w, r, subjectsView{notice: notice, editID: id, form: &req, errs: errs})
		})
		return
	}
	afterWrite(w, r, pathSubjects, "actualizado")
}

// SubjectDelete removes a subject.
// POST /app/materias/{id}/eliminar, DELETE /app/materias/{id}.
func (h *UIHandlers) SubjectDelete(w http.ResponseWriter, r *http.Request) {
	err := h.Subjects.Delete(r.Context(), r.PathValue("id"))
	h.afterDelete(w, r, pathSubjects, err, h.subjectsPage)
}

type studentsView struct {
	notice string
	editID string
	form   *model.StudentRequest
	errs   map[string]string
}

// Students lists students, filtered by ?cedula= and ?nombre=. ?editar=<id> preloads the form.
// GET /app/estudiantes.
func (h *UIHandlers) Students(w http.ResponseWriter, r *http.Request) {
	h.studentsPage(w, r, "")
}

func (h *UIHandlers) studentsPage(w http.ResponseWriter, r *http.Request, notice string) {
	h.studentsForm(w, r, studentsView{notice: notice, editID: r.URL.Query().Get("editar")})
}

func (h *UIHandlers) studentsForm(w http.ResponseWriter, r *http.Request, v studentsView) {
	q := r.URL.Query()
	nationalID, name := q.Get("cedula"), q.Get("nombre")
	h.Page(w, r, PageSpec{
		Meta: studentsMeta(),
		Fetch: func(ctx context.Context, data map[string]any) error {
			setNotice(data, v.notice, v.errs)
			data["FilterNationalID"] = nationalID
			data["FilterName"] = name
			data["EditID"] = v.editID
			students, err := h.Students.Search(ctx, nationalID, name)
			data["Students"] = students
			form := model.StudentRequest{}
			if v.form != nil {
				form = *v.form
			} else if v.editID != "" {
				for _, s := range students {
					if s.ID == v.editID {
						form = model.StudentRequest{Name: s.Name, Surname: s.Surname, NationalID: s.NationalID, Email: s.Email}
					}
				}
			}
			data["Form"] = form
			return err
		},
	})
}

func studentFormRequest(r *http.Request) model.StudentRequest {
	return model.StudentRequest{
		Name:       r.FormValue("nombre"),
		Surname:    r.FormValue("apellido"),
		NationalID: r.FormValue("cedula"),
		Email:      r.FormValue("correo"),
	}
}

// StudentCreate enrolls a student in the catalog.
// POST /app/estudiantes.
func (h *UIHandlers) StudentCreate(w http.ResponseWriter, r *http.Request) {
	req := studentFormRequest(r)
	if _, err := h.Students.Create(r.Context(), req); err != nil {
		h.catalogWriteError(w, r, err, func(notice string, errs map[string]string) {
			h.studentsForm(w, r, studentsView{notice: notice, form: &req, errs: errs})
		})
		return
	}
	afterWrite(w, r, pathStudents, "creado")
}

// StudentUpdate saves a student's details.
// POST /app/estudiantes/{id}.
func (h *UIHandlers) StudentUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	req := studentFormRequest(r)
	if _, err := h.Students.Update(r.Context(), id, req); err != nil {
		h.catalogWriteError(w, r, err, func(notice string, errs map[string]string) {
			h.studentsForm(w, r, studentsView{notice: notice, editID: id, form: &req, errs: errs})
		})
		return
	}
	afterWrite(w, r, pathStudents, "actualizado")
}

// StudentDelete removes a student.
// POST /app/estudiantes/{id}/eliminar, DELETE /app/estudiantes/{id}.
func (h *UIHandlers) StudentDelete(w http.ResponseWriter, r *http.Request) {
	err := h.Students.Delete(r.Context(), r.PathValue("id"))
	h.afterDelete(w, r, pathStudents, err, h.studentsPage)
}

// catalogWriteError handles a failed create or update by re-rendering through rerender.
func (h *UIHandlers) catalogWriteError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
	rerender func(notice string, errs map[string]string),
) {
	if sessionEnded(r, err) {
		redirectToLogin(w, r)
		return
	}
	rerender(service.NoticeMessage(err), fieldErrors(err))
}

func setNotice(data map[string]any, notice string, errs map[string]string) {
	if notice != "" {
		data["Error"] = true
		data["ErrorMessage"] = notice
	}
	if len(errs) > 0 {
		data["Errors"] = errs
	}
}
