package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aulaweb/aula-admin/internal/domain/model"
	"github.com/aulaweb/aula-admin/internal/service"
)

// gradeFieldName is the form field carrying the grade for subjectID.
func gradeFieldName(subjectID string) string { return "nota_" + subjectID }

func gradeEntryMeta() PageMeta {
	return PageMeta{Title: "Notas", PageTitle: "Registro de notas", CurrentPage: PageGradeEntry}
}

// Grades lists every course so an administrator can pick one to grade.
// GET /app/calificaciones.
func (h *UIHandlers) Grades(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Calificaciones", PageTitle: "Calificaciones", CurrentPage: PageGrades},
		Fetch: func(ctx context.Context, data map[string]any) error {
			courses, err := h.Courses.List(ctx)
			data["Courses"] = courses
			data["EntryBase"] = "/app/calificaciones/"
			data["EntrySuffix"] = ""
			return err
		},
	})
}

// MyCourses lists the signed-in instructor's courses. Lookup failures show an empty list.
// GET /app/mis-cursos.
func (h *UIHandlers) MyCourses(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Mis cursos", PageTitle: "Mis cursos", CurrentPage: PageMyCourses},
		Fetch: func(ctx context.Context, data map[string]any) error {
			instructorID := ""
			if u := UserFromContext(ctx); u != nil {
				instructorID = u.ID
			}
			courses, err := h.Courses.MyCourses(ctx, instructorID)
			data["Courses"] = courses
			data["EntryBase"] = "/app/mis-cursos/"
			data["EntrySuffix"] = "/notas"
			return err
		},
	})
}

type gradeView struct {
	studentID string
	values    map[string]string
	notice    string
	errs      map[string]string
}

// GradeEntry renders the grade sheet for one course and the student picked with ?estudiante=.
// GET /app/calificaciones/{id}, GET /app/mis-cursos/{id}/notas.
func (h *UIHandlers) GradeEntry(w http.ResponseWriter, r *http.Request) {
	h.gradeSheet(w, r, gradeView{studentID: r.URL.Query().Get("estudiante")})
}

func (h *UIHandlers) gradeSheet(w http.ResponseWriter, r *http.Request, v gradeView) {
	id := r.PathValue("id")
	h.Page(w, r, PageSpec{
		Meta: gradeEntryMeta(),
		Fetch: func(ctx context.Context, data map[string]any) error {
			setNotice(data, v.notice, v.errs)
			data["Action"] = r.URL.Path
			data["StudentID"] = v.studentID
			data["Values"] = v.values
			course, err := h.Courses.Get(ctx, id)
			if err != nil {
				return err
			}
			data["Course"] = course
			data["PageTitle"] = "Notas · " + course.Name
			return nil
		},
	})
}

// GradeSubmit validates the sheet and replaces the student's grades for the course.
// Validation failures re-render the sheet without calling the backend.
// POST /app/calificaciones/{id}, POST /app/mis-cursos/{id}/notas.
func (h *UIHandlers) GradeSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	studentID := strings.TrimSpace(r.PostFormValue("estudianteId"))

	course, err := h.Courses.Get(ctx, id)
	if err != nil {
		if sessionEnded(r, err) {
			redirectToLogin(w, r)
			return
		}
		h.gradeSheet(w, r, gradeView{studentID: studentID, notice: service.NoticeMessage(err)})
		return
	}

	values := gradeValues(r, *course)
	err = h.submitGrades(ctx, *course, studentID, values)
	if err != nil {
		if sessionEnded(r, err) {
			redirectToLogin(w, r)
			return
		}
		h.gradeSheet(w, r, gradeView{
			studentID: studentID,
			values:    values,
			notice:    service.NoticeMessage(err),
			errs:      fieldErrors(err),
		})
		return
	}
	afterWrite(w, r, r.URL.Path, "notas")
}

func (h *UIHandlers) submitGrades(ctx context.Context, course model.Course, studentID string, values map[string]string) error {
	entries, err := h.Grades.BuildEntries(course, studentID, values)
	if err != nil {
		return err
	}
	return h.Grades.SubmitCourseGrades(ctx, course.ID, entries)
}

// gradeValues collects the posted grade cells keyed by subject id.
func gradeValues(r *http.Request, course model.Course) map[string]string {
	values := make(map[string]string, len(course.Subjects))
	for _, s := range course.Subjects {
		if v, ok := r.PostForm[gradeFieldName(s.ID)]; ok && len(v) > 0 {
			values[s.ID] = v[0]
		}
	}
	return values
}
