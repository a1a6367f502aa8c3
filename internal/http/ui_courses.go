package httpx

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/aulaweb/aula-admin/internal/domain/model"
)

const pathCourses = "/app/cursos"

func coursesMeta() PageMeta {
	return PageMeta{Title: "Cursos", PageTitle: "Cursos", CurrentPage: PageCourses}
}

func courseFormMeta(mode FormMode) PageMeta {
	title := "Nuevo curso"
	if mode == FormModeEdit {
		title = "Editar curso"
	}
	return PageMeta{Title: title, PageTitle: title, CurrentPage: PageCourseForm}
}

// Courses lists every course.
// GET /app/cursos.
func (h *UIHandlers) Courses(w http.ResponseWriter, r *http.Request) {
	h.coursesPage(w, r, "")
}

func (h *UIHandlers) coursesPage(w http.ResponseWriter, r *http.Request, notice string) {
	h.Page(w, r, PageSpec{
		Meta: coursesMeta(),
		Fetch: func(ctx context.Context, data map[string]any) error {
			setNotice(data, notice, nil)
			courses, err := h.Courses.List(ctx)
			data["Courses"] = courses
			return err
		},
	})
}

// Course shows one course with its tutor, subjects and students.
// GET /app/cursos/{id}.
func (h *UIHandlers) Course(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Curso", PageTitle: "Detalle del curso", CurrentPage: PageCourse},
		Fetch: func(ctx context.Context, data map[string]any) error {
			course, err := h.Courses.Get(ctx, id)
			if err != nil {
				return err
			}
			data["Course"] = course
			data["PageTitle"] = course.Name
			return nil
		},
	})
}

// courseOptions loads the choices the course form offers.
func (h *UIHandlers) courseOptions(ctx context.Context, data map[string]any) error {
	var (
		instructors []model.User
		subjects    []model.Subject
		students    []model.Student
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		instructors, err = h.Users.Instructors(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		subjects, err = h.Subjects.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		students, err = h.Students.List(gctx)
		return err
	})
	err := g.Wait()
	data["Instructors"] = instructors
	data["SubjectOptions"] = subjects
	data["StudentOptions"] = students
	return err
}

func courseRequestFrom(c *model.Course) model.CourseRequest {
	req := model.CourseRequest{Name: c.Name, Active: c.Active}
	if c.Tutor.Assigned() {
		req.TutorID = c.Tutor.ID
	}
	for _, s := range c.Subjects {
		req.SubjectIDs = append(req.SubjectIDs, s.ID)
	}
	for _, s := range c.Students {
		req.StudentIDs = append(req.StudentIDs, s.ID)
	}
	return req
}

func courseFormRequest(r *http.Request) model.CourseRequest {
	_ = r.ParseForm()
	active := r.PostFormValue("estado") == "on"
	return model.CourseRequest{
		Name:       r.PostFormValue("nombre"),
		TutorID:    r.PostFormValue("profesorTutor"),
		SubjectIDs: r.PostForm["materias"],
		StudentIDs: r.PostForm["estudiantes"],
		Active:     &active,
	}
}

// CourseNew renders an empty course form.
// GET /app/cursos/nuevo.
func (h *UIHandlers) CourseNew(w http.ResponseWriter, r *http.Request) {
	active := true
	h.courseForm(w, r, courseFormView{mode: FormModeCreate, form: model.CourseRequest{Active: &active}})
}

// CourseEdit renders the form for an existing course.
// GET /app/cursos/{id}/editar.
func (h *UIHandlers) CourseEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.Page(w, r, PageSpec{
		Meta: courseFormMeta(FormModeEdit),
		Fetch: func(ctx context.Context, data map[string]any) error {
			data["Mode"] = FormModeEdit
			data["ID"] = id
			course, err := h.Courses.Get(ctx, id)
			if err != nil {
				return err
			}
			data["Form"] = courseRequestFrom(course)
			return h.courseOptions(ctx, data)
		},
	})
}

type courseFormView struct {
	mode   FormMode
	id     string
	form   model.CourseRequest
	notice string
	errs   map[string]string
}

func (h *UIHandlers) courseForm(w http.ResponseWriter, r *http.Request, v courseFormView) {
	h.Page(w, r, PageSpec{
		Meta: courseFormMeta(v.mode),
		Fetch: func(ctx context.Context, data map[string]any) error {
			setNotice(data, v.notice, v.errs)
			data["Mode"] = v.mode
			data["ID"] = v.id
			data["Form"] = v.form
			return h.courseOptions(ctx, data)
		},
	})
}

// CourseCreate creates a course.
// POST /app/cursos.
func (h *UIHandlers) CourseCreate(w http.ResponseWriter, r *http.Request) {
	req := courseFormRequest(r)
	created, err := h.Courses.Create(r.Context(), req)
	if err != nil {
		h.catalogWriteError(w, r, err, func(notice string, errs map[string]string) {
			h.courseForm(w, r, courseFormView{mode: FormModeCreate, form: req, notice: notice, errs: errs})
		})
		return
	}
	target := pathCourses
	if created != nil {
		target = pathCourses + "/" + created.ID
	}
	afterWrite(w, r, target, "creado")
}

// CourseUpdate saves a course.
// POST /app/cursos/{id}.
func (h *UIHandlers) CourseUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	req := courseFormRequest(r)
	if _, err := h.Courses.Update(r.Context(), id, req); err != nil {
		h.catalogWriteError(w, r, err, func(notice string, errs map[string]string) {
			h.courseForm(w, r, courseFormView{mode: FormModeEdit, id: id, form: req, notice: notice, errs: errs})
		})
		return
	}
	afterWrite(w, r, pathCourses+"/"+id, "actualizado")
}

// CourseDelete removes a course.
// POST /app/cursos/{id}/eliminar, DELETE /app/cursos/{id}.
func (h *UIHandlers) CourseDelete(w http.ResponseWriter, r *http.Request) {
	err := h.Courses.Delete(r.Context(), r.PathValue("id"))
	h.afterDelete(w, r, pathCourses, err, h.coursesPage)
}
