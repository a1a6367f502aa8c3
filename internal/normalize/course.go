package normalize

import (
	"github.com/aulaweb/aula-admin/internal/domain/model"
)

var (
	courseListKeys = []string{"cursos", "data", "results"}
	courseOneKeys  = []string{"curso", "data"}
)

// CourseList normalizes a course collection response. It accepts a bare array or an
// object wrapping the array under cursos, data or results (first present wins).
// Items without a resolvable id are dropped.
func CourseList(raw any) []model.Course {
	items := unwrapList(raw, courseListKeys...)
	out := make([]model.Course, 0, len(items))
	for _, item := range items {
		c, ok := course(item, "")
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

// CourseOne normalizes a single-course response wrapped under curso, data, or bare.
// When the payload carries no id, fallbackID (the id that was requested) is used.
func CourseOne(raw any, fallbackID string) (model.Course, bool) {
	return course(unwrap(raw, courseOneKeys...), fallbackID)
}

func course(item any, fallbackID string) (model.Course, bool) {
	if _, ok := item.(map[string]any); !ok {
		return model.Course{}, false
	}
	id := ResolveID(item)
	if id == "" {
		id = fallbackID
	}
	if id == "" {
		return model.Course{}, false
	}
	return model.Course{
		ID:       id,
		Name:     nameOr(item, model.MissingName),
		Tutor:    Tutor(search("profesorTutor", item)),
		Subjects: subjects(search("materias", item)),
		Students: students(search("estudiantes", item)),
		Active:   optionalBool(item, "estado"),
	}, true
}

// Tutor maps the profesorTutor field onto the tutor variant: a non-empty string is a
// reference, an object is an embedded profile, anything else is unassigned.
func Tutor(raw any) model.Tutor {
	switch v := raw.(type) {
	case string:
		if id := str(v); id != "" {
			return model.TutorRef(id)
		}
	case map[string]any:
		return model.Tutor{
			Kind:    model.TutorProfile,
			ID:      ResolveID(v),
			Name:    field(v, "nombre"),
			Surname: field(v, "apellido"),
			Email:   field(v, "correo", "email"),
		}
	}
	return model.UnassignedTutor()
}

// subjects accepts an array of subject objects or bare ids; other shapes yield an empty list.
func subjects(raw any) []model.Subject {
	items, _ := raw.([]any)
	out := make([]model.Subject, 0, len(items))
	for _, item := range items {
		if s, ok := subject(item, ""); ok {
			out = append(out, s)
		}
	}
	return out
}

func students(raw any) []model.Student {
	items, _ := raw.([]any)
	out := make([]model.Student, 0, len(items))
	for _, item := range items {
		if s, ok := student(item, ""); ok {
			out = append(out, s)
		}
	}
	return out
}
