// Package model defines the canonical data types the admin front end works with,
// independent of the shapes the school backend happens to return.
package model

import "strings"

// MissingName is shown when the backend omits a display name.
const MissingName = "—"

// TutorKind discriminates the Tutor variant.
type TutorKind int

const (
	TutorUnassigned TutorKind = iota
	TutorReference
	TutorProfile
)

// Tutor is the course tutor: absent, a bare reference by id, or an embedded profile.
type Tutor struct {
	Kind    TutorKind `json:"kind"`
	ID      string    `json:"id,omitempty"`
	Name    string    `json:"nombre,omitempty"`
	Surname string    `json:"apellido,omitempty"`
	Email   string    `json:"correo,omitempty"`
}

// UnassignedTutor returns the empty tutor variant.
func UnassignedTutor() Tutor { return Tutor{Kind: TutorUnassigned} }

// TutorRef returns a tutor known only by id.
func TutorRef(id string) Tutor { return Tutor{Kind: TutorReference, ID: id} }

// Assigned reports whether the course has any tutor.
func (t Tutor) Assigned() bool { return t.Kind != TutorUnassigned }

// DisplayName renders the tutor for listings.
func (t Tutor) DisplayName() string {
	switch t.Kind {
	case TutorProfile:
		full := strings.TrimSpace(t.Name + " " + t.Surname)
		if full == "" {
			return t.Email
		}
		return full
	case TutorReference:
		return t.ID
	default:
		return "Sin tutor"
	}
}

// Course is the canonical course shape. After normalization ID is non-empty and
// Subjects/Students are non-nil.
type Course struct {
	ID       string    `json:"id"`
	Name     string    `json:"nombre"`
	Tutor    Tutor     `json:"profesorTutor"`
	Subjects []Subject `json:"materias"`
	Students []Student `json:"estudiantes"`
	Active   *bool     `json:"estado,omitempty"`
}

// SubjectByID returns the course subject with the given id.
func (c Course) SubjectByID(id string) (Subject, bool) {
	for _, s := range c.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

// StudentByID returns the course student with the given id.
func (c Course) StudentByID(id string) (Student, bool) {
	for _, s := range c.Students {
		if s.ID == id {
			return s, true
		}
	}
	return Student{}, false
}

// CourseRequest is the payload for creating or updating a course.
type CourseRequest struct {
	Name       string   `json:"nombre"                  validate:"required,max=120"`
	TutorID    string   `json:"profesorTutor,omitempty"`
	SubjectIDs []string `json:"materias"`
	StudentIDs []string `json:"estudiantes"`
	Active     *bool    `json:"estado,omitempty"`
}
