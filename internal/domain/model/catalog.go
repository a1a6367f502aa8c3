package model

import "strings"

// Subject is a materia taught in a course.
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"nombre"`
}

// Student is an enrolled estudiante.
type Student struct {
	ID         string `json:"id"`
	Name       string `json:"nombre"`
	Surname    string `json:"apellido,omitempty"`
	NationalID string `json:"cedula,omitempty"`
	Email      string `json:"correo,omitempty"`
}

// FullName joins name and surname.
func (s Student) FullName() string {
	return strings.TrimSpace(s.Name + " " + s.Surname)
}

// User is an account managed by administrators.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"nombre"`
	Surname string `json:"apellido,omitempty"`
	Email   string `json:"correo"`
	Role    string `json:"rol"`
	Active  *bool  `json:"estado,omitempty"`
}

// SubjectRequest creates or updates a subject.
type SubjectRequest struct {
	Name string `json:"nombre" validate:"required,max=120"`
}

// StudentRequest creates or updates a student.
type StudentRequest struct {
	Name       string `json:"nombre"           validate:"required,max=80"`
	Surname    string `json:"apellido"         validate:"required,max=80"`
	NationalID string `json:"cedula"           validate:"required,numeric,min=6,max=13"`
	Email      string `json:"correo,omitempty" validate:"omitempty,email"`
}

// UserRequest creates or updates a user. Password is only required on create.
type UserRequest struct {
	Name     string `json:"nombre"          validate:"required,max=80"`
	Surname  string `json:"apellido"        validate:"max=80"`
	Email    string `json:"correo"          validate:"required,email"`
	Password string `json:"clave,omitempty" validate:"omitempty,min=6"`
	Role     string `json:"rol"             validate:"required,oneof=admin profesor"`
}

// FilterStudents keeps students whose national id contains nationalID and whose
// full name contains name, case-insensitively. Empty filters match everything.
func FilterStudents(students []Student, nationalID, name string) []Student {
	nationalID = strings.TrimSpace(nationalID)
	name = strings.ToLower(strings.TrimSpace(name))
	out := make([]Student, 0, len(students))
	for _, s := range students {
		if nationalID != "" && !strings.Contains(s.NationalID, nationalID) {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(s.FullName()), name) {
			continue
		}
		out = append(out, s)
	}
	return out
}
