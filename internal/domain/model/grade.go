package model

// Grade bounds on the 0-20 scale used by the school.
const (
	MinGrade = 0
	MaxGrade = 20
)

// GradeEntry is one grade for one student in one subject.
type GradeEntry struct {
	StudentID string  `json:"estudianteId" validate:"required"`
	SubjectID string  `json:"materiaId"    validate:"required"`
	Value     float64 `json:"valor"        validate:"gte=0,lte=20"`
}

// GradeSubmission is the bulk payload sent for a course.
type GradeSubmission struct {
	Entries []GradeEntry `json:"notas" validate:"required,min=1,dive"`
}
