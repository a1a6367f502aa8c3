package httpx

// CurrentPage identifiers used by handlers and the layout navigation.
const (
	PageLogin   = "login"
	PageRecover = "recover"
	PageReset   = "reset"
	PageHome    = "home"

	// Admin sections.
	PageUsers      = "users"
	PageUserForm   = "user-form"
	PageCourses    = "courses"
	PageCourseForm = "course-form"
	PageCourse     = "course"
	PageSubjects   = "subjects"
	PageStudents   = "students"
	PageGrades     = "grades"

	// Instructor sections.
	PageMyCourses = "my-courses"

	// Shared by both grading routes.
	PageGradeEntry = "grade-entry"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

// FormMode represents the mode of a form (create or edit).
type FormMode string

const (
	FormModeEdit   FormMode = "edit"
	FormModeCreate FormMode = "create"
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageLogin:      "login-content",
	PageRecover:    "recover-content",
	PageReset:      "reset-content",
	PageHome:       "home-content",
	PageUsers:      "users-content",
	PageUserForm:   "user-form-content",
	PageCourses:    "courses-content",
	PageCourseForm: "course-form-content",
	PageCourse:     "course-content",
	PageSubjects:   "subjects-content",
	PageStudents:   "students-content",
	PageGrades:     "grades-content",
	PageMyCourses:  "my-courses-content",
	PageGradeEntry: "grade-entry-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Unknown pages fall back to the generic home content.
func ContentTemplateFor(currentPage string) string {
	if name, ok := ContentTemplateMap()[currentPage]; ok {
		return name
	}
	return "home-content"
}
