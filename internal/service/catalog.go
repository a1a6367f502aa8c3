package service

import (
	"context"
	"strings"

	"github.com/aulaweb/aula-admin/internal/domain/model"
	apperrors "github.com/aulaweb/aula-admin/internal/errors"
	"github.com/aulaweb/aula-admin/internal/normalize"
	"github.com/aulaweb/aula-admin/internal/ports"
	"github.com/aulaweb/aula-admin/internal/validation"
)

// CatalogServiceOptions groups dependencies shared by the catalog services.
type CatalogServiceOptions struct {
	API       ports.RESTClient // Required
	Validator *validation.Validator
}

// SubjectService manages materias.
type SubjectService struct {
	res resource
}

// NewSubjectService constructs a new SubjectService.
func NewSubjectService(opts CatalogServiceOptions) *SubjectService {
	return &SubjectService{res: newResource(opts.API, opts.Validator, "materias")}
}

// List returns every subject.
func (s *SubjectService) List(ctx context.Context) ([]model.Subject, error) {
	raw, err := s.res.list(ctx, nil)
	if err != nil {
		return nil, err
	}
	return normalize.SubjectList(raw), nil
}

// Create adds a subject. The result is nil when the backend does not echo the record.
func (s *SubjectService) Create(ctx context.Context, req model.SubjectRequest) (*model.Subject, error) {
	req.Name = strings.TrimSpace(req.Name)
	raw, err := s.res.create(ctx, req)
	if err != nil {
		return nil, err
	}
	if subj, ok := normalize.SubjectOne(raw, ""); ok {
		return &subj, nil
	}
	return nil, nil
}

// Update renames a subject.
func (s *SubjectService) Update(ctx context.Context, id string, req model.SubjectRequest) (*model.Subject, error) {
	req.Name = strings.TrimSpace(req.Name)
	raw, err := s.res.update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	subj, ok := normalize.SubjectOne(raw, id)
	if !ok {
		return nil, nil
	}
	if subj.Name == model.MissingName {
		subj.Name = req.Name
	}
	return &subj, nil
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	return s.res.delete(ctx, id)
}

// StudentService manages estudiantes.
type StudentService struct {
	res resource
}

// NewStudentService constructs a new StudentService.
func NewStudentService(opts CatalogServiceOptions) *StudentService {
	return &StudentService{res: newResource(opts.API, opts.Validator, "estudiantes")}
}

// List returns every student.
func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	raw, err := s.res.list(ctx, nil)
	if err != nil {
		return nil, err
	}
	return normalize.StudentList(raw), nil
}

// Search lists students and filters them by national id and name.
func (s *StudentService) Search(ctx context.Context, nationalID, name string) ([]model.Student, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return model.FilterStudents(all, nationalID, name), nil
}

// Create enrolls a student.
func (s *StudentService) Create(ctx context.Context, req model.StudentRequest) (*model.Student, error) {
	trimStudent(&req)
	raw, err := s.res.create(ctx, req)
	if err != nil {
		return nil, err
	}
	if st, ok := normalize.StudentOne(raw, ""); ok {
		return &st, nil
	}
	return nil, nil
}

// Update edits a student.
func (s *StudentService) Update(ctx context.Context, id string, req model.StudentRequest) (*model.Student, error) {
	trimStudent(&req)
	raw, err := s.res.update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if st, ok := normalize.StudentOne(raw, id); ok {
		return &st, nil
	}
	return nil, nil
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	return s.res.delete(ctx, id)
}

func trimStudent(req *model.StudentRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	req.NationalID = strings.TrimSpace(req.NationalID)
	req.Email = strings.TrimSpace(req.Email)
}

// UserListPath is the backend listing endpoint for accounts.
const UserListPath = "usuarios/listar"

// UserService manages user accounts.
type UserService struct {
	res resource
}

// NewUserService constructs a new UserService.
func NewUserService(opts CatalogServiceOptions) *UserService {
	res := newResource(opts.API, opts.Validator, "usuarios")
	res.listPath = UserListPath
	return &UserService{res: res}
}

// List returns every account.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	raw, err := s.res.list(ctx, nil)
	if err != nil {
		return nil, err
	}
	return normalize.UserList(raw), nil
}

// Instructors returns the accounts with the profesor role, for tutor pickers.
func (s *UserService) Instructors(ctx context.Context) ([]model.User, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(all))
	for _, u := range all {
		if strings.EqualFold(strings.TrimSpace(u.Role), "profesor") {
			out = append(out, u)
		}
	}
	return out, nil
}

// Create adds an account. A password is mandatory on create.
func (s *UserService) Create(ctx context.Context, req model.UserRequest) (*model.User, error) {
	trimUser(&req)
	if req.Password == "" {
		return nil, apperrors.ValidationField("clave", "clave es obligatorio")
	}
	raw, err := s.res.create(ctx, req)
	if err != nil {
		return nil, err
	}
	if u, ok := normalize.UserOne(raw, ""); ok {
		return &u, nil
	}
	return nil, nil
}

// Update edits an account. An empty password leaves it unchanged.
func (s *UserService) Update(ctx context.Context, id string, req model.UserRequest) (*model.User, error) {
	trimUser(&req)
	raw, err := s.res.update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if u, ok := normalize.UserOne(raw, id); ok {
		return &u, nil
	}
	return nil, nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.res.delete(ctx, id)
}

func trimUser(req *model.UserRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
}
