package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"golang.org/x/term"

	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
	"github.com/aulaweb/aula-admin/internal/domain/model"
	"github.com/aulaweb/aula-admin/internal/ports"
	"github.com/aulaweb/aula-admin/internal/service"
)

var readPasswordFunc = term.ReadPassword // mockable

// lastNavigator remembers where the gateway would send a browser.
type lastNavigator struct {
	mu   sync.Mutex
	last string
}

var _ ports.Navigator = (*lastNavigator)(nil)

func (n *lastNavigator) Navigate(_ context.Context, path string) {
	n.mu.Lock()
	n.last = path
	n.mu.Unlock()
}

func (n *lastNavigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// userError carries the message shown to the operator alongside the cause.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.err.Error() }
func (e *userError) Unwrap() error { return e.err }

func userMessage(err error) string {
	var ue *userError
	if errors.As(err, &ue) {
		return ue.msg
	}
	return service.NoticeMessage(err)
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return nil
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(ctx *commandContext) (string, error) {
	if ctx.In == nil {
		return "", errors.New("no input available for password")
	}
	fd := int(ctx.In.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(ctx.In).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err := write(ctx.Out, "Contraseña: "); err != nil {
		return "", err
	}
	pwd, err := readPasswordFunc(fd)
	if werr := writeln(ctx.Out); werr != nil {
		return "", werr
	}
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pwd), nil
}

func runLogin(ctx *commandContext, args []string) error {
	fs := newFlagSet("login", ctx.Out)
	email := fs.String("correo", "", "Email to sign in with (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		fs.Usage()
		return errUsage
	}

	password, err := readPassword(ctx)
	if err != nil {
		return err
	}

	res, err := ctx.Services.Auth.Login(ctx.Ctx, domainauth.Credentials{Email: *email, Password: password}, "")
	if err != nil {
		return &userError{msg: service.LoginErrorMessage(err), err: err}
	}
	return writef(ctx.Out, "Sesión iniciada como %s (%s). Vista inicial: %s\n",
		res.User.DisplayName, res.User.Role, res.Landing)
}

func runLogout(ctx *commandContext, _ []string) error {
	if err := ctx.Services.Auth.Logout(ctx.Ctx); err != nil {
		return err
	}
	return writeln(ctx.Out, "Sesión cerrada.")
}

// currentUser loads the profile for the stored token, or fails with a sign-in hint.
func currentUser(ctx *commandContext) (*domainauth.CurrentUser, error) {
	if !ctx.Services.Auth.EnsureProfileLoaded(ctx.Ctx) {
		return nil, &userError{msg: "No hay sesión activa. Ejecuta: aula-cli login -correo <correo>", err: errors.New("not signed in")}
	}
	snap := ctx.Services.Auth.Snapshot(ctx.Ctx)
	if snap.User == nil {
		return nil, &userError{msg: service.MsgProfileUnavailable, err: service.ErrProfileUnavailable}
	}
	return snap.User, nil
}

func runWhoami(ctx *commandContext, _ []string) error {
	u, err := currentUser(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	if err := writef(w, "ID\t%s\nNombre\t%s\nRol\t%s\nCorreo\t%s\n", u.ID, u.DisplayName, u.Role, u.Email); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return w.Flush()
}

func runRecover(ctx *commandContext, args []string) error {
	fs := newFlagSet("recover", ctx.Out)
	email := fs.String("correo", "", "Email of the account to recover (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	msg, err := ctx.Services.Auth.RecoverPassword(ctx.Ctx, *email)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = service.MsgRecoverSent
	}
	return writeln(ctx.Out, msg)
}

func requireRole(ctx *commandContext, role domainauth.Role) (*domainauth.CurrentUser, error) {
	u, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !u.Role.Is(role) {
		return nil, &userError{
			msg: fmt.Sprintf("Este comando requiere el rol %s.", role),
			err: fmt.Errorf("role %q required, have %q", role, u.Role),
		}
	}
	return u, nil
}

func runCourses(ctx *commandContext, _ []string) error {
	if _, err := requireRole(ctx, domainauth.RoleAdmin); err != nil {
		return err
	}
	courses, err := ctx.Services.Courses.List(ctx.Ctx)
	if err != nil {
		return err
	}
	return printCourses(ctx.Out, courses)
}

func runMyCourses(ctx *commandContext, _ []string) error {
	u, err := requireRole(ctx, domainauth.RoleInstructor)
	if err != nil {
		return err
	}
	courses, err := ctx.Services.Courses.MyCourses(ctx.Ctx, u.ID)
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		return writeln(ctx.Out, "No tienes cursos asignados.")
	}
	return printCourses(ctx.Out, courses)
}

func printCourses(out io.Writer, courses []model.Course) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if err := writeln(w, "ID\tNombre\tTutor\tMaterias\tEstudiantes"); err != nil {
		return fmt.Errorf("write courses header: %w", err)
	}
	for _, c := range courses {
		if err := writef(w, "%s\t%s\t%s\t%d\t%d\n",
			c.ID, c.Name, c.Tutor.DisplayName(), len(c.Subjects), len(c.Students)); err != nil {
			return fmt.Errorf("write course %q: %w", c.ID, err)
		}
	}
	return w.Flush()
}

type gradeOptions struct {
	CourseID  string
	StudentID string
	Values    map[string]string
}

func parseGradeFlags(out io.Writer, args []string) (gradeOptions, error) {
	fs := newFlagSet("grade", out)
	var opts gradeOptions
	fs.StringVar(&opts.CourseID, "course", "", "Course ID (required)")
	fs.StringVar(&opts.StudentID, "student", "", "Student ID (required)")
	if err := parseFlags(fs, args); err != nil {
		return gradeOptions{}, err
	}

	opts.CourseID = strings.TrimSpace(opts.CourseID)
	opts.StudentID = strings.TrimSpace(opts.StudentID)
	if opts.CourseID == "" || opts.StudentID == "" || fs.NArg() == 0 {
		fs.Usage()
		return gradeOptions{}, errUsage
	}

	opts.Values = make(map[string]string, fs.NArg())
	for _, arg := range fs.Args() {
		subject, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(subject) == "" {
			return gradeOptions{}, fmt.Errorf("%w: expected SUBJECT=VALUE, got %q", errUsage, arg)
		}
		opts.Values[strings.TrimSpace(subject)] = value
	}
	return opts, nil
}

func runGrade(ctx *commandContext, args []string) error {
	opts, err := parseGradeFlags(ctx.Out, args)
	if err != nil {
		return err
	}
	if _, err := currentUser(ctx); err != nil {
		return err
	}

	course, err := ctx.Services.Courses.Get(ctx.Ctx, opts.CourseID)
	if err != nil {
		return err
	}
	for subject := range opts.Values {
		if _, ok := course.SubjectByID(subject); !ok {
			return &userError{
				msg: fmt.Sprintf("El curso %s no tiene la materia %s.", course.Name, subject),
				err: fmt.Errorf("unknown subject %q", subject),
			}
		}
	}

	entries, err := ctx.Services.Grades.BuildEntries(*course, opts.StudentID, opts.Values)
	if err != nil {
		return err
	}
	if err := ctx.Services.Grades.SubmitCourseGrades(ctx.Ctx, course.ID, entries); err != nil {
		return err
	}
	return writef(ctx.Out, "%d notas registradas en %s.\n", len(entries), course.Name)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func write(w io.Writer, args ...any) error {
	_, err := fmt.Fprint(w, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}

