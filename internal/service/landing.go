package service

import (
	"strings"

	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
)

// Landing pages.
const (
	PathLogin          = "/login"
	PathApp            = "/app"
	PathAdminHome      = "/app/usuarios"
	PathInstructorHome = "/app/mis-cursos"
)

// adminOnlyPrefixes are sections an instructor may not land on after login.
var adminOnlyPrefixes = []string{
	"/app/usuarios",
	"/app/cursos",
	"/app/materias",
	"/app/estudiantes",
	"/app/calificaciones",
}

// IsAdminOnlyPath reports whether path belongs to an admin-only section.
func IsAdminOnlyPath(path string) bool {
	for _, p := range adminOnlyPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") || strings.HasPrefix(path, p+"?") {
			return true
		}
	}
	return false
}

// LandingPath computes the post-login destination for role. returnURL is honored only
// when it is a local path; instructors are never sent to admin-only sections and
// unrecognized roles always land on the generic app page.
func LandingPath(role domainauth.Role, returnURL string) string {
	ret := localPath(returnURL)
	switch {
	case role.Is(domainauth.RoleInstructor):
		if ret == "" || IsAdminOnlyPath(ret) {
			return PathInstructorHome
		}
		return ret
	case role.Is(domainauth.RoleAdmin):
		if ret == "" {
			return PathAdminHome
		}
		return ret
	default:
		return PathApp
	}
}

// localPath returns p when it is a same-origin absolute path, otherwise "".
func localPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return ""
	}
	if p == PathLogin || strings.HasPrefix(p, PathLogin+"?") {
		return ""
	}
	return p
}
