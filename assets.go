// Package aula provides embedded assets for production builds.
package aula

import "embed"

// In dev mode assets are loaded from disk; otherwise they are served from these embedded filesystems.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
