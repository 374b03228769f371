// Package views holds the console's HTML templates.
package views

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Templates parses every page together with the shared layout blocks.
// Pages are addressed by file name, e.g. "login.html".
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFiles, "templates/*.html")
}
