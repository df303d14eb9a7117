// Package template renders XML request documents from files in a templates
// directory. Templates are standard text/template files; rendered output is
// returned as a string and never written to disk.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Renderer loads and renders templates from a directory.
type Renderer struct {
	dir string
}

// NewRenderer creates a renderer rooted at dir.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

// Render reads the named template and executes it with the given values.
// Unknown placeholders are an error rather than silently emitted empty,
// since a hole in a request envelope means a malformed service call.
func (r *Renderer) Render(name string, data map[string]string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return sb.String(), nil
}
