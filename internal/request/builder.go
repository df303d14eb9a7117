// Package request assembles CTI OS request documents. Building a request is
// a pure function of the batch and the credentials; no network access, no
// state.
package request

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// TemplateName is the request envelope template file the builder renders.
const TemplateName = "request.xml"

// Renderer renders a named template with the given values.
type Renderer interface {
	Render(name string, data map[string]string) (string, error)
}

// Credentials identify the caller to the service.
type Credentials struct {
	Username string
	Password string
}

// Builder renders request documents through an external template renderer.
type Builder struct {
	renderer Renderer
	creds    Credentials
}

// NewBuilder creates a builder for a fixed set of credentials.
func NewBuilder(renderer Renderer, creds Credentials) *Builder {
	return &Builder{renderer: renderer, creds: creds}
}

// Build renders one request document containing one pOSIdent element per
// batch member, in batch order.
func (b *Builder) Build(batch []string) (string, error) {
	if len(batch) == 0 {
		return "", fmt.Errorf("cannot build a request for an empty batch")
	}

	var sb strings.Builder
	for _, id := range batch {
		sb.WriteString("<v2:pOSIdent>")
		// Posidents are opaque tokens; escape so a stray metacharacter
		// cannot break the envelope
		if err := xml.EscapeText(&sb, []byte(id)); err != nil {
			return "", fmt.Errorf("failed to encode posident %q: %w", id, err)
		}
		sb.WriteString("</v2:pOSIdent>")
	}

	doc, err := b.renderer.Render(TemplateName, map[string]string{
		"Username":  b.creds.Username,
		"Password":  b.creds.Password,
		"Posidents": sb.String(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to build request document: %w", err)
	}
	return doc, nil
}
