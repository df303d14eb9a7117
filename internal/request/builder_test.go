package request

import (
	"fmt"
	"strings"
	"testing"
)

// fakeRenderer captures the render call instead of touching the filesystem.
type fakeRenderer struct {
	name string
	data map[string]string
	err  error
}

func (f *fakeRenderer) Render(name string, data map[string]string) (string, error) {
	f.name = name
	f.data = data
	if f.err != nil {
		return "", f.err
	}
	return "rendered:" + data["Posidents"], nil
}

func TestBuild(t *testing.T) {
	r := &fakeRenderer{}
	b := NewBuilder(r, Credentials{Username: "user", Password: "secret"})

	doc, err := b.Build([]string{"101", "102", "103"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if r.name != TemplateName {
		t.Errorf("template name = %q, want %q", r.name, TemplateName)
	}
	if r.data["Username"] != "user" || r.data["Password"] != "secret" {
		t.Errorf("credentials not passed through: %v", r.data)
	}

	want := "<v2:pOSIdent>101</v2:pOSIdent><v2:pOSIdent>102</v2:pOSIdent><v2:pOSIdent>103</v2:pOSIdent>"
	if r.data["Posidents"] != want {
		t.Errorf("posidents = %q, want %q", r.data["Posidents"], want)
	}
	if !strings.HasPrefix(doc, "rendered:") {
		t.Errorf("document = %q, want rendered output", doc)
	}
}

// Batch order must survive into the request document.
func TestBuildPreservesOrder(t *testing.T) {
	r := &fakeRenderer{}
	b := NewBuilder(r, Credentials{})

	if _, err := b.Build([]string{"c", "a", "b"}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := "<v2:pOSIdent>c</v2:pOSIdent><v2:pOSIdent>a</v2:pOSIdent><v2:pOSIdent>b</v2:pOSIdent>"
	if r.data["Posidents"] != want {
		t.Errorf("posidents = %q, want %q", r.data["Posidents"], want)
	}
}

// A token carrying XML metacharacters must not break the envelope.
func TestBuildEscapesPosidents(t *testing.T) {
	r := &fakeRenderer{}
	b := NewBuilder(r, Credentials{})

	if _, err := b.Build([]string{"a&b", "x<y"}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := "<v2:pOSIdent>a&amp;b</v2:pOSIdent><v2:pOSIdent>x&lt;y</v2:pOSIdent>"
	if r.data["Posidents"] != want {
		t.Errorf("posidents = %q, want %q", r.data["Posidents"], want)
	}
}

func TestBuildEmptyBatch(t *testing.T) {
	b := NewBuilder(&fakeRenderer{}, Credentials{})
	if _, err := b.Build(nil); err == nil {
		t.Fatal("Build should fail for an empty batch")
	}
}

func TestBuildRendererError(t *testing.T) {
	b := NewBuilder(&fakeRenderer{err: fmt.Errorf("template missing")}, Credentials{})
	if _, err := b.Build([]string{"1"}); err == nil {
		t.Fatal("Build should propagate renderer errors")
	}
}
