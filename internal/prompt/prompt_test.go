package prompt_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/pipeline"
	"lectern/internal/prompt"
	"lectern/internal/services"
)

func TestDefaultTemplatesRenderClass(t *testing.T) {
	set := prompt.Default()

	for _, kind := range []pipeline.Kind{pipeline.KindLecture, pipeline.KindReading} {
		rendered, err := set.Render(kind, "Civil Procedure")
		if err != nil {
			t.Fatalf("Render(%s): %v", kind, err)
		}
		if !strings.Contains(rendered, "Civil Procedure") {
			t.Errorf("%s prompt missing class label", kind)
		}
		if strings.Contains(rendered, prompt.Placeholder) {
			t.Errorf("%s prompt retains placeholder", kind)
		}
	}
}

func TestRenderRejectsUnknownKind(t *testing.T) {
	if _, err := prompt.Default().Render(pipeline.Kind("quiz"), "Torts"); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lecture.md")
	if err := os.WriteFile(path, []byte("Notes for {{class}} only.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := prompt.Load(path, "")
	if err != nil {
		t.Fatal(err)
	}
	rendered, err := set.Render(pipeline.KindLecture, "Evidence")
	if err != nil {
		t.Fatal(err)
	}
	if rendered != "Notes for Evidence only.\n" {
		t.Errorf("rendered = %q", rendered)
	}

	reading, err := set.Render(pipeline.KindReading, "Evidence")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reading, "assigned reading") {
		t.Error("reading track should keep the embedded template")
	}
}

func TestLoadRejectsTemplateWithoutPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reading.md")
	if err := os.WriteFile(path, []byte("static prompt\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := prompt.Load("", path)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := prompt.Load(filepath.Join(t.TempDir(), "absent.md"), "")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
}
