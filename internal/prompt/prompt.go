package prompt

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"lectern/internal/pipeline"
	"lectern/internal/services"
)

// Placeholder is substituted with the class label when a prompt is rendered.
const Placeholder = "{{class}}"

//go:embed templates/lecture.md templates/reading.md
var templates embed.FS

// Set holds the instruction templates for both processing tracks.
type Set struct {
	lecture string
	reading string
}

// Default returns the embedded templates.
func Default() Set {
	lecture, err := templates.ReadFile("templates/lecture.md")
	if err != nil {
		panic(fmt.Sprintf("embedded lecture template: %v", err))
	}
	reading, err := templates.ReadFile("templates/reading.md")
	if err != nil {
		panic(fmt.Sprintf("embedded reading template: %v", err))
	}
	return Set{lecture: string(lecture), reading: string(reading)}
}

// Load builds a Set from the embedded templates, replacing either track with
// the file at the given path when the path is non-empty. Override templates
// must carry the class placeholder.
func Load(lecturePath, readingPath string) (Set, error) {
	set := Default()
	if lecturePath != "" {
		text, err := readTemplate(lecturePath)
		if err != nil {
			return Set{}, err
		}
		set.lecture = text
	}
	if readingPath != "" {
		text, err := readTemplate(readingPath)
		if err != nil {
			return Set{}, err
		}
		set.reading = text
	}
	return set, nil
}

// Render substitutes the class label into the template for the given kind.
func (s Set) Render(kind pipeline.Kind, class string) (string, error) {
	var template string
	switch kind {
	case pipeline.KindLecture:
		template = s.lecture
	case pipeline.KindReading:
		template = s.reading
	default:
		return "", services.Wrap(services.ErrValidation, "prompt", "render",
			fmt.Sprintf("unknown item kind %q", kind), nil)
	}
	return strings.ReplaceAll(template, Placeholder, class), nil
}

func readTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "prompt", "load template", path, err)
	}
	text := string(data)
	if !strings.Contains(text, Placeholder) {
		return "", services.Wrap(services.ErrConfiguration, "prompt", "load template",
			fmt.Sprintf("%s is missing the %s placeholder", path, Placeholder), nil)
	}
	return text, nil
}
