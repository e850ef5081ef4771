package transcribe

import (
	"fmt"
	"sort"
	"strings"
)

// Segment is one timestamped span of recognized speech. Segments are
// immutable once produced by the engine.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// FormatTimestamp renders seconds as a zero-padded [HH:MM:SS] marker,
// truncating to whole seconds.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("[%02d:%02d:%02d]", hours, minutes, secs)
}

// Render concatenates segments into transcript file content, one line per
// segment ordered by ascending start offset. Blank segments are dropped.
func Render(segments []Segment) string {
	ordered := make([]Segment, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start < ordered[j].Start
	})

	var sb strings.Builder
	for _, segment := range ordered {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		sb.WriteString(FormatTimestamp(segment.Start))
		sb.WriteByte(' ')
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	return sb.String()
}
