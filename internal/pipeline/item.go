package pipeline

import (
	"github.com/google/uuid"
)

// Kind distinguishes the two processing tracks.
type Kind string

const (
	KindLecture Kind = "lecture"
	KindReading Kind = "reading"
)

// Stage represents the lifecycle of a work item.
type Stage string

const (
	StagePendingTranscription Stage = "pending_transcription"
	StagePendingGeneration    Stage = "pending_generation"
	StageDone                 Stage = "done"
	StageFailed               Stage = "failed"
)

// WorkItem is a tracked unit of input file progressing through the pipeline.
// Exactly one WorkItem exists per physical input file within a run; its
// SourcePath is updated once per successful stage transition and never read
// after the underlying file has been moved.
type WorkItem struct {
	ID         string
	Class      string
	Kind       Kind
	SourcePath string
	Stage      Stage
	Attempts   int
	LastErr    error
}

// NewWorkItem creates a WorkItem for a freshly discovered input file.
func NewWorkItem(class string, kind Kind, sourcePath string) *WorkItem {
	stage := StagePendingGeneration
	if kind == KindLecture {
		stage = StagePendingTranscription
	}
	return &WorkItem{
		ID:         uuid.NewString(),
		Class:      class,
		Kind:       kind,
		SourcePath: sourcePath,
		Stage:      stage,
	}
}

// Outcome is the terminal result of one item within one pool submission.
type Outcome struct {
	Item       *WorkItem
	OutputPath string
	Err        error
}

// Succeeded reports whether the item reached a successful terminal state.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}
