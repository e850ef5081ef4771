package pipeline

import (
	"sort"
	"sync"
	"time"

	"lectern/internal/services"
)

// StageName labels one pipeline phase in the run report.
type StageName string

const (
	StageTranscribe   StageName = "transcribe"
	StageLectureNotes StageName = "lecture-notes"
	StageReadingNotes StageName = "reading-notes"
	StageArchive      StageName = "archive"
)

// StageCounts tallies terminal outcomes for one stage of one class.
type StageCounts struct {
	Succeeded int
	Failed    int
}

// Failure captures one failed item for the end-of-run summary.
type Failure struct {
	ItemID    string
	Class     string
	Kind      Kind
	Stage     StageName
	Path      string
	ErrorKind string
	Message   string
}

// ClassReport aggregates outcomes for one class workspace.
type ClassReport struct {
	Class      string
	Skipped    bool
	SkipReason string
	Stages     map[StageName]*StageCounts
	Failures   []Failure
}

// RunReport maps work item identity to terminal outcome, grouped by class
// and stage. It is accumulated during the run and read-only afterwards.
type RunReport struct {
	mu        sync.Mutex
	StartedAt time.Time
	EndedAt   time.Time
	classes   map[string]*ClassReport
}

// NewRunReport creates an empty report stamped with the start time.
func NewRunReport() *RunReport {
	return &RunReport{
		StartedAt: time.Now(),
		classes:   make(map[string]*ClassReport),
	}
}

// RecordSuccess tallies a successful terminal outcome.
func (r *RunReport) RecordSuccess(class string, stage StageName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts(class, stage).Succeeded++
}

// RecordFailure tallies a failed item with its error detail.
func (r *RunReport) RecordFailure(class string, stage StageName, item *WorkItem, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts(class, stage).Failed++

	failure := Failure{
		Class:     class,
		Stage:     stage,
		ErrorKind: services.Kind(err),
	}
	if err != nil {
		failure.Message = err.Error()
	}
	if item != nil {
		failure.ItemID = item.ID
		failure.Kind = item.Kind
		failure.Path = item.SourcePath
	}
	cr := r.classes[class]
	cr.Failures = append(cr.Failures, failure)
}

// RecordSkippedClass marks a workspace that failed verification.
func (r *RunReport) RecordSkippedClass(class, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cr := r.class(class)
	cr.Skipped = true
	cr.SkipReason = reason
}

// Finish stamps the completion time.
func (r *RunReport) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.EndedAt = time.Now()
}

// Classes returns the per-class reports sorted by class label.
func (r *RunReport) Classes() []*ClassReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	labels := make([]string, 0, len(r.classes))
	for label := range r.classes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	result := make([]*ClassReport, 0, len(labels))
	for _, label := range labels {
		result = append(result, r.classes[label])
	}
	return result
}

// Totals returns run-wide succeeded and failed counts.
func (r *RunReport) Totals() (succeeded, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cr := range r.classes {
		for _, counts := range cr.Stages {
			succeeded += counts.Succeeded
			failed += counts.Failed
		}
	}
	return succeeded, failed
}

// HasFailures reports whether any item failed. Drives the nonzero exit code.
func (r *RunReport) HasFailures() bool {
	_, failed := r.Totals()
	return failed > 0
}

// Empty reports whether the run saw no items at all.
func (r *RunReport) Empty() bool {
	succeeded, failed := r.Totals()
	return succeeded == 0 && failed == 0
}

func (r *RunReport) class(label string) *ClassReport {
	cr, ok := r.classes[label]
	if !ok {
		cr = &ClassReport{
			Class:  label,
			Stages: make(map[StageName]*StageCounts),
		}
		r.classes[label] = cr
	}
	return cr
}

func (r *RunReport) counts(label string, stage StageName) *StageCounts {
	cr := r.class(label)
	counts, ok := cr.Stages[stage]
	if !ok {
		counts = &StageCounts{}
		cr.Stages[stage] = counts
	}
	return counts
}
