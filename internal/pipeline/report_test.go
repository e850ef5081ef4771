package pipeline_test

import (
	"sync"
	"testing"

	"lectern/internal/pipeline"
	"lectern/internal/services"
)

func TestNewWorkItemStages(t *testing.T) {
	lecture := pipeline.NewWorkItem("Con Law", pipeline.KindLecture, "/ws/lecture-input/week1.m4a")
	if lecture.Stage != pipeline.StagePendingTranscription {
		t.Errorf("lecture stage = %q", lecture.Stage)
	}
	reading := pipeline.NewWorkItem("Con Law", pipeline.KindReading, "/ws/reading-input/ch1.txt")
	if reading.Stage != pipeline.StagePendingGeneration {
		t.Errorf("reading stage = %q", reading.Stage)
	}
	if lecture.ID == "" || lecture.ID == reading.ID {
		t.Error("items must have distinct non-empty identities")
	}
}

func TestRunReportAggregation(t *testing.T) {
	report := pipeline.NewRunReport()

	item := pipeline.NewWorkItem("Property", pipeline.KindLecture, "/ws/lecture-input/week2.m4a")
	report.RecordSuccess("Property", pipeline.StageTranscribe)
	report.RecordFailure("Property", pipeline.StageTranscribe, item,
		services.Wrap(services.ErrTranscription, "transcribe", "decode", "corrupt container", nil))
	report.RecordSuccess("Con Law", pipeline.StageReadingNotes)
	report.Finish()

	succeeded, failed := report.Totals()
	if succeeded != 2 || failed != 1 {
		t.Fatalf("totals = %d/%d, want 2/1", succeeded, failed)
	}
	if !report.HasFailures() {
		t.Error("expected failures")
	}
	if report.Empty() {
		t.Error("report should not be empty")
	}

	classes := report.Classes()
	if len(classes) != 2 || classes[0].Class != "Con Law" || classes[1].Class != "Property" {
		t.Fatalf("classes = %+v", classes)
	}

	property := classes[1]
	counts := property.Stages[pipeline.StageTranscribe]
	if counts.Succeeded != 1 || counts.Failed != 1 {
		t.Errorf("transcribe counts = %+v", counts)
	}
	if len(property.Failures) != 1 {
		t.Fatalf("failures = %+v", property.Failures)
	}
	failure := property.Failures[0]
	if failure.ErrorKind != "TranscriptionError" || failure.ItemID != item.ID {
		t.Errorf("failure = %+v", failure)
	}
}

func TestRunReportSkippedClass(t *testing.T) {
	report := pipeline.NewRunReport()
	report.RecordSkippedClass("Quant Methods", "class folder missing")

	classes := report.Classes()
	if len(classes) != 1 || !classes[0].Skipped {
		t.Fatalf("classes = %+v", classes)
	}
	if classes[0].SkipReason != "class folder missing" {
		t.Errorf("reason = %q", classes[0].SkipReason)
	}
	if report.HasFailures() {
		t.Error("skips are not failures")
	}
}

func TestRunReportEmptyRun(t *testing.T) {
	report := pipeline.NewRunReport()
	report.Finish()
	if !report.Empty() || report.HasFailures() {
		t.Error("fresh report must be empty with no failures")
	}
}

func TestRunReportConcurrentRecording(t *testing.T) {
	report := pipeline.NewRunReport()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.RecordSuccess("Property", pipeline.StageLectureNotes)
		}()
	}
	wg.Wait()
	succeeded, _ := report.Totals()
	if succeeded != 50 {
		t.Fatalf("succeeded = %d, want 50", succeeded)
	}
}
