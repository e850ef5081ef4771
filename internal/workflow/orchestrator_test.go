package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/generate"
	"lectern/internal/journal"
	"lectern/internal/lifecycle"
	"lectern/internal/logging"
	"lectern/internal/pipeline"
	"lectern/internal/testsupport"
	"lectern/internal/transcribe"
	"lectern/internal/workflow"
	"lectern/internal/workspace"
)

type fixedEngine struct{}

func (fixedEngine) Transcribe(ctx context.Context, audioPath string) ([]transcribe.Segment, error) {
	return []transcribe.Segment{
		{Start: 0, End: 4, Text: "Welcome to class."},
		{Start: 4.5, End: 9, Text: "Today we cover consideration."},
	}, nil
}

func (fixedEngine) Close() error { return nil }

type pickyPreprocessor struct {
	rejectSuffix string
}

func (p pickyPreprocessor) Clean(ctx context.Context, sourcePath, destPath string) error {
	if strings.HasSuffix(sourcePath, p.rejectSuffix) {
		return errors.New("corrupt container")
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, data, 0o644)
}

type staticGenerator struct{}

func (staticGenerator) Generate(ctx context.Context, prompt, source string) (string, error) {
	return "# Study notes\n\n" + prompt + "\n", nil
}

func promptFor(kind pipeline.Kind, class string) (string, error) {
	return "Notes for " + class, nil
}

func seedClass(t *testing.T, root string) {
	t.Helper()
	paths := workspace.Resolve(root).Paths()
	testsupport.WriteInput(t, paths.LectureInput, "week1.m4a", "audio-bytes")
	testsupport.WriteInput(t, paths.LectureInput, "corrupt.m4a", "garbage")
	testsupport.WriteInput(t, paths.ReadingInput, "ch1.txt", "Hawkins v. McGee")
}

func newOrchestrator(t *testing.T, backupDir string, jrnl workflow.Journal) *workflow.Orchestrator {
	t.Helper()
	factory := func(ctx context.Context) (transcribe.Engine, error) {
		return fixedEngine{}, nil
	}
	transcriber := transcribe.NewPool(factory, pickyPreprocessor{rejectSuffix: "corrupt.m4a"}, 2,
		logging.NewNop(), transcribe.WithTempDir(t.TempDir()))
	generator := generate.NewPool(staticGenerator{}, promptFor, 2, generate.Retry{}, logging.NewNop())
	mover := lifecycle.NewManager(backupDir, nil, logging.NewNop())
	return workflow.New(transcriber, generator, mover, jrnl, logging.NewNop())
}

func TestRunProcessesClassEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithClass("Contracts"), testsupport.WithWorkers(2, 2))
	root := cfg.Paths.ClassDirs[0]
	seedClass(t, root)
	backupDir := cfg.Paths.BackupDir

	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	orch := newOrchestrator(t, backupDir, store)
	report, err := orch.Run(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}

	paths := workspace.Resolve(root).Paths()
	wantFiles := []string{
		filepath.Join(paths.LectureProcessedAudio, "week1.m4a"),
		filepath.Join(paths.LectureOutput, "week1.md"),
		filepath.Join(paths.LectureProcessedTxt, "week1.txt"),
		filepath.Join(paths.ReadingOutput, "ch1.md"),
		filepath.Join(paths.ReadingProcessed, "ch1.txt"),
		filepath.Join(backupDir, "Contracts", "week1.md"),
		filepath.Join(backupDir, "Contracts", "ch1.md"),
	}
	for _, path := range wantFiles {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing %s: %v", path, err)
		}
	}

	// The corrupt recording stays put for the next run.
	if _, err := os.Stat(filepath.Join(paths.LectureInput, "corrupt.m4a")); err != nil {
		t.Errorf("corrupt audio should remain in lecture-input: %v", err)
	}

	transcript, err := os.ReadFile(filepath.Join(paths.LectureProcessedTxt, "week1.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(transcript), "[00:00:00] Welcome to class.") {
		t.Errorf("transcript = %q", transcript)
	}

	if !report.HasFailures() {
		t.Fatal("corrupt audio should register a failure")
	}
	classes := report.Classes()
	if len(classes) != 1 {
		t.Fatalf("classes = %+v", classes)
	}
	contracts := classes[0]
	if got := contracts.Stages[pipeline.StageTranscribe]; got.Succeeded != 1 || got.Failed != 1 {
		t.Errorf("transcribe counts = %+v", got)
	}
	if got := contracts.Stages[pipeline.StageLectureNotes]; got.Succeeded != 1 {
		t.Errorf("lecture notes counts = %+v", got)
	}
	if got := contracts.Stages[pipeline.StageReadingNotes]; got.Succeeded != 1 {
		t.Errorf("reading notes counts = %+v", got)
	}

	runs, err := store.RecentRuns(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Failed != 1 {
		t.Fatalf("runs = %+v", runs)
	}
	failures, err := store.FailedOutcomes(context.Background(), runs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 || failures[0].ErrorKind != "TranscriptionError" {
		t.Fatalf("failures = %+v", failures)
	}
	if failures[0].Class != "Contracts" || failures[0].Stage != string(pipeline.StageTranscribe) {
		t.Fatalf("failure = %+v", failures[0])
	}
}

func TestRunIsIdempotentWhenQueueIsEmpty(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "Evidence")
	seedClass(t, root)
	backupDir := filepath.Join(base, "backup")

	orch := newOrchestrator(t, backupDir, nil)
	if _, err := orch.Run(context.Background(), []string{root}); err != nil {
		t.Fatal(err)
	}

	paths := workspace.Resolve(root).Paths()
	if err := os.Remove(filepath.Join(paths.LectureInput, "corrupt.m4a")); err != nil {
		t.Fatal(err)
	}

	report, err := orch.Run(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}
	if !report.Empty() {
		succeeded, failed := report.Totals()
		t.Fatalf("second run should be empty, got %d/%d", succeeded, failed)
	}

	// No duplicate notes appeared.
	entries, err := os.ReadDir(paths.LectureOutput)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("lecture-output entries = %d", len(entries))
	}
}

func TestRunSkipsMissingClassFolder(t *testing.T) {
	base := t.TempDir()
	present := filepath.Join(base, "Torts")
	seedClass(t, present)
	absent := filepath.Join(base, "Crim")

	orch := newOrchestrator(t, filepath.Join(base, "backup"), nil)
	report, err := orch.Run(context.Background(), []string{absent, present})
	if err != nil {
		t.Fatal(err)
	}

	classes := report.Classes()
	if len(classes) != 2 {
		t.Fatalf("classes = %+v", classes)
	}
	if !classes[0].Skipped {
		t.Errorf("missing class should be skipped: %+v", classes[0])
	}
	if classes[1].Skipped {
		t.Errorf("present class should run: %+v", classes[1])
	}
	if got := classes[1].Stages[pipeline.StageReadingNotes]; got == nil || got.Succeeded != 1 {
		t.Errorf("present class reading counts = %+v", got)
	}
}

func TestPlanListsPendingWorkWithoutTouchingAnything(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "Property")
	seedClass(t, root)

	plans := workflow.Plan([]string{root, filepath.Join(base, "missing")})
	if len(plans) != 2 {
		t.Fatalf("plans = %+v", plans)
	}

	property := plans[0]
	if property.Class != "Property" || property.SkipReason != "" {
		t.Fatalf("plan = %+v", property)
	}
	if len(property.Audio) != 2 || len(property.Readings) != 1 || len(property.Transcripts) != 0 {
		t.Errorf("pending = %+v", property)
	}
	if property.Empty() {
		t.Error("plan should show pending work")
	}

	missing := plans[1]
	if missing.SkipReason == "" || !missing.Empty() {
		t.Errorf("missing plan = %+v", missing)
	}
}
