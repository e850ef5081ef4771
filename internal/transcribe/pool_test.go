package transcribe_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"lectern/internal/logging"
	"lectern/internal/pipeline"
	"lectern/internal/services"
	"lectern/internal/transcribe"
)

type fakeEngine struct {
	transcribe func(ctx context.Context, audioPath string) ([]transcribe.Segment, error)
	closed     atomic.Bool
}

func (f *fakeEngine) Transcribe(ctx context.Context, audioPath string) ([]transcribe.Segment, error) {
	return f.transcribe(ctx, audioPath)
}

func (f *fakeEngine) Close() error {
	f.closed.Store(true)
	return nil
}

type copyPreprocessor struct{}

func (copyPreprocessor) Clean(ctx context.Context, sourcePath, destPath string) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, data, 0o644)
}

type failingPreprocessor struct{}

func (failingPreprocessor) Clean(ctx context.Context, sourcePath, destPath string) error {
	return errors.New("unreadable container")
}

func writeAudio(t *testing.T, dir, name string) *pipeline.WorkItem {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("pcm"), 0o644); err != nil {
		t.Fatal(err)
	}
	return pipeline.NewWorkItem("Con Law", pipeline.KindLecture, path)
}

func TestPoolWritesRenderedTranscript(t *testing.T) {
	dir := t.TempDir()
	item := writeAudio(t, dir, "week1.m4a")

	factory := func(ctx context.Context) (transcribe.Engine, error) {
		return &fakeEngine{transcribe: func(ctx context.Context, audioPath string) ([]transcribe.Segment, error) {
			return []transcribe.Segment{
				{Start: 61.8, End: 65, Text: "second"},
				{Start: 0, End: 4, Text: "first"},
				{Start: 30, End: 31, Text: "   "},
			}, nil
		}}, nil
	}

	pool := transcribe.NewPool(factory, copyPreprocessor{}, 2, logging.NewNop(),
		transcribe.WithTempDir(t.TempDir()))
	outcomes := pool.Submit(context.Background(), []*pipeline.WorkItem{item})

	if len(outcomes) != 1 || !outcomes[0].Succeeded() {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	if item.Stage != pipeline.StagePendingGeneration {
		t.Errorf("stage = %q", item.Stage)
	}

	content, err := os.ReadFile(filepath.Join(dir, "week1.txt"))
	if err != nil {
		t.Fatal(err)
	}
	want := "[00:00:00] first\n[00:01:01] second\n"
	if string(content) != want {
		t.Errorf("transcript = %q, want %q", content, want)
	}
}

func TestPoolKeepsBothTranscriptsOnSharedStem(t *testing.T) {
	dir := t.TempDir()
	m4a := writeAudio(t, dir, "week1.m4a")
	wav := writeAudio(t, dir, "week1.wav")

	factory := func(ctx context.Context) (transcribe.Engine, error) {
		return &fakeEngine{transcribe: func(ctx context.Context, audioPath string) ([]transcribe.Segment, error) {
			return []transcribe.Segment{{Start: 0, Text: "ok"}}, nil
		}}, nil
	}

	pool := transcribe.NewPool(factory, copyPreprocessor{}, 2, logging.NewNop(),
		transcribe.WithTempDir(t.TempDir()))
	outcomes := pool.Submit(context.Background(), []*pipeline.WorkItem{m4a, wav})

	seen := make(map[string]struct{}, len(outcomes))
	for _, outcome := range outcomes {
		if !outcome.Succeeded() {
			t.Fatalf("item %s failed: %v", outcome.Item.SourcePath, outcome.Err)
		}
		if _, dup := seen[outcome.OutputPath]; dup {
			t.Fatalf("both recordings claimed transcript %s", outcome.OutputPath)
		}
		seen[outcome.OutputPath] = struct{}{}
		if _, err := os.Stat(outcome.OutputPath); err != nil {
			t.Errorf("transcript missing: %v", err)
		}
	}

	transcripts := 0
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".txt" {
			transcripts++
		}
	}
	if transcripts != 2 {
		t.Errorf("transcript files = %d, want 2", transcripts)
	}
}

func TestPoolIsolatesItemFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeAudio(t, dir, "week1.m4a")
	bad := writeAudio(t, dir, "week2.m4a")

	factory := func(ctx context.Context) (transcribe.Engine, error) {
		return &fakeEngine{transcribe: func(ctx context.Context, audioPath string) ([]transcribe.Segment, error) {
			return []transcribe.Segment{{Start: 0, Text: "ok"}}, nil
		}}, nil
	}

	pre := selectivePreprocessor{failFor: bad.SourcePath}
	pool := transcribe.NewPool(factory, pre, 3, logging.NewNop(),
		transcribe.WithTempDir(t.TempDir()))
	outcomes := pool.Submit(context.Background(), []*pipeline.WorkItem{good, bad})

	byID := make(map[string]pipeline.Outcome, len(outcomes))
	for _, outcome := range outcomes {
		byID[outcome.Item.ID] = outcome
	}
	if !byID[good.ID].Succeeded() {
		t.Errorf("good item failed: %v", byID[good.ID].Err)
	}
	failed := byID[bad.ID]
	if failed.Succeeded() || !errors.Is(failed.Err, services.ErrTranscription) {
		t.Errorf("bad item outcome = %+v", failed)
	}
	if bad.Stage != pipeline.StageFailed {
		t.Errorf("bad stage = %q", bad.Stage)
	}
}

type selectivePreprocessor struct {
	failFor string
}

func (s selectivePreprocessor) Clean(ctx context.Context, sourcePath, destPath string) error {
	if sourcePath == s.failFor {
		return errors.New("corrupt stream")
	}
	return copyPreprocessor{}.Clean(ctx, sourcePath, destPath)
}

func TestPoolRedistributesAfterInitFailure(t *testing.T) {
	dir := t.TempDir()
	items := []*pipeline.WorkItem{
		writeAudio(t, dir, "a.m4a"),
		writeAudio(t, dir, "b.m4a"),
		writeAudio(t, dir, "c.m4a"),
		writeAudio(t, dir, "d.m4a"),
	}

	var initCalls atomic.Int64
	factory := func(ctx context.Context) (transcribe.Engine, error) {
		if initCalls.Add(1) == 1 {
			return nil, errors.New("model download failed")
		}
		return &fakeEngine{transcribe: func(ctx context.Context, audioPath string) ([]transcribe.Segment, error) {
			return []transcribe.Segment{{Start: 0, Text: "ok"}}, nil
		}}, nil
	}

	pool := transcribe.NewPool(factory, copyPreprocessor{}, 2, logging.NewNop(),
		transcribe.WithTempDir(t.TempDir()))
	outcomes := pool.Submit(context.Background(), items)

	if len(outcomes) != len(items) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(items))
	}
	for _, outcome := range outcomes {
		if !outcome.Succeeded() {
			t.Errorf("item %s failed: %v", outcome.Item.SourcePath, outcome.Err)
		}
	}
}

func TestPoolFailsQueueWhenAllWorkersDie(t *testing.T) {
	dir := t.TempDir()
	items := []*pipeline.WorkItem{
		writeAudio(t, dir, "a.m4a"),
		writeAudio(t, dir, "b.m4a"),
	}

	factory := func(ctx context.Context) (transcribe.Engine, error) {
		return nil, errors.New("no compute device")
	}

	pool := transcribe.NewPool(factory, copyPreprocessor{}, 2, logging.NewNop(),
		transcribe.WithTempDir(t.TempDir()))
	outcomes := pool.Submit(context.Background(), items)

	if len(outcomes) != len(items) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(items))
	}
	for _, outcome := range outcomes {
		if !errors.Is(outcome.Err, services.ErrWorkerInit) {
			t.Errorf("item %s err = %v, want worker init error", outcome.Item.SourcePath, outcome.Err)
		}
		if outcome.Item.Stage != pipeline.StageFailed {
			t.Errorf("item %s stage = %q", outcome.Item.SourcePath, outcome.Item.Stage)
		}
		if !strings.Contains(outcome.Err.Error(), "no compute device") {
			t.Errorf("init cause missing from %v", outcome.Err)
		}
	}
}

func TestPoolRemovesCleanedIntermediates(t *testing.T) {
	dir := t.TempDir()
	tempDir := t.TempDir()
	good := writeAudio(t, dir, "a.m4a")
	bad := writeAudio(t, dir, "b.m4a")

	factory := func(ctx context.Context) (transcribe.Engine, error) {
		return &fakeEngine{transcribe: func(ctx context.Context, audioPath string) ([]transcribe.Segment, error) {
			return []transcribe.Segment{{Start: 0, Text: "ok"}}, nil
		}}, nil
	}

	pre := selectivePreprocessor{failFor: bad.SourcePath}
	pool := transcribe.NewPool(factory, pre, 1, logging.NewNop(), transcribe.WithTempDir(tempDir))
	pool.Submit(context.Background(), []*pipeline.WorkItem{good, bad})

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not empty: %v", entries)
	}
}

func TestPoolReportsProgress(t *testing.T) {
	dir := t.TempDir()
	items := []*pipeline.WorkItem{
		writeAudio(t, dir, "a.m4a"),
		writeAudio(t, dir, "b.m4a"),
	}

	factory := func(ctx context.Context) (transcribe.Engine, error) {
		return &fakeEngine{transcribe: func(ctx context.Context, audioPath string) ([]transcribe.Segment, error) {
			return []transcribe.Segment{{Start: 0, Text: "ok"}}, nil
		}}, nil
	}

	var final atomic.Int64
	pool := transcribe.NewPool(factory, copyPreprocessor{}, 1, logging.NewNop(),
		transcribe.WithTempDir(t.TempDir()),
		transcribe.WithProgress(func(completed, total int, _ time.Duration) {
			if total != len(items) {
				t.Errorf("total = %d", total)
			}
			final.Store(int64(completed))
		}))
	pool.Submit(context.Background(), items)

	if final.Load() != int64(len(items)) {
		t.Errorf("last progress = %d, want %d", final.Load(), len(items))
	}
}
