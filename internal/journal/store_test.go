package journal_test

import (
	"context"
	"path/filepath"
	"testing"

	"lectern/internal/journal"
)

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.Open(filepath.Join(t.TempDir(), "logs", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMoveLogPreservesAppendOrder(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	moves := []struct{ op, src, dst string }{
		{"move", "/a/week1.m4a", "/a/processed/week1.m4a"},
		{"copy", "/a/week1.md", "/backup/week1.md"},
		{"move", "/a/week1.txt", "/a/processed/week1.txt"},
	}
	for _, m := range moves {
		if err := store.RecordMove(ctx, m.op, m.src, m.dst); err != nil {
			t.Fatalf("RecordMove: %v", err)
		}
	}

	rows, err := store.RecentMoves(ctx, 10)
	if err != nil {
		t.Fatalf("RecentMoves: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	// Newest first.
	if rows[0].Source != "/a/week1.txt" || rows[2].Source != "/a/week1.m4a" {
		t.Errorf("unexpected order: %+v", rows)
	}
	if rows[1].Operation != "copy" {
		t.Errorf("operation = %q, want copy", rows[1].Operation)
	}
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	runID, err := store.BeginRun(ctx)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	if err := store.RecordOutcome(ctx, runID, journal.OutcomeRecord{
		ItemID: "item-1", Class: "Property", Kind: "lecture",
		Stage: "generate", Status: "succeeded", OutputPath: "/out/week1.md",
	}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := store.RecordOutcome(ctx, runID, journal.OutcomeRecord{
		ItemID: "item-2", Class: "Property", Kind: "lecture",
		Stage: "transcribe", Status: "failed",
		ErrorKind: "TranscriptionError", ErrorMessage: "corrupt container",
	}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := store.CompleteRun(ctx, runID, 1, 1); err != nil {
		t.Fatalf("CompleteRun: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Succeeded != 1 || runs[0].Failed != 1 {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[0].CompletedAt == "" {
		t.Error("expected completed_at to be set")
	}

	failures, err := store.FailedOutcomes(ctx, runID)
	if err != nil {
		t.Fatalf("FailedOutcomes: %v", err)
	}
	if len(failures) != 1 || failures[0].ItemID != "item-2" {
		t.Fatalf("failures = %+v", failures)
	}
	if failures[0].ErrorKind != "TranscriptionError" {
		t.Errorf("error kind = %q", failures[0].ErrorKind)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	first, err := journal.Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	second, err := journal.Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	_ = second.Close()
}
