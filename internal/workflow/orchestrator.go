package workflow

import (
	"context"
	"log/slog"
	"time"

	"lectern/internal/journal"
	"lectern/internal/logging"
	"lectern/internal/pipeline"
	"lectern/internal/services"
	"lectern/internal/workspace"
)

// TranscriptionPool converts pending audio items into transcripts.
type TranscriptionPool interface {
	Submit(ctx context.Context, items []*pipeline.WorkItem) []pipeline.Outcome
}

// GenerationPool converts pending text items into markdown notes.
type GenerationPool interface {
	Submit(ctx context.Context, items []*pipeline.WorkItem, outputDir string) []pipeline.Outcome
}

// Mover relocates processed inputs and mirrors outputs into the backup root.
type Mover interface {
	MoveToNextStage(ctx context.Context, sourcePath, targetDir string) (string, error)
	MirrorToBackup(ctx context.Context, outputPath, classLabel string) (string, error)
}

// Journal persists run history. A nil journal disables persistence.
type Journal interface {
	BeginRun(ctx context.Context) (int64, error)
	RecordOutcome(ctx context.Context, runID int64, rec journal.OutcomeRecord) error
	CompleteRun(ctx context.Context, runID int64, succeeded, failed int) error
}

// StaleTranscriptAge is how long a transcript may sit in lecture-input before
// the run warns about it. Transcripts left behind by failed generation are
// retried regardless of age.
const StaleTranscriptAge = 24 * time.Hour

// Orchestrator drives one batch run across every configured class workspace.
// Classes are processed sequentially; parallelism lives inside the stage
// pools.
type Orchestrator struct {
	transcriber TranscriptionPool
	generator   GenerationPool
	mover       Mover
	journal     Journal
	logger      *slog.Logger
}

// New constructs an orchestrator. journal may be nil.
func New(transcriber TranscriptionPool, generator GenerationPool, mover Mover, jrnl Journal, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		transcriber: transcriber,
		generator:   generator,
		mover:       mover,
		journal:     jrnl,
		logger:      logging.NewComponentLogger(logger, "workflow"),
	}
}

// Run processes every class root and returns the aggregated report. A class
// whose folder contract cannot be verified is skipped and reported; it never
// aborts the run.
func (o *Orchestrator) Run(ctx context.Context, classRoots []string) (*pipeline.RunReport, error) {
	report := pipeline.NewRunReport()

	var runID int64
	if o.journal != nil {
		id, err := o.journal.BeginRun(ctx)
		if err != nil {
			o.logger.Warn("run journaling disabled", logging.Error(err))
			o.journal = nil
		} else {
			runID = id
		}
	}

	for _, root := range classRoots {
		ws := workspace.Resolve(root)
		if err := ws.Verify(); err != nil {
			o.logger.Warn("class skipped",
				logging.String("class", ws.Class),
				logging.Error(err),
			)
			report.RecordSkippedClass(ws.Class, err.Error())
			continue
		}
		o.runClass(ctx, ws, runID, report)
	}

	report.Finish()
	if o.journal != nil {
		succeeded, failed := report.Totals()
		if err := o.journal.CompleteRun(ctx, runID, succeeded, failed); err != nil {
			o.logger.Warn("run completion not recorded", logging.Error(err))
		}
	}
	return report, nil
}

func (o *Orchestrator) runClass(ctx context.Context, ws workspace.Workspace, runID int64, report *pipeline.RunReport) {
	paths := ws.Paths()
	o.logger.Info("processing class", logging.String("class", ws.Class))

	o.warnStaleTranscripts(ws)
	o.transcribeAudio(ctx, ws, runID, report)

	transcripts, err := ws.PendingTranscripts()
	if err != nil {
		o.logger.Warn("transcript listing failed",
			logging.String("class", ws.Class),
			logging.Error(err),
		)
	}
	o.generateNotes(ctx, ws, runID, report, transcripts,
		pipeline.KindLecture, pipeline.StageLectureNotes, paths.LectureOutput, paths.LectureProcessedTxt)

	readings, err := ws.PendingReadings()
	if err != nil {
		o.logger.Warn("reading listing failed",
			logging.String("class", ws.Class),
			logging.Error(err),
		)
	}
	o.generateNotes(ctx, ws, runID, report, readings,
		pipeline.KindReading, pipeline.StageReadingNotes, paths.ReadingOutput, paths.ReadingProcessed)
}

// transcribeAudio runs the transcription pool over pending audio. Each
// transcribed recording is archived into lecture-processed/audio; its
// transcript stays in lecture-input for the generation stage.
func (o *Orchestrator) transcribeAudio(ctx context.Context, ws workspace.Workspace, runID int64, report *pipeline.RunReport) {
	audio, err := ws.PendingAudio()
	if err != nil {
		o.logger.Warn("audio listing failed",
			logging.String("class", ws.Class),
			logging.Error(err),
		)
		return
	}
	if len(audio) == 0 {
		return
	}

	items := make([]*pipeline.WorkItem, 0, len(audio))
	for _, path := range audio {
		items = append(items, pipeline.NewWorkItem(ws.Class, pipeline.KindLecture, path))
	}

	for _, outcome := range o.transcriber.Submit(ctx, items) {
		item := outcome.Item
		if !outcome.Succeeded() {
			report.RecordFailure(ws.Class, pipeline.StageTranscribe, item, outcome.Err)
			o.recordOutcome(ctx, runID, item, pipeline.StageTranscribe, "", outcome.Err)
			continue
		}
		report.RecordSuccess(ws.Class, pipeline.StageTranscribe)
		o.recordOutcome(ctx, runID, item, pipeline.StageTranscribe, outcome.OutputPath, nil)
		o.archive(ctx, ws, runID, report, item, item.SourcePath, ws.Paths().LectureProcessedAudio)
	}
}

// generateNotes runs the generation pool over pending text inputs. Successful
// inputs are archived into processedDir and their notes mirrored to backup.
func (o *Orchestrator) generateNotes(
	ctx context.Context,
	ws workspace.Workspace,
	runID int64,
	report *pipeline.RunReport,
	sources []string,
	kind pipeline.Kind,
	stage pipeline.StageName,
	outputDir, processedDir string,
) {
	if len(sources) == 0 {
		return
	}

	items := make([]*pipeline.WorkItem, 0, len(sources))
	for _, path := range sources {
		items = append(items, pipeline.NewWorkItem(ws.Class, kind, path))
	}

	for _, outcome := range o.generator.Submit(ctx, items, outputDir) {
		item := outcome.Item
		if !outcome.Succeeded() {
			report.RecordFailure(ws.Class, stage, item, outcome.Err)
			o.recordOutcome(ctx, runID, item, stage, "", outcome.Err)
			continue
		}
		report.RecordSuccess(ws.Class, stage)
		o.recordOutcome(ctx, runID, item, stage, outcome.OutputPath, nil)

		if _, err := o.mover.MirrorToBackup(ctx, outcome.OutputPath, ws.Class); err != nil {
			o.logger.Warn("backup mirror failed; note remains in class output",
				logging.String("note", outcome.OutputPath),
				logging.Error(err),
			)
		}
		o.archive(ctx, ws, runID, report, item, item.SourcePath, processedDir)
	}
}

// archive moves a consumed input into its processed directory. A failed move
// is reported but leaves the produced output intact; the input is simply
// reprocessed on the next run.
func (o *Orchestrator) archive(ctx context.Context, ws workspace.Workspace, runID int64, report *pipeline.RunReport, item *pipeline.WorkItem, sourcePath, destDir string) {
	dest, err := o.mover.MoveToNextStage(ctx, sourcePath, destDir)
	if err != nil {
		report.RecordFailure(ws.Class, pipeline.StageArchive, item, err)
		o.recordOutcome(ctx, runID, item, pipeline.StageArchive, "", err)
		return
	}
	item.SourcePath = dest
	report.RecordSuccess(ws.Class, pipeline.StageArchive)
}

func (o *Orchestrator) warnStaleTranscripts(ws workspace.Workspace) {
	stale, err := ws.StaleTranscripts(StaleTranscriptAge)
	if err != nil {
		return
	}
	for _, st := range stale {
		o.logger.Warn("transcript from an earlier run is still awaiting notes",
			logging.String("class", ws.Class),
			logging.String("transcript", st.Path),
			logging.Duration("age", st.Age),
		)
	}
}

func (o *Orchestrator) recordOutcome(ctx context.Context, runID int64, item *pipeline.WorkItem, stage pipeline.StageName, outputPath string, itemErr error) {
	if o.journal == nil {
		return
	}
	rec := journal.OutcomeRecord{
		ItemID:     item.ID,
		Class:      item.Class,
		Kind:       string(item.Kind),
		Stage:      string(stage),
		Status:     "succeeded",
		OutputPath: outputPath,
	}
	if itemErr != nil {
		rec.Status = "failed"
		rec.ErrorKind = services.Kind(itemErr)
		rec.ErrorMessage = itemErr.Error()
	}
	if err := o.journal.RecordOutcome(ctx, runID, rec); err != nil {
		o.logger.Warn("outcome not journaled",
			logging.String("item", item.ID),
			logging.Error(err),
		)
	}
}
