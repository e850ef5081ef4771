package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"lectern/internal/fileutil"
	"lectern/internal/logging"
	"lectern/internal/pipeline"
	"lectern/internal/services"
	"lectern/internal/workspace"
)

// Engine is a loaded speech-to-text model. Engines are expensive to
// initialize and are reused by the worker that created them.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) ([]Segment, error)
	Close() error
}

// EngineFactory initializes an Engine. It is invoked exactly once per
// worker; an initialization failure is fatal for that worker only.
type EngineFactory func(ctx context.Context) (Engine, error)

// Preprocessor writes a cleaned copy of sourcePath to destPath.
type Preprocessor interface {
	Clean(ctx context.Context, sourcePath, destPath string) error
}

// ProgressFunc receives incremental completion updates as items finish.
type ProgressFunc func(completed, total int, remaining time.Duration)

// Pool runs transcription with bounded parallelism. This stage is CPU and
// model bound, so the default width is small.
type Pool struct {
	factory  EngineFactory
	pre      Preprocessor
	workers  int
	logger   *slog.Logger
	progress ProgressFunc
	tempDir  string
}

// Option customizes the pool.
type Option func(*Pool)

// WithProgress installs an incremental progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pool) { p.progress = fn }
}

// WithTempDir overrides where cleaned intermediate audio is written.
func WithTempDir(dir string) Option {
	return func(p *Pool) {
		if dir != "" {
			p.tempDir = dir
		}
	}
}

// NewPool constructs a transcription pool of the given width.
func NewPool(factory EngineFactory, pre Preprocessor, workers int, logger *slog.Logger, opts ...Option) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		factory: factory,
		pre:     pre,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "transcribe"),
		tempDir: os.TempDir(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit processes items and returns one terminal outcome per item. A
// failure on one item never affects its siblings: workers pull from a shared
// queue, so items assigned to a worker that failed to initialize its engine
// are picked up by the surviving workers. Only when every worker fails
// initialization are the queued items failed with a worker-init error.
func (p *Pool) Submit(ctx context.Context, items []*pipeline.WorkItem) []pipeline.Outcome {
	if len(items) == 0 {
		return nil
	}

	jobs := make(chan *pipeline.WorkItem, len(items))
	for _, item := range items {
		jobs <- item
	}
	close(jobs)

	results := make(chan pipeline.Outcome, len(items))
	started := time.Now()

	var completed atomic.Int64
	var initErrMu sync.Mutex
	var lastInitErr error

	width := p.workers
	if width > len(items) {
		width = len(items)
	}

	var wg sync.WaitGroup
	for worker := 0; worker < width; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			engine, err := p.factory(ctx)
			if err != nil {
				initErrMu.Lock()
				lastInitErr = err
				initErrMu.Unlock()
				p.logger.Warn("worker discarded after engine init failure; items redistributed",
					logging.Int("worker", worker),
					logging.Error(err),
				)
				return
			}
			defer engine.Close()

			for item := range jobs {
				outcome := p.processItem(ctx, engine, item)
				results <- outcome
				p.reportProgress(int(completed.Add(1)), len(items), started)
			}
		}(worker)
	}
	wg.Wait()

	// Jobs left behind mean every worker lost its engine.
	for item := range jobs {
		initErrMu.Lock()
		err := services.Wrap(services.ErrWorkerInit, "transcribe", "init engine",
			"no transcription worker available", lastInitErr)
		initErrMu.Unlock()
		item.Stage = pipeline.StageFailed
		item.LastErr = err
		results <- pipeline.Outcome{Item: item, Err: err}
	}
	close(results)

	outcomes := make([]pipeline.Outcome, 0, len(items))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// processItem cleans, transcribes, and renders one audio file. The cleaned
// intermediate is removed on every exit path.
func (p *Pool) processItem(ctx context.Context, engine Engine, item *pipeline.WorkItem) pipeline.Outcome {
	item.Attempts++

	cleaned := fmt.Sprintf("%s%c%s.wav", p.tempDir, os.PathSeparator, item.ID)
	defer os.Remove(cleaned)

	if err := p.pre.Clean(ctx, item.SourcePath, cleaned); err != nil {
		return p.fail(item, services.Wrap(services.ErrTranscription, "transcribe", "preprocess audio",
			item.SourcePath, err))
	}

	segments, err := engine.Transcribe(ctx, cleaned)
	if err != nil {
		return p.fail(item, services.Wrap(services.ErrTranscription, "transcribe", "run inference",
			item.SourcePath, err))
	}

	// Claim the transcript name before writing so a leftover transcript from
	// an earlier run, or a sibling recording sharing the stem, is never
	// overwritten.
	wanted := workspace.TranscriptPathFor(item.SourcePath)
	transcriptPath, err := fileutil.ClaimPath(filepath.Dir(wanted), filepath.Base(wanted), time.Now)
	if err != nil {
		return p.fail(item, services.Wrap(services.ErrIOConflict, "transcribe", "claim transcript name",
			wanted, err))
	}
	if err := os.WriteFile(transcriptPath, []byte(Render(segments)), 0o644); err != nil {
		_ = os.Remove(transcriptPath)
		return p.fail(item, services.Wrap(services.ErrTranscription, "transcribe", "write transcript",
			transcriptPath, err))
	}

	item.Stage = pipeline.StagePendingGeneration
	p.logger.Info("transcript written",
		logging.String("audio", item.SourcePath),
		logging.String("transcript", transcriptPath),
		logging.Int("segments", len(segments)),
	)
	return pipeline.Outcome{Item: item, OutputPath: transcriptPath}
}

func (p *Pool) fail(item *pipeline.WorkItem, err error) pipeline.Outcome {
	item.Stage = pipeline.StageFailed
	item.LastErr = err
	p.logger.Warn("transcription failed",
		logging.String("audio", item.SourcePath),
		logging.Error(err),
	)
	return pipeline.Outcome{Item: item, Err: err}
}

func (p *Pool) reportProgress(completed, total int, started time.Time) {
	if p.progress == nil {
		return
	}
	var remaining time.Duration
	if completed > 0 && completed < total {
		perItem := time.Since(started) / time.Duration(completed)
		remaining = perItem * time.Duration(total-completed)
	}
	p.progress(completed, total, remaining)
}
