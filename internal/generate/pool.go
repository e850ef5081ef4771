package generate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"lectern/internal/fileutil"
	"lectern/internal/logging"
	"lectern/internal/pipeline"
	"lectern/internal/services"
	"lectern/internal/workspace"
)

// Generator produces markdown study notes from an instruction prompt and the
// source text. Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt, source string) (string, error)
}

// PromptFunc renders the instruction prompt for one item's kind and class.
type PromptFunc func(kind pipeline.Kind, class string) (string, error)

// ProgressFunc receives incremental completion updates as items finish.
type ProgressFunc func(completed, total int)

// Sleeper pauses between retry attempts. The default honors context
// cancellation; tests substitute a recording stub.
type Sleeper func(ctx context.Context, d time.Duration) error

// Retry bounds the transient-error retry loop. An item is attempted at most
// 1+MaxRetries times; the delay before retry n is BaseDelay doubled per
// attempt, capped at MaxDelay.
type Retry struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Pool runs note generation with bounded parallelism. The stage is network
// bound, so it is typically wider than transcription.
type Pool struct {
	generator Generator
	prompt    PromptFunc
	workers   int
	retry     Retry
	sleep     Sleeper
	logger    *slog.Logger
	progress  ProgressFunc
}

// Option customizes the pool.
type Option func(*Pool)

// WithSleeper replaces the retry delay function.
func WithSleeper(sleep Sleeper) Option {
	return func(p *Pool) { p.sleep = sleep }
}

// WithProgress installs an incremental progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pool) { p.progress = fn }
}

// NewPool constructs a generation pool of the given width.
func NewPool(generator Generator, prompt PromptFunc, workers int, retry Retry, logger *slog.Logger, opts ...Option) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = time.Second
	}
	if retry.MaxDelay <= 0 {
		retry.MaxDelay = 30 * time.Second
	}
	p := &Pool{
		generator: generator,
		prompt:    prompt,
		workers:   workers,
		retry:     retry,
		sleep:     sleepContext,
		logger:    logging.NewComponentLogger(logger, "generate"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit processes items and returns one terminal outcome per item. Notes are
// written into outputDir under the source file's stem; an existing file with
// that name is never overwritten, the new note takes a timestamp suffix. A
// failed item never affects its siblings.
func (p *Pool) Submit(ctx context.Context, items []*pipeline.WorkItem, outputDir string) []pipeline.Outcome {
	if len(items) == 0 {
		return nil
	}

	jobs := make(chan *pipeline.WorkItem, len(items))
	for _, item := range items {
		jobs <- item
	}
	close(jobs)

	results := make(chan pipeline.Outcome, len(items))
	var completed atomic.Int64

	width := p.workers
	if width > len(items) {
		width = len(items)
	}

	var wg sync.WaitGroup
	for worker := 0; worker < width; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				results <- p.processItem(ctx, item, outputDir)
				if p.progress != nil {
					p.progress(int(completed.Add(1)), len(items))
				}
			}
		}()
	}
	wg.Wait()
	close(results)

	outcomes := make([]pipeline.Outcome, 0, len(items))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (p *Pool) processItem(ctx context.Context, item *pipeline.WorkItem, outputDir string) pipeline.Outcome {
	source, err := os.ReadFile(item.SourcePath)
	if err != nil {
		return p.fail(item, services.Wrap(services.ErrGeneration, "generate", "read source",
			item.SourcePath, err))
	}
	if strings.TrimSpace(string(source)) == "" {
		return p.fail(item, services.Wrap(services.ErrValidation, "generate", "read source",
			item.SourcePath+" is empty", nil))
	}

	prompt, err := p.prompt(item.Kind, item.Class)
	if err != nil {
		return p.fail(item, services.Wrap(services.ErrConfiguration, "generate", "render prompt",
			item.Class, err))
	}

	notes, err := p.generateWithRetry(ctx, item, prompt, string(source))
	if err != nil {
		return p.fail(item, err)
	}

	// Claim the note name before writing; a note already sitting in the
	// output directory keeps its content and the new one gets a timestamp
	// suffix.
	wanted := workspace.NotePathFor(item.SourcePath, outputDir)
	notePath, err := fileutil.ClaimPath(outputDir, filepath.Base(wanted), time.Now)
	if err != nil {
		return p.fail(item, services.Wrap(services.ErrIOConflict, "generate", "claim note name",
			wanted, err))
	}
	if err := os.WriteFile(notePath, []byte(notes), 0o644); err != nil {
		_ = os.Remove(notePath)
		return p.fail(item, services.Wrap(services.ErrGeneration, "generate", "write notes",
			notePath, err))
	}

	item.Stage = pipeline.StageDone
	p.logger.Info("notes written",
		logging.String("source", item.SourcePath),
		logging.String("notes", notePath),
		logging.String("kind", string(item.Kind)),
	)
	return pipeline.Outcome{Item: item, OutputPath: notePath}
}

// generateWithRetry retries transient failures with exponential backoff.
// Non-transient failures stop immediately.
func (p *Pool) generateWithRetry(ctx context.Context, item *pipeline.WorkItem, prompt, source string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= 1+p.retry.MaxRetries; attempt++ {
		item.Attempts++
		notes, err := p.generator.Generate(ctx, prompt, source)
		if err == nil {
			if strings.TrimSpace(notes) == "" {
				return "", services.Wrap(services.ErrGeneration, "generate", "call model",
					"model returned an empty response", nil)
			}
			return notes, nil
		}
		lastErr = err
		if !services.Transient(err) {
			return "", err
		}
		if attempt > p.retry.MaxRetries {
			break
		}

		delay := p.retry.BaseDelay << (attempt - 1)
		if delay > p.retry.MaxDelay {
			delay = p.retry.MaxDelay
		}
		p.logger.Warn("transient generation failure, retrying",
			logging.String("source", item.SourcePath),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := p.sleep(ctx, delay); err != nil {
			return "", services.Wrap(services.ErrTimeout, "generate", "retry wait",
				item.SourcePath, err)
		}
	}
	return "", lastErr
}

func (p *Pool) fail(item *pipeline.WorkItem, err error) pipeline.Outcome {
	item.Stage = pipeline.StageFailed
	item.LastErr = err
	p.logger.Warn("note generation failed",
		logging.String("source", item.SourcePath),
		logging.Error(err),
	)
	return pipeline.Outcome{Item: item, Err: err}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
