package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"lectern/internal/logging"
	"lectern/internal/workspace"
)

// Runner executes one batch run over the configured classes.
type Runner func(ctx context.Context) error

// DefaultDebounce is used when configuration does not set one.
const DefaultDebounce = 5 * time.Second

// Watcher monitors the input directories of every class and triggers a run
// after the filesystem has been quiet for the debounce interval. Runs are
// single flight: events arriving while a run is active simply schedule the
// next one.
type Watcher struct {
	classRoots []string
	debounce   time.Duration
	runner     Runner
	logger     *slog.Logger
}

// New constructs a watcher over the given class roots.
func New(classRoots []string, debounce time.Duration, runner Runner, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		classRoots: classRoots,
		debounce:   debounce,
		runner:     runner,
		logger:     logging.NewComponentLogger(logger, "watch"),
	}
}

// Watch blocks until the context is canceled, running the pipeline whenever
// new input settles. An initial run fires immediately so files dropped before
// startup are not missed.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	watched := 0
	for _, root := range w.classRoots {
		ws := workspace.Resolve(root)
		if err := ws.Verify(); err != nil {
			w.logger.Warn("class not watched",
				logging.String("class", ws.Class),
				logging.Error(err),
			)
			continue
		}
		paths := ws.Paths()
		for _, dir := range []string{paths.LectureInput, paths.ReadingInput} {
			if err := fw.Add(dir); err != nil {
				w.logger.Warn("directory not watched",
					logging.String("dir", dir),
					logging.Error(err),
				)
				continue
			}
			watched++
		}
	}
	if watched == 0 {
		return errors.New("watch: no input directories available")
	}
	w.logger.Info("watching for new input",
		logging.Int("directories", watched),
		logging.Duration("debounce", w.debounce),
	)

	w.run(ctx)

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watch stopped")
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return errors.New("watch: events channel closed")
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("input change detected", logging.String("path", event.Name))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("watch: errors channel closed")
			}
			w.logger.Warn("watch error", logging.Error(err))

		case <-timerC:
			timer = nil
			timerC = nil
			w.run(ctx)
		}
	}
}

// run executes one pipeline pass. Transcripts the run writes into
// lecture-input retrigger the debounce; the follow-up run finds an empty
// queue and reports nothing, so the loop settles.
func (w *Watcher) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.runner(ctx); err != nil {
		w.logger.Error("run failed", logging.Error(err))
	}
}

var inputExtensions = map[string]struct{}{
	".m4a":  {},
	".mp3":  {},
	".wav":  {},
	".aac":  {},
	".flac": {},
	".ogg":  {},
	".txt":  {},
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	_, ok := inputExtensions[strings.ToLower(filepath.Ext(base))]
	return ok
}
