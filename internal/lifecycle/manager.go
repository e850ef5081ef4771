package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"lectern/internal/fileutil"
	"lectern/internal/logging"
	"lectern/internal/services"
)

// Journal receives audit entries for successful moves and copies. Journal
// failures never abort the operation that produced them.
type Journal interface {
	RecordMove(ctx context.Context, operation, source, destination string) error
}

// Manager performs collision-safe file movement between lifecycle
// directories and best-effort mirroring into the backup root.
type Manager struct {
	backupRoot string
	journal    Journal
	logger     *slog.Logger
	now        func() time.Time
}

// Option customizes the Manager.
type Option func(*Manager)

// WithClock overrides the timestamp source used for collision suffixes.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a lifecycle manager. journal may be nil.
func NewManager(backupRoot string, journal Journal, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		backupRoot: backupRoot,
		journal:    journal,
		logger:     logging.NewComponentLogger(logger, "lifecycle"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MoveToNextStage relocates sourcePath into targetDir. On a name collision a
// timestamp-derived suffix is appended; the disambiguated name is claimed
// atomically with an exclusive create so concurrent movers can never resolve
// to the same destination. Returns the final destination path.
func (m *Manager) MoveToNextStage(ctx context.Context, sourcePath, targetDir string) (string, error) {
	release, err := m.holdSource(sourcePath)
	if err != nil {
		return "", err
	}
	defer release()

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrIOConflict, "lifecycle", "move",
			fmt.Sprintf("destination %s not writable", targetDir), err)
	}

	dest, err := m.claimDestination(targetDir, filepath.Base(sourcePath))
	if err != nil {
		return "", err
	}

	if err := m.moveOverClaim(sourcePath, dest); err != nil {
		// Release the placeholder so a failed move leaves no debris.
		_ = os.Remove(dest)
		return "", err
	}

	m.audit(ctx, "move", sourcePath, dest)
	return dest, nil
}

// MirrorToBackup copies outputPath into the class-labeled backup directory,
// applying the same collision rule. The copy is verified; the source is
// never touched. Callers treat errors as non-fatal for the owning item.
func (m *Manager) MirrorToBackup(ctx context.Context, outputPath, classLabel string) (string, error) {
	release, err := m.holdSource(outputPath)
	if err != nil {
		return "", err
	}
	defer release()

	backupDir := filepath.Join(m.backupRoot, sanitizeLabel(classLabel))
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrIOConflict, "lifecycle", "backup",
			fmt.Sprintf("backup directory %s not writable", backupDir), err)
	}

	dest, err := m.claimDestination(backupDir, filepath.Base(outputPath))
	if err != nil {
		return "", err
	}

	if err := fileutil.CopyFileVerified(outputPath, dest); err != nil {
		_ = os.Remove(dest)
		return "", services.Wrap(services.ErrIOConflict, "lifecycle", "backup", "copy failed", err)
	}

	m.audit(ctx, "copy", outputPath, dest)
	return dest, nil
}

// holdSource takes an exclusive advisory lock on the source file for the
// duration of the operation. The lock is released on every exit path via the
// returned function, so a crashed worker never leaves a file locked.
func (m *Manager) holdSource(sourcePath string) (func(), error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, services.Wrap(services.ErrIOConflict, "lifecycle", "acquire",
			fmt.Sprintf("source %s missing", sourcePath), err)
	}

	lock := flock.New(sourcePath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrIOConflict, "lifecycle", "acquire",
			fmt.Sprintf("lock %s", sourcePath), err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrIOConflict, "lifecycle", "acquire",
			fmt.Sprintf("source %s held by concurrent caller", sourcePath), nil)
	}

	// TryLock creates the file when missing, so re-check that the source
	// still exists now that we hold it.
	if _, err := os.Stat(sourcePath); err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrIOConflict, "lifecycle", "acquire",
			fmt.Sprintf("source %s moved by concurrent caller", sourcePath), err)
	}

	return func() { _ = lock.Unlock() }, nil
}

// claimDestination resolves and reserves a collision-free name inside dir.
func (m *Manager) claimDestination(dir, baseName string) (string, error) {
	dest, err := fileutil.ClaimPath(dir, baseName, m.now)
	if err != nil {
		return "", services.Wrap(services.ErrIOConflict, "lifecycle", "claim destination", baseName, err)
	}
	return dest, nil
}

// moveOverClaim renames source over the reserved placeholder, falling back to
// copy+delete for cross-device moves.
func (m *Manager) moveOverClaim(source, dest string) error {
	renameErr := os.Rename(source, dest)
	if renameErr == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if copyErr := fileutil.CopyFile(source, dest); copyErr != nil {
			return services.Wrap(services.ErrIOConflict, "lifecycle", "move", "cross-device copy failed", copyErr)
		}
		if err := os.Remove(source); err != nil {
			m.logger.Warn("source not removed after cross-device copy; duplicate remains",
				logging.String("source", source),
				logging.Error(err),
			)
		}
		return nil
	}

	return services.Wrap(services.ErrIOConflict, "lifecycle", "move",
		fmt.Sprintf("rename %s", source), renameErr)
}

func (m *Manager) audit(ctx context.Context, operation, source, dest string) {
	m.logger.Info("lifecycle "+operation,
		logging.String("source", source),
		logging.String("destination", dest),
	)
	if m.journal == nil {
		return
	}
	if err := m.journal.RecordMove(ctx, operation, source, dest); err != nil {
		m.logger.Warn("journal append failed; move already completed",
			logging.String("source", source),
			logging.Error(err),
		)
	}
}

func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	label = strings.ReplaceAll(label, string(os.PathSeparator), "_")
	return label
}
