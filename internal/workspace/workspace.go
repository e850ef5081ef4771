package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Directory names forming the per-class contract.
const (
	LectureInputDir     = "lecture-input"
	LectureOutputDir    = "lecture-output"
	LectureProcessedDir = "lecture-processed"
	ProcessedAudioDir   = "audio"
	ProcessedTxtDir     = "txt"
	ReadingInputDir     = "reading-input"
	ReadingOutputDir    = "reading-output"
	ReadingProcessedDir = "reading-processed"
)

// TranscriptExt is the extension given to rendered transcripts. Transcripts
// live alongside their audio in lecture-input until note generation succeeds.
const TranscriptExt = ".txt"

var audioExtensions = map[string]struct{}{
	".m4a":  {},
	".mp3":  {},
	".wav":  {},
	".aac":  {},
	".flac": {},
	".ogg":  {},
}

// Workspace is one class's root directory tree.
type Workspace struct {
	Root  string
	Class string
}

// Paths collects the six lifecycle directories of a workspace.
type Paths struct {
	LectureInput          string
	LectureOutput         string
	LectureProcessedAudio string
	LectureProcessedTxt   string
	ReadingInput          string
	ReadingOutput         string
	ReadingProcessed      string
}

// Resolve derives a Workspace from a class root directory. The class label is
// the directory base name.
func Resolve(root string) Workspace {
	return Workspace{Root: root, Class: filepath.Base(root)}
}

// Paths returns the lifecycle directory paths for the workspace.
func (w Workspace) Paths() Paths {
	return Paths{
		LectureInput:          filepath.Join(w.Root, LectureInputDir),
		LectureOutput:         filepath.Join(w.Root, LectureOutputDir),
		LectureProcessedAudio: filepath.Join(w.Root, LectureProcessedDir, ProcessedAudioDir),
		LectureProcessedTxt:   filepath.Join(w.Root, LectureProcessedDir, ProcessedTxtDir),
		ReadingInput:          filepath.Join(w.Root, ReadingInputDir),
		ReadingOutput:         filepath.Join(w.Root, ReadingOutputDir),
		ReadingProcessed:      filepath.Join(w.Root, ReadingProcessedDir),
	}
}

// Verify confirms the workspace root exists and creates any missing lifecycle
// subdirectories. Missing subdirectories are created, not treated as errors;
// only a missing root or an unwritable tree fails verification.
func (w Workspace) Verify() error {
	info, err := os.Stat(w.Root)
	if err != nil {
		return fmt.Errorf("class folder %s: %w", w.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("class folder %s is not a directory", w.Root)
	}

	paths := w.Paths()
	for _, dir := range []string{
		paths.LectureInput,
		paths.LectureOutput,
		paths.LectureProcessedAudio,
		paths.LectureProcessedTxt,
		paths.ReadingInput,
		paths.ReadingOutput,
		paths.ReadingProcessed,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create folder %s: %w", dir, err)
		}
	}
	return nil
}

// PendingAudio lists audio files awaiting transcription in lecture-input.
func (w Workspace) PendingAudio() ([]string, error) {
	return listFiles(w.Paths().LectureInput, func(name string) bool {
		_, ok := audioExtensions[strings.ToLower(filepath.Ext(name))]
		return ok
	})
}

// PendingTranscripts lists transcripts awaiting note generation in
// lecture-input.
func (w Workspace) PendingTranscripts() ([]string, error) {
	return listFiles(w.Paths().LectureInput, func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), TranscriptExt)
	})
}

// PendingReadings lists reading texts awaiting note generation in
// reading-input.
func (w Workspace) PendingReadings() ([]string, error) {
	return listFiles(w.Paths().ReadingInput, func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), TranscriptExt)
	})
}

// StaleTranscript pairs a leftover transcript with its age.
type StaleTranscript struct {
	Path string
	Age  time.Duration
}

// StaleTranscripts returns transcripts in lecture-input older than maxAge.
// These are survivors of earlier runs whose note generation failed; they are
// reported so the operator notices unbounded retention, then re-submitted.
func (w Workspace) StaleTranscripts(maxAge time.Duration) ([]StaleTranscript, error) {
	transcripts, err := w.PendingTranscripts()
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-maxAge)
	var stale []StaleTranscript
	for _, path := range transcripts {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, StaleTranscript{Path: path, Age: time.Since(info.ModTime())})
		}
	}
	return stale, nil
}

// TranscriptPathFor derives the transcript location for an audio file: same
// directory, same stem, transcript extension.
func TranscriptPathFor(audioPath string) string {
	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(filepath.Dir(audioPath), stem+TranscriptExt)
}

// NotePathFor derives the markdown note location for a source file inside
// outputDir.
func NotePathFor(sourcePath, outputDir string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return filepath.Join(outputDir, stem+".md")
}

func listFiles(dir string, keep func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if keep(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
