package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"lectern/internal/transcribe"
)

// Service invokes WhisperX through uvx and parses its JSON output. It
// implements the transcription engine contract.
type Service struct {
	cfg           Config
	uvxBinary     string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service after verifying the uvx launcher is
// available. A missing launcher is an initialization failure.
func NewService(cfg Config) (*Service, error) {
	uvxBinary := cfg.UVXBinary
	if uvxBinary == "" {
		uvxBinary = UVXCommand
	}
	if _, err := exec.LookPath(uvxBinary); err != nil {
		return nil, fmt.Errorf("whisperx: locate %s: %w", uvxBinary, err)
	}
	return &Service{cfg: cfg, uvxBinary: uvxBinary}, nil
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// Transcribe runs WhisperX on a cleaned WAV file and returns its segments.
// WhisperX output files are written to a per-call scratch directory and
// removed before returning.
func (s *Service) Transcribe(ctx context.Context, audioPath string) ([]transcribe.Segment, error) {
	if audioPath == "" {
		return nil, fmt.Errorf("whisperx: audio path required")
	}

	outputDir, err := os.MkdirTemp("", "whisperx-*")
	if err != nil {
		return nil, fmt.Errorf("whisperx: scratch dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	args := s.buildArgs(audioPath, outputDir)
	if err := s.run(ctx, s.uvxBinary, args...); err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return loadSegments(filepath.Join(outputDir, baseName+".json"))
}

// Close releases the engine. The model lives inside the uvx-managed process,
// so there is nothing to tear down on this side.
func (s *Service) Close() error { return nil }

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	model := s.cfg.Model
	if model == "" {
		model = DefaultModel
	}

	args := []string{
		"--index-url", PypiIndexURL,
		"whisperx",
		source,
		"--model", model,
		"--batch_size", BatchSize,
		"--temperature", Temperature,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--device", CPUDevice,
		"--compute_type", CPUComputeType,
	}
	if s.cfg.Language != "" {
		args = append(args, "--language", s.cfg.Language)
	}
	return args
}

type payloadSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperXPayload struct {
	Segments []payloadSegment `json:"segments"`
}

// loadSegments parses a WhisperX JSON file into engine segments.
func loadSegments(jsonPath string) ([]transcribe.Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("whisperx: read output: %w", err)
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("whisperx: parse json: %w", err)
	}
	segments := make([]transcribe.Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		segments = append(segments, transcribe.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return segments, nil
}
