package whisper

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Cleaner rewrites lecture audio as mono 16kHz WAV with the speech cleanup
// filter chain applied. The result is what WhisperX consumes.
type Cleaner struct {
	ffmpegBinary  string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewCleaner creates an ffmpeg-backed audio preprocessor.
func NewCleaner(ffmpegBinary string) *Cleaner {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Cleaner{ffmpegBinary: ffmpegBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Cleaner) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	c.commandRunner = runner
}

// Clean decodes source, applies the cleanup filter chain, and writes dest.
func (c *Cleaner) Clean(ctx context.Context, source, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-af", cleanupFilter,
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	if c.commandRunner != nil {
		return c.commandRunner(ctx, c.ffmpegBinary, args...)
	}
	cmd := exec.CommandContext(ctx, c.ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg clean: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
