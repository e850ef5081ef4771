package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	c.normalizeGeneration()
	if err := c.normalizePrompts(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeWatch()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	for i, dir := range c.Paths.ClassDirs {
		if c.Paths.ClassDirs[i], err = expandPath(dir); err != nil {
			return fmt.Errorf("paths.class_dirs[%d]: %w", i, err)
		}
	}
	if strings.TrimSpace(c.Paths.BackupDir) == "" {
		c.Paths.BackupDir = defaultBackupDir
	}
	if c.Paths.BackupDir, err = expandPath(c.Paths.BackupDir); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscription() error {
	if strings.TrimSpace(c.Transcription.Model) == "" {
		c.Transcription.Model = defaultWhisperModel
	}
	if strings.TrimSpace(c.Transcription.FFmpegBinary) == "" {
		c.Transcription.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Transcription.UVXBinary) == "" {
		c.Transcription.UVXBinary = defaultUVXBinary
	}
	if c.Transcription.Workers <= 0 {
		c.Transcription.Workers = defaultAudioWorkers
	}
	return nil
}

func (c *Config) normalizeGeneration() {
	if strings.TrimSpace(c.Generation.APIKey) == "" {
		c.Generation.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if strings.TrimSpace(c.Generation.Model) == "" {
		c.Generation.Model = defaultGenerationModel
	}
	if c.Generation.Workers <= 0 {
		c.Generation.Workers = defaultGenerationWorkers
	}
	if c.Generation.MaxOutputTokens <= 0 {
		c.Generation.MaxOutputTokens = defaultMaxOutputTokens
	}
	if c.Generation.MaxRetries < 0 {
		c.Generation.MaxRetries = defaultMaxRetries
	}
	if c.Generation.RetryBaseDelaySeconds <= 0 {
		c.Generation.RetryBaseDelaySeconds = defaultRetryBaseDelaySeconds
	}
	if c.Generation.RetryMaxDelaySeconds <= 0 {
		c.Generation.RetryMaxDelaySeconds = defaultRetryMaxDelaySeconds
	}
	if c.Generation.TimeoutSeconds <= 0 {
		c.Generation.TimeoutSeconds = defaultGenerationTimeout
	}
}

func (c *Config) normalizePrompts() error {
	var err error
	if c.Prompts.LecturePath, err = expandPath(c.Prompts.LecturePath); err != nil {
		return fmt.Errorf("prompts.lecture_path: %w", err)
	}
	if c.Prompts.ReadingPath, err = expandPath(c.Prompts.ReadingPath); err != nil {
		return fmt.Errorf("prompts.reading_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeWatch() {
	if c.Watch.DebounceSeconds <= 0 {
		c.Watch.DebounceSeconds = defaultWatchDebounceSeconds
	}
}
