package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if len(c.Paths.ClassDirs) == 0 {
		return errors.New("paths.class_dirs must list at least one class workspace")
	}
	seen := make(map[string]struct{}, len(c.Paths.ClassDirs))
	for _, dir := range c.Paths.ClassDirs {
		if strings.TrimSpace(dir) == "" {
			return errors.New("paths.class_dirs entries must not be empty")
		}
		if _, ok := seen[dir]; ok {
			return fmt.Errorf("paths.class_dirs lists %s more than once", dir)
		}
		seen[dir] = struct{}{}
	}
	if strings.TrimSpace(c.Paths.BackupDir) == "" {
		return errors.New("paths.backup_dir must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.Workers <= 0 {
		return errors.New("transcription.workers must be positive")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if strings.TrimSpace(c.Generation.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/lectern/config.toml"
		}
		return fmt.Errorf("generation.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'lectern config init')", defaultPath)
	}
	if c.Generation.Workers <= 0 {
		return errors.New("generation.workers must be positive")
	}
	if c.Generation.RetryMaxDelaySeconds < c.Generation.RetryBaseDelaySeconds {
		return errors.New("generation.retry_max_delay_seconds must be >= retry_base_delay_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}
