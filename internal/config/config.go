package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// ClassDirs lists the class workspace root directories.
	ClassDirs []string `toml:"class_dirs"`
	// BackupDir is the process-wide flat backup root mirroring all outputs.
	BackupDir string `toml:"backup_dir"`
	// LogDir holds the log file and the run journal database.
	LogDir string `toml:"log_dir"`
}

// Transcription contains speech-to-text settings.
type Transcription struct {
	Model        string `toml:"model"`
	FFmpegBinary string `toml:"ffmpeg_binary"`
	UVXBinary    string `toml:"uvx_binary"`
	Language     string `toml:"language"`
	Workers      int    `toml:"workers"`
}

// Generation contains note-generation settings.
type Generation struct {
	APIKey                string `toml:"api_key"`
	Model                 string `toml:"model"`
	Workers               int    `toml:"workers"`
	MaxOutputTokens       int    `toml:"max_output_tokens"`
	MaxRetries            int    `toml:"max_retries"`
	RetryBaseDelaySeconds int    `toml:"retry_base_delay_seconds"`
	RetryMaxDelaySeconds  int    `toml:"retry_max_delay_seconds"`
	TimeoutSeconds        int    `toml:"timeout_seconds"`
}

// Prompts contains optional prompt template overrides. When empty the
// embedded templates are used.
type Prompts struct {
	LecturePath string `toml:"lecture_path"`
	ReadingPath string `toml:"reading_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Watch contains settings for watch mode.
type Watch struct {
	DebounceSeconds int `toml:"debounce_seconds"`
}

// Config encapsulates all configuration values for lectern.
//
// Configuration sections by subsystem:
//   - Paths: class workspace roots, backup root, log directory
//   - Transcription: whisper model and audio worker pool width
//   - Generation: Gemini model, retry policy, and note worker pool width
//   - Prompts: prompt template overrides
//   - Logging: log format and level
//   - Watch: watch-mode debounce
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	Generation    Generation    `toml:"generation"`
	Prompts       Prompts       `toml:"prompts"`
	Logging       Logging       `toml:"logging"`
	Watch         Watch         `toml:"watch"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lectern/config.toml")
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading tilde and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// JournalPath returns the run journal database location under the log dir.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.LogDir, "journal.db")
}

// LogFilePath returns the log file location under the log dir.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "lectern.log")
}

// EnsureDirectories creates the backup and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.BackupDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err = os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lectern.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			return home, nil
		}
		return filepath.Join(home, pathValue[2:]), nil
	}
	return filepath.Abs(pathValue)
}
