package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"lectern/internal/config"
	"lectern/internal/workspace"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Generation.APIKey = "test"
	cfgVal.Paths.BackupDir = filepath.Join(base, "backup")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithClass creates a verified class workspace under the test base directory
// and registers it in the config. Returns the builder for chaining; the
// workspace root is base/<name>.
func WithClass(name string) ConfigOption {
	return func(b *configBuilder) {
		root := filepath.Join(b.baseDir, name)
		if err := os.MkdirAll(root, 0o755); err != nil {
			b.t.Fatalf("create class root: %v", err)
		}
		if err := workspace.Resolve(root).Verify(); err != nil {
			b.t.Fatalf("verify class root: %v", err)
		}
		b.cfg.Paths.ClassDirs = append(b.cfg.Paths.ClassDirs, root)
	}
}

// WithAPIKey overrides the Gemini API key on the test config.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Generation.APIKey = key
	}
}

// WithWorkers overrides both pool widths on the test config.
func WithWorkers(audio, llm int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.Workers = audio
		b.cfg.Generation.Workers = llm
	}
}
