package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lectern/internal/config"
	"lectern/internal/generate"
	"lectern/internal/journal"
	"lectern/internal/lifecycle"
	"lectern/internal/logging"
	"lectern/internal/prompt"
	"lectern/internal/services/gemini"
	"lectern/internal/services/whisper"
	"lectern/internal/transcribe"
	"lectern/internal/workflow"
)

// runtime bundles everything a run needs. Close releases the journal and any
// log file handles held by the logger's writers.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *journal.Store
	orch   *workflow.Orchestrator
}

func (r *runtime) Close() {
	if r.store != nil {
		_ = r.store.Close()
	}
}

type poolProgress struct {
	transcribe transcribe.ProgressFunc
	generate   generate.ProgressFunc
}

// buildRuntime loads configuration and assembles the full pipeline stack.
func buildRuntime(ctx context.Context, configPath string, progress poolProgress) (*runtime, error) {
	cfg, path, exists, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("no configuration found at %s (run `lectern config init` first)", path)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr", cfg.LogFilePath()},
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	prompts, err := prompt.Load(cfg.Prompts.LecturePath, cfg.Prompts.ReadingPath)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:          cfg.Generation.APIKey,
		Model:           cfg.Generation.Model,
		MaxOutputTokens: cfg.Generation.MaxOutputTokens,
		Timeout:         time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	whisperCfg := whisper.Config{
		Model:        cfg.Transcription.Model,
		Language:     cfg.Transcription.Language,
		UVXBinary:    cfg.Transcription.UVXBinary,
		FFmpegBinary: cfg.Transcription.FFmpegBinary,
	}
	factory := func(ctx context.Context) (transcribe.Engine, error) {
		return whisper.NewService(whisperCfg)
	}
	cleaner := whisper.NewCleaner(cfg.Transcription.FFmpegBinary)

	var transcribeOpts []transcribe.Option
	if progress.transcribe != nil {
		transcribeOpts = append(transcribeOpts, transcribe.WithProgress(progress.transcribe))
	}
	transcriber := transcribe.NewPool(factory, cleaner, cfg.Transcription.Workers, logger, transcribeOpts...)

	retry := generate.Retry{
		MaxRetries: cfg.Generation.MaxRetries,
		BaseDelay:  time.Duration(cfg.Generation.RetryBaseDelaySeconds) * time.Second,
		MaxDelay:   time.Duration(cfg.Generation.RetryMaxDelaySeconds) * time.Second,
	}
	var generateOpts []generate.Option
	if progress.generate != nil {
		generateOpts = append(generateOpts, generate.WithProgress(progress.generate))
	}
	generator := generate.NewPool(client, prompts.Render, cfg.Generation.Workers, retry, logger, generateOpts...)

	mover := lifecycle.NewManager(cfg.Paths.BackupDir, store, logger)

	return &runtime{
		cfg:    cfg,
		logger: logger,
		store:  store,
		orch:   workflow.New(transcriber, generator, mover, store, logger),
	}, nil
}
