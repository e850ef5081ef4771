package config

const (
	defaultBackupDir             = "~/.local/share/lectern/backup"
	defaultLogDir                = "~/.local/share/lectern/logs"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultWhisperModel          = "small"
	defaultFFmpegBinary          = "ffmpeg"
	defaultUVXBinary             = "uvx"
	defaultAudioWorkers          = 3
	defaultGenerationModel       = "gemini-2.5-pro"
	defaultGenerationWorkers     = 5
	defaultMaxOutputTokens       = 8192
	defaultMaxRetries            = 3
	defaultRetryBaseDelaySeconds = 1
	defaultRetryMaxDelaySeconds  = 30
	defaultGenerationTimeout     = 120
	defaultWatchDebounceSeconds  = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BackupDir: defaultBackupDir,
			LogDir:    defaultLogDir,
		},
		Transcription: Transcription{
			Model:        defaultWhisperModel,
			FFmpegBinary: defaultFFmpegBinary,
			UVXBinary:    defaultUVXBinary,
			Workers:      defaultAudioWorkers,
		},
		Generation: Generation{
			Model:                 defaultGenerationModel,
			Workers:               defaultGenerationWorkers,
			MaxOutputTokens:       defaultMaxOutputTokens,
			MaxRetries:            defaultMaxRetries,
			RetryBaseDelaySeconds: defaultRetryBaseDelaySeconds,
			RetryMaxDelaySeconds:  defaultRetryMaxDelaySeconds,
			TimeoutSeconds:        defaultGenerationTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Watch: Watch{
			DebounceSeconds: defaultWatchDebounceSeconds,
		},
	}
}
