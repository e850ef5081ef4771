package whisper

// Config captures runtime settings for WhisperX transcription.
type Config struct {
	// Model is the WhisperX model to use (e.g., "small", "large-v3").
	Model string
	// Language forces the spoken language instead of auto-detection.
	Language string
	// UVXBinary overrides the uvx launcher path.
	UVXBinary string
	// FFmpegBinary overrides the ffmpeg path used for audio cleanup.
	FFmpegBinary string
}

// WhisperX configuration constants.
const (
	DefaultModel   = "small"
	PypiIndexURL   = "https://pypi.org/simple"
	BatchSize      = "8"
	Temperature    = "0.0"
	OutputFormat   = "json"
	CPUDevice      = "cpu"
	CPUComputeType = "float32"
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
)

// cleanupFilter is the ffmpeg audio filter chain applied before
// transcription: bandpass to the speech range, denoise, then loudness
// normalization.
const cleanupFilter = "highpass=f=80,lowpass=f=7500,afftdn,loudnorm"
