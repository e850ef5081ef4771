// Package whisper provides WhisperX transcription for lecture audio.
//
// This package handles:
//   - Audio cleanup via ffmpeg (bandpass, denoise, loudness normalization)
//   - WhisperX invocation through uvx
//   - Segment extraction from WhisperX JSON output
//
// Configuration options (model, language, binary paths) are passed via Config.
package whisper
