package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIOConflict marks a lifecycle move that lost its source file or could
	// not claim a destination.
	ErrIOConflict = errors.New("io conflict")
	// ErrTranscription marks a preprocessing or inference failure. Never retried.
	ErrTranscription = errors.New("transcription error")
	// ErrRateLimited marks a transient generation-stage rejection (quota).
	ErrRateLimited = errors.New("rate limited")
	// ErrTimeout marks a transient generation-stage timeout.
	ErrTimeout = errors.New("timeout")
	// ErrGeneration marks a permanent generation-stage rejection. Never retried.
	ErrGeneration = errors.New("generation error")
	// ErrWorkerInit marks a pool worker that failed to initialize its engine.
	ErrWorkerInit = errors.New("worker init error")
	// ErrValidation marks bad input that a stage refuses to process.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable runtime configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to the stable category name surfaced in run reports.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIOConflict):
		return "IOConflict"
	case errors.Is(err, ErrTranscription):
		return "TranscriptionError"
	case errors.Is(err, ErrRateLimited):
		return "RateLimited"
	case errors.Is(err, ErrTimeout):
		return "Timeout"
	case errors.Is(err, ErrGeneration):
		return "GenerationError"
	case errors.Is(err, ErrWorkerInit):
		return "WorkerInitError"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrConfiguration):
		return "ConfigurationError"
	default:
		return "Error"
	}
}

// Transient reports whether the error is worth retrying with backoff.
func Transient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
