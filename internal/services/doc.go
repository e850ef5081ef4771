// Package services defines the shared error vocabulary consumed by the
// pipeline stages and external engine adapters.
//
// Key responsibilities:
//   - Sentinel error markers that classify a failure (transcription, rate
//     limit, timeout, generation rejection, lifecycle conflict, worker
//     initialization) plus the Wrap helper that stamps stage context onto
//     errors while keeping the marker reachable via errors.Is.
//   - The Kind mapping used by the run report so every failed item carries a
//     stable, user-facing error category.
//
// Use these helpers when wiring new stage logic so failure handling stays
// uniform across the pipeline.
package services
