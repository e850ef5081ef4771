// Package pipeline defines the work item model and the run report shared by
// the stage pools and the orchestrator.
//
// A WorkItem tracks one physical input file through transcription and note
// generation. The RunReport accumulates terminal outcomes per class and
// stage; it is the only cross-stage state and is safe for concurrent
// recording.
package pipeline
