// Package workflow drives a batch run end to end: per class, pending audio is
// transcribed, transcripts and readings become markdown notes, consumed
// inputs move into their processed directories, and every note is mirrored
// into the backup root. Failures are isolated to the owning item and the run
// always produces a report.
package workflow
