// Package transcribe converts lecture audio into timestamped transcripts.
//
// Work is spread across a bounded pool. Each worker initializes its own
// speech-to-text engine once and keeps it for the life of the run; a worker
// that fails to bring up an engine is discarded and its share of the queue
// flows to the surviving workers. Per item, the audio is first cleaned by a
// Preprocessor into a temporary 16 kHz mono file, transcribed, and rendered
// as one [HH:MM:SS] prefixed line per segment next to the source file.
package transcribe
