// Package workspace models the fixed per-class directory contract and file
// discovery.
//
// A workspace is one class's root directory with six lifecycle
// subdirectories: lecture-input, lecture-output, lecture-processed
// ({audio,txt}), reading-input, reading-output, and reading-processed.
// Verify creates missing subdirectories rather than failing; only a missing
// class root disqualifies a workspace from the run.
package workspace
