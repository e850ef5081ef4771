// Package logging builds the slog loggers used across lectern.
//
// It supports a human-readable console format and JSON, optionally teeing
// output to a log file alongside stderr. Attr helper aliases keep call sites
// terse and consistent.
package logging
