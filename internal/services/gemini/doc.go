// Package gemini wraps the Gemini API client used for note generation. It
// translates SDK failures into the pipeline error taxonomy so rate limits and
// timeouts are retried while content failures are terminal.
package gemini
