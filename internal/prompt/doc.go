// Package prompt supplies the note-generation instruction templates. Default
// templates are embedded in the binary; either track can be overridden by a
// file path in configuration.
package prompt
