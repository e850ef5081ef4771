// Package lifecycle moves files between the named pipeline directories.
//
// A move resolves its destination name and claims it atomically (exclusive
// create) before the rename, so two concurrent movers targeting the same
// base name always land on distinct paths. Name collisions get a
// timestamp-derived suffix. The source file is exclusively held only for
// the duration of the move or copy and released on every exit path.
// Successful operations are appended to the journal; journal or backup
// failures never fail the move itself.
package lifecycle
