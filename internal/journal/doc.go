// Package journal persists the file-move audit log and run outcomes in
// SQLite.
//
// The database is an audit trail for troubleshooting and targeted reruns,
// not a checkpoint: the pipeline never reads it to decide what to process.
// Every write is best-effort from the caller's point of view; a journal
// failure is logged and never aborts the move or run that triggered it.
// Append order of the move log equals completion order of the moves.
package journal
