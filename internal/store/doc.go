// Package store persists captured trace snapshots to SQLite for offline
// diagnosis.
//
// The trace engine itself never persists anything: it records into
// in-memory rings and forgets on restart. This package is the other half
// of an explicit, operator-invoked export: fetch a snapshot from a
// running endpoint, write it here, and analyze the database on a
// workstation later. Each export is a new snapshot row; events are
// immutable once written.
package store
