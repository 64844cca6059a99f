// Package ctl exposes the administrative control endpoint over HTTP.
//
// The endpoint mirrors the classic sysctl surface of a kernel boot
// tracer: reading /boottimes dumps the boot and run tables as text,
// writing to /boottimes, /runtimes or /shuttimes injects a synthetic
// event (optionally switching phase), and /tablesize grows the run
// table. /events returns a JSON snapshot of the raw entries for the
// offline exporter.
//
// Dropped events (table not yet allocated, or full and non-wrapping) are
// deliberately silent at this boundary: the writer gets a success
// status, overflow is visible only in the drop counters. Resize
// failures, by contrast, are always surfaced.
package ctl
