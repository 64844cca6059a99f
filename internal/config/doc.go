// Package config loads the tracing tunables.
//
// Values are layered, later sources winning: built-in defaults, then an
// optional YAML file, then BOOTTRACE_* environment variables. The YAML
// file is validated against an embedded CUE schema before it is applied,
// so a typo'd key or a non-positive table size fails loudly at startup
// instead of silently shrinking a table.
//
// Table sizes are clamped to a documented floor after loading; the
// engine is allowed to be generous, never undersized.
package config
