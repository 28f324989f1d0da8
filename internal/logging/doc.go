// Package logging assembles structured slog loggers and formatting helpers used
// across warden.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and defines the standard field keys (component, event_type,
// run_id, pid, pid_file) so every line about a lock or a process carries the
// same shape. The console handler colours levels when writing to a terminal.
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
