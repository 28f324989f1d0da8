// Package runner turns a PID-file lock into start, stop and restart.
//
// A Runner is built for exactly one action. Start self-heals a stale lock,
// opens the daemon context (which acquires the lock) and runs the
// application body until it returns. Stop signals the recorded owner with
// SIGTERM and does not wait for it to exit. Restart is stop followed by
// start, abandoning start when stop fails.
//
// Failures surface as *Error values tagged KindStartFailure,
// KindStopFailure or KindInvalidAction. Nothing is retried.
package runner
