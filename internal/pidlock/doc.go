// Package pidlock implements a single-holder lock whose token is a PID file.
//
// The filesystem is the only source of truth: a lock is held when its PID
// file exists, and a process owns it when the file records that process's
// PID. Acquisition claims the file with one exclusive create and polls only
// while the create keeps failing because the file exists, so two contenders
// can never both believe they won.
//
// Failures carry a Kind (AlreadyLocked, LockFailed, NotLocked, NotMyLock,
// UnlockFailed) so callers branch with errors.Is against the package
// sentinels or with KindOf instead of matching message text.
//
// The Detector decides whether a recorded owner is dead. Its BreakIfStale
// re-checks under a sidecar flock (the PID file path plus ".lock") so two
// runners recovering from the same crashed instance cannot break each
// other's fresh locks.
package pidlock
