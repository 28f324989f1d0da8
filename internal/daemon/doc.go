// Package daemon prepares a process to run as the single warden instance.
//
// Context is the collaborator the runner opens: it acquires the PID file
// lock first, so a conflict is reported to whoever invoked start, and only
// then applies the configured umask and working directory. Close releases
// the lock if this process still owns it.
//
// Launch detaches by re-executing the binary in a new session with stdin on
// /dev/null and output appended to a log file. The child sees
// WARDEN_DETACHED=1 and runs in the foreground from there; WaitForOwner lets
// the parent confirm the child claimed the PID file.
package daemon
