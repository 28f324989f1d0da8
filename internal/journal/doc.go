// Package journal keeps a SQLite history of lifecycle actions: starts, stale
// lock recoveries, termination requests and their failures.
//
// The journal is advisory. Callers log write failures and carry on; the PID
// file stays the only authority on who holds the lock.
package journal
