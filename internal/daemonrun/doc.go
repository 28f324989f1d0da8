// Package daemonrun wires configuration into a lifecycle run.
//
// Run assembles the pid lock, daemon context, supervised command, and journal
// from a loaded config and hands them to the runner. Inspect and History give
// read-only views for the status and history commands, and Detach starts a
// background instance and waits for it to take the lock.
package daemonrun
