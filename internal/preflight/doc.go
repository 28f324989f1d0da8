// Package preflight provides readiness checks for the paths and program a
// warden instance depends on.
//
// The status command renders the results, and start refuses to run when a
// required check fails so a misconfigured instance never takes the lock.
// Journal checks are optional because history is advisory.
package preflight
