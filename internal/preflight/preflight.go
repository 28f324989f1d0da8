package preflight

import (
	"path/filepath"

	"warden/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	// Optional failures are reported but do not block a start.
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

// RunAll executes the checks that apply to cfg. Disabled features are skipped.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if cfg.LockingEnabled() {
		results = append(results, CheckDirectoryAccess("PID file directory", filepath.Dir(cfg.PIDFile.Path)))
	}
	if cfg.Daemon.WorkingDir != "" {
		results = append(results, CheckDirectoryAccess("Working directory", cfg.Daemon.WorkingDir))
	}
	if cfg.Journal.Enabled {
		journal := CheckDirectoryAccess("Journal directory", filepath.Dir(cfg.Journal.Path))
		journal.Optional = true
		results = append(results, journal)
	}
	if len(cfg.Command.Argv) > 0 {
		results = append(results, CheckCommand("Command", cfg.Command.Argv[0], cfg.Command.Dir))
	}

	return results
}

// Failed returns the non-optional results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
