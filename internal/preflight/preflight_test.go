package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"warden/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCommand(t *testing.T) {
	if result := CheckCommand("cmd", "sh", ""); !result.Passed {
		t.Fatalf("expected sh on PATH, got: %s", result.Detail)
	}
	if result := CheckCommand("cmd", "warden-definitely-missing", ""); result.Passed {
		t.Fatal("expected missing binary to fail")
	}
	if result := CheckCommand("cmd", "  ", ""); result.Passed || result.Detail != "command not configured" {
		t.Fatalf("unexpected result for empty program: %+v", result)
	}
}

func TestCheckCommandRelativeToDir(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "bin", "serve")
	if err := os.MkdirAll(filepath.Dir(script), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	result := CheckCommand("cmd", "./bin/serve", dir)
	if !result.Passed {
		t.Fatalf("expected relative program to resolve, got: %s", result.Detail)
	}
}

func TestRunAllSkipsDisabledFeatures(t *testing.T) {
	cfg := config.Default()
	cfg.PIDFile.Path = ""
	cfg.Daemon.WorkingDir = ""
	cfg.Journal.Enabled = false

	if results := RunAll(&cfg); len(results) != 0 {
		t.Fatalf("expected no checks, got %+v", results)
	}
}

func TestRunAllReportsFailures(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.PIDFile.Path = filepath.Join(base, "missing", "warden.pid")
	cfg.Daemon.WorkingDir = base
	cfg.Journal.Path = filepath.Join(base, "gone", "journal.db")
	cfg.Command.Argv = []string{"sh", "-c", "true"}

	results := RunAll(&cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 checks, got %+v", results)
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "PID file directory" {
		t.Fatalf("expected only pid file directory to block, got %+v", failed)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatalf("expected nil, got %+v", results)
	}
}
