package testsupport

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
)

// WritePIDFile writes content to path as if another instance held the lock.
func WritePIDFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteOwnerPID records pid as the lock owner.
func WriteOwnerPID(t testing.TB, path string, pid int) {
	t.Helper()
	WritePIDFile(t, path, strconv.Itoa(pid)+"\n")
}

// DeadPID returns the PID of a process that has already exited and been
// reaped.
func DeadPID(t testing.TB) int {
	t.Helper()

	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Fatalf("run true: %v", err)
	}
	return cmd.Process.Pid
}

// StartSleeper starts a long sleep and returns its PID. The process is killed
// and reaped on cleanup.
func StartSleeper(t testing.TB) int {
	t.Helper()

	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleeper: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})
	return cmd.Process.Pid
}
