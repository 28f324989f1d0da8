package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"warden/internal/daemon"
	"warden/internal/pidlock"
)

func testLock(t *testing.T, opts ...pidlock.Option) *pidlock.Lock {
	t.Helper()
	lock, err := pidlock.New(filepath.Join(t.TempDir(), "warden.pid"), opts...)
	if err != nil {
		t.Fatalf("pidlock.New: %v", err)
	}
	return lock
}

func TestOpenAcquiresAndCloseReleases(t *testing.T) {
	lock := testLock(t)
	dctx := &daemon.Context{Umask: daemon.KeepUmask}
	dctx.SetPIDFile(lock)

	if err := dctx.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !dctx.IsOpen() || !lock.IAmLocking() {
		t.Fatal("expected open context holding the lock")
	}
	// Second open is a no-op.
	if err := dctx.Open(context.Background()); err != nil {
		t.Fatalf("second Open failed: %v", err)
	}

	if err := dctx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if dctx.IsOpen() || lock.IsLocked() {
		t.Fatal("expected lock released on close")
	}
	if err := dctx.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestOpenReportsAlreadyLocked(t *testing.T) {
	holder := testLock(t)
	if err := holder.Acquire(context.Background(), 0); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	contender, err := pidlock.New(holder.Path(), pidlock.WithPID(os.Getpid()+1))
	if err != nil {
		t.Fatalf("pidlock.New: %v", err)
	}

	dctx := &daemon.Context{Umask: daemon.KeepUmask}
	dctx.SetPIDFile(contender)
	err = dctx.Open(context.Background())
	if !errors.Is(err, pidlock.ErrAlreadyLocked) {
		t.Fatalf("expected ErrAlreadyLocked, got %v", err)
	}
	if dctx.IsOpen() {
		t.Fatal("context should not be open")
	}
	if !holder.IAmLocking() {
		t.Fatal("holder lost its lock")
	}
}

func TestOpenWithoutLock(t *testing.T) {
	dctx := &daemon.Context{Umask: daemon.KeepUmask}
	if err := dctx.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := dctx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestOpenChangesDirectory(t *testing.T) {
	t.Chdir(t.TempDir())
	target := t.TempDir()
	lock := testLock(t)

	dctx := &daemon.Context{WorkingDir: target, Umask: daemon.KeepUmask}
	dctx.SetPIDFile(lock)
	if err := dctx.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer dctx.Close()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	want, _ := filepath.EvalSymlinks(target)
	got, _ := filepath.EvalSymlinks(wd)
	if got != want {
		t.Fatalf("working dir = %q, want %q", got, want)
	}
}

func TestOpenBadDirectoryReleasesLock(t *testing.T) {
	lock := testLock(t)
	dctx := &daemon.Context{WorkingDir: filepath.Join(t.TempDir(), "missing"), Umask: daemon.KeepUmask}
	dctx.SetPIDFile(lock)

	err := dctx.Open(context.Background())
	if err == nil || !strings.Contains(err.Error(), "chdir") {
		t.Fatalf("expected chdir error, got %v", err)
	}
	if lock.IsLocked() {
		t.Fatal("lock left behind after failed open")
	}
}

func TestOpenAppliesUmask(t *testing.T) {
	previous := unix.Umask(0o022)
	t.Cleanup(func() { unix.Umask(previous) })

	dctx := &daemon.Context{Umask: 0o077}
	if err := dctx.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer dctx.Close()

	current := unix.Umask(0o077)
	if current != 0o077 {
		t.Fatalf("umask = %o, want 077", current)
	}
}

func TestCloseLeavesForeignLock(t *testing.T) {
	lock := testLock(t)
	dctx := &daemon.Context{Umask: daemon.KeepUmask}
	dctx.SetPIDFile(lock)
	if err := dctx.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	// Another runner broke and re-took the lock while we ran.
	if err := lock.BreakLock(); err != nil {
		t.Fatalf("BreakLock: %v", err)
	}
	if err := os.WriteFile(lock.Path(), []byte("4242\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := dctx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !lock.IsLocked() {
		t.Fatal("close removed a lock it did not own")
	}
}
