package pidlock_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"warden/internal/pidlock"
)

func newLock(t *testing.T, opts ...pidlock.Option) *pidlock.Lock {
	t.Helper()
	path := filepath.Join(t.TempDir(), "x.pid")
	opts = append([]pidlock.Option{pidlock.WithPollInterval(5 * time.Millisecond)}, opts...)
	lock, err := pidlock.New(path, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return lock
}

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readRaw(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestNewRejectsBadPaths(t *testing.T) {
	if _, err := pidlock.New(""); !errors.Is(err, pidlock.ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got %v", err)
	}
	if _, err := pidlock.New("run/x.pid"); !errors.Is(err, pidlock.ErrRelativePath) {
		t.Fatalf("expected ErrRelativePath, got %v", err)
	}
}

func TestNewDefaults(t *testing.T) {
	lock, err := pidlock.New("/tmp/../tmp/x.pid")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if lock.Path() != "/tmp/x.pid" {
		t.Fatalf("path = %q", lock.Path())
	}
	if lock.PollInterval() != pidlock.DefaultPollInterval {
		t.Fatalf("poll interval = %v", lock.PollInterval())
	}
	if lock.PID() != os.Getpid() {
		t.Fatalf("pid = %d, want %d", lock.PID(), os.Getpid())
	}
}

func TestAcquireWritesOwnPID(t *testing.T) {
	lock := newLock(t, pidlock.WithPID(235))
	if err := lock.Acquire(context.Background(), 0); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if got := readRaw(t, lock.Path()); got != "235\n" {
		t.Fatalf("pid file = %q", got)
	}
	if !lock.IsLocked() || !lock.IAmLocking() {
		t.Fatal("expected lock to be held by us")
	}
}

func TestAcquireZeroTimeoutFailsFastWithoutWriting(t *testing.T) {
	lock := newLock(t, pidlock.WithPID(100))
	writeRaw(t, lock.Path(), "4242\n")

	for _, timeout := range []time.Duration{0, -time.Second} {
		start := time.Now()
		err := lock.Acquire(context.Background(), timeout)
		if !errors.Is(err, pidlock.ErrAlreadyLocked) {
			t.Fatalf("timeout %v: expected ErrAlreadyLocked, got %v", timeout, err)
		}
		if time.Since(start) > time.Second {
			t.Fatalf("timeout %v: acquire waited", timeout)
		}
		var lockErr *pidlock.Error
		if !errors.As(err, &lockErr) || lockErr.PID != 4242 {
			t.Fatalf("expected owner pid in error, got %#v", err)
		}
	}
	if got := readRaw(t, lock.Path()); got != "4242\n" {
		t.Fatalf("pid file modified: %q", got)
	}
}

func TestAcquireTimesOut(t *testing.T) {
	lock := newLock(t)
	writeRaw(t, lock.Path(), "4242\n")

	start := time.Now()
	err := lock.Acquire(context.Background(), 40*time.Millisecond)
	if pidlock.KindOf(err) != pidlock.KindAlreadyLocked {
		t.Fatalf("expected already locked, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("returned before deadline: %v", elapsed)
	}
}

func TestAcquireSucceedsWhenReleasedBeforeDeadline(t *testing.T) {
	lock := newLock(t, pidlock.WithPID(77))
	writeRaw(t, lock.Path(), "4242\n")

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = os.Remove(lock.Path())
	}()

	if err := lock.Acquire(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if got := readRaw(t, lock.Path()); got != "77\n" {
		t.Fatalf("pid file = %q", got)
	}
}

func TestAcquireForeverWaitsForRelease(t *testing.T) {
	lock := newLock(t)
	writeRaw(t, lock.Path(), "4242\n")

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = os.Remove(lock.Path())
	}()

	if err := lock.Acquire(context.Background(), pidlock.Forever); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !lock.IAmLocking() {
		t.Fatal("expected to own lock")
	}
}

func TestAcquireHonoursCancellation(t *testing.T) {
	lock := newLock(t)
	writeRaw(t, lock.Path(), "4242\n")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := lock.Acquire(ctx, pidlock.Forever)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if pidlock.KindOf(err) != pidlock.KindLockFailed {
		t.Fatalf("kind = %v", pidlock.KindOf(err))
	}
}

func TestAcquireWriteFailureIsLockFailed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "x.pid")
	lock, err := pidlock.New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	err = lock.Acquire(context.Background(), 0)
	if !errors.Is(err, pidlock.ErrLockFailed) {
		t.Fatalf("expected ErrLockFailed, got %v", err)
	}
	if errors.Is(err, pidlock.ErrAlreadyLocked) {
		t.Fatal("write failure must not read as contention")
	}
}

type racingFile struct {
	path   string
	writes int
}

func (r *racingFile) Path() string         { return r.path }
func (r *racingFile) Exists() bool         { return true }
func (r *racingFile) ReadPID() (int, bool) { return 9, true }
func (r *racingFile) Remove() error        { return nil }

func (r *racingFile) WritePID(int) error {
	r.writes++
	return &os.PathError{Op: "open", Path: r.path, Err: os.ErrExist}
}

func TestAcquireUsesExclusiveFileDependency(t *testing.T) {
	file := &racingFile{path: "/run/x.pid"}
	lock, err := pidlock.New(file.path, pidlock.WithFile(file), pidlock.WithPollInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	err = lock.Acquire(context.Background(), 15*time.Millisecond)
	if !errors.Is(err, pidlock.ErrAlreadyLocked) {
		t.Fatalf("expected ErrAlreadyLocked, got %v", err)
	}
	if file.writes < 2 {
		t.Fatalf("expected repeated claim attempts, got %d", file.writes)
	}
}

func TestReleaseOwnLock(t *testing.T) {
	lock := newLock(t, pidlock.WithPID(235))
	writeRaw(t, lock.Path(), "235\n")

	if !lock.IsLocked() || !lock.IAmLocking() {
		t.Fatal("expected lock held by us")
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if lock.IsLocked() {
		t.Fatal("expected pid file removed")
	}
}

func TestReleaseNotLocked(t *testing.T) {
	lock := newLock(t)
	err := lock.Release()
	if !errors.Is(err, pidlock.ErrNotLocked) {
		t.Fatalf("expected ErrNotLocked, got %v", err)
	}
}

func TestReleaseNotMyLockLeavesFile(t *testing.T) {
	lock := newLock(t, pidlock.WithPID(235))
	writeRaw(t, lock.Path(), "8642\n")

	err := lock.Release()
	if !errors.Is(err, pidlock.ErrNotMyLock) {
		t.Fatalf("expected ErrNotMyLock, got %v", err)
	}
	if !strings.Contains(err.Error(), "8642") {
		t.Fatalf("expected owner in message: %v", err)
	}
	if got := readRaw(t, lock.Path()); got != "8642\n" {
		t.Fatalf("pid file modified: %q", got)
	}
	if lock.IAmLocking() {
		t.Fatal("IAmLocking should be false")
	}
}

func TestReleaseGarbageIsNotMyLock(t *testing.T) {
	lock := newLock(t)
	writeRaw(t, lock.Path(), "not a pid")
	if err := lock.Release(); pidlock.KindOf(err) != pidlock.KindNotMyLock {
		t.Fatalf("expected not my lock, got %v", err)
	}
}

func TestBreakLock(t *testing.T) {
	lock := newLock(t)
	writeRaw(t, lock.Path(), "8642\n")

	if err := lock.BreakLock(); err != nil {
		t.Fatalf("BreakLock failed: %v", err)
	}
	if lock.IsLocked() {
		t.Fatal("expected file removed")
	}
	if err := lock.BreakLock(); err != nil {
		t.Fatalf("second BreakLock failed: %v", err)
	}
}

func TestReadOwner(t *testing.T) {
	lock := newLock(t)
	if _, ok := lock.ReadOwner(); ok {
		t.Fatal("expected no owner for missing file")
	}
	writeRaw(t, lock.Path(), "  8642 \n")
	pid, ok := lock.ReadOwner()
	if !ok || pid != 8642 {
		t.Fatalf("ReadOwner = %d, %v", pid, ok)
	}
}

func TestKindOf(t *testing.T) {
	if pidlock.KindOf(errors.New("plain")) != pidlock.KindUnknown {
		t.Fatal("expected unknown kind for plain error")
	}
	wrapped := errors.Join(errors.New("context"), &pidlock.Error{Kind: pidlock.KindNotLocked, Path: "/x"})
	if pidlock.KindOf(wrapped) != pidlock.KindNotLocked {
		t.Fatal("expected kind through wrapping")
	}
	if !errors.Is(wrapped, pidlock.ErrNotLocked) || errors.Is(wrapped, pidlock.ErrNotMyLock) {
		t.Fatal("sentinel matching by kind broken")
	}
}
