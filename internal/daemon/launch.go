package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"warden/internal/pidlock"
	"warden/internal/process"
)

// DetachedEnv marks a process started by Launch.
const DetachedEnv = "WARDEN_DETACHED"

// LaunchOptions controls detached process launch.
type LaunchOptions struct {
	// Executable defaults to the running binary.
	Executable string
	Args       []string
	// LogPath receives the child's stdout and stderr. Empty discards them.
	LogPath string
	Env     []string
}

// Detached reports whether this process was started by Launch.
func Detached() bool {
	return os.Getenv(DetachedEnv) == "1"
}

// Child is a process started by Launch. It is reaped in the background so an
// early exit is observable through Done instead of lingering as a zombie.
type Child struct {
	PID  int
	done chan struct{}
	err  error
}

// Done is closed once the child has exited and been reaped.
func (c *Child) Done() <-chan struct{} {
	return c.done
}

// Err returns the child's exit error. It is only meaningful after Done.
func (c *Child) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Launch re-executes the binary in a new session with stdin from /dev/null.
func Launch(opts LaunchOptions) (*Child, error) {
	executable := strings.TrimSpace(opts.Executable)
	if executable == "" {
		resolved, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
		executable = resolved
	}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	output := devNull
	if logPath := strings.TrimSpace(opts.LogPath); logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", logPath, err)
		}
		defer logFile.Close()
		output = logFile
	}

	proc := exec.Command(executable, opts.Args...)
	proc.Stdin = devNull
	proc.Stdout = output
	proc.Stderr = output
	proc.Env = append(append(os.Environ(), opts.Env...), DetachedEnv+"=1")
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return nil, fmt.Errorf("launch daemon: %w", err)
	}
	child := &Child{PID: proc.Process.Pid, done: make(chan struct{})}
	go func() {
		child.err = proc.Wait()
		close(child.done)
	}()
	return child, nil
}

// ErrChildExited means the launched process died before claiming the lock.
var ErrChildExited = errors.New("daemon exited before acquiring its pid file")

// WaitForOwner polls until lock records pid, the child exits, or timeout
// passes. exited is closed when the child has been reaped; it may be nil, in
// which case only signaler is consulted.
func WaitForOwner(ctx context.Context, lock *pidlock.Lock, signaler process.Signaler, pid int, exited <-chan struct{}, timeout time.Duration) error {
	if lock == nil {
		return nil
	}
	interval := lock.PollInterval()
	deadline := time.Now().Add(timeout)
	for {
		if owner, ok := lock.ReadOwner(); ok && owner == pid {
			return nil
		}
		if !process.Exists(signaler, pid) {
			return fmt.Errorf("pid %d: %w", pid, ErrChildExited)
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("timeout waiting for pid %d to lock %s", pid, lock.Path())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-exited:
			if owner, ok := lock.ReadOwner(); ok && owner == pid {
				return nil
			}
			return fmt.Errorf("pid %d: %w", pid, ErrChildExited)
		case <-time.After(interval):
		}
	}
}
