package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"warden/internal/logging"
	"warden/internal/pidlock"
)

// KeepUmask leaves the process umask unchanged on Open.
const KeepUmask = -1

// Context prepares the current process to run as the single daemon instance.
// The runner assigns the PID file lock with SetPIDFile before calling Open.
type Context struct {
	// WorkingDir is entered after the lock is held. Empty keeps the current directory.
	WorkingDir string
	// Umask is applied after the lock is held. KeepUmask disables it; zero clears the mask.
	Umask int
	// AcquireTimeout is handed to pidlock.Lock.Acquire.
	AcquireTimeout time.Duration
	Logger         *slog.Logger

	mu   sync.Mutex
	lock *pidlock.Lock
	open bool
}

// SetPIDFile assigns the lock acquired by Open. A nil lock disables locking.
func (c *Context) SetPIDFile(lock *pidlock.Lock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lock = lock
}

// PIDFile returns the assigned lock.
func (c *Context) PIDFile() *pidlock.Lock {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lock
}

// IsOpen reports whether Open has succeeded and Close has not run.
func (c *Context) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Open acquires the lock, then applies the umask and working directory.
// Lock errors are returned unwrapped so callers can inspect their kind.
func (c *Context) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		return nil
	}

	if c.lock != nil {
		if err := c.lock.Acquire(ctx, c.AcquireTimeout); err != nil {
			return err
		}
	}

	if c.Umask != KeepUmask {
		unix.Umask(c.Umask)
	}
	if dir := strings.TrimSpace(c.WorkingDir); dir != "" {
		if err := os.Chdir(dir); err != nil {
			c.releaseLocked()
			return fmt.Errorf("chdir %s: %w", dir, err)
		}
	}

	c.open = true
	c.logger().Debug("daemon context open",
		logging.String(logging.FieldEventType, "daemon_context_open"),
		logging.String(logging.FieldPIDFile, c.lockPath()),
		logging.String("working_dir", c.WorkingDir),
	)
	return nil
}

// Close releases the lock if this process still owns it.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil
	}
	c.open = false
	return c.releaseLocked()
}

func (c *Context) releaseLocked() error {
	if c.lock == nil || !c.lock.IAmLocking() {
		return nil
	}
	if err := c.lock.Release(); err != nil {
		return fmt.Errorf("release pid file: %w", err)
	}
	c.logger().Debug("pid file released",
		logging.String(logging.FieldEventType, "pid_file_released"),
		logging.String(logging.FieldPIDFile, c.lock.Path()),
	)
	return nil
}

func (c *Context) lockPath() string {
	if c.lock == nil {
		return ""
	}
	return c.lock.Path()
}

func (c *Context) logger() *slog.Logger {
	return logging.NewComponentLogger(c.Logger, "daemon")
}
