package pidlock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"warden/internal/pidfile"
)

// Forever makes Acquire wait until the lock is free.
const Forever time.Duration = math.MaxInt64

// DefaultPollInterval is how often Acquire re-tries a held lock.
const DefaultPollInterval = 100 * time.Millisecond

// ExclusiveFile is the create-if-absent primitive a Lock is built on.
// *pidfile.File satisfies it.
type ExclusiveFile interface {
	Path() string
	Exists() bool
	ReadPID() (int, bool)
	// WritePID must fail with an error wrapping os.ErrExist when the file
	// is already present.
	WritePID(pid int) error
	Remove() error
}

// Lock is a PID-file lock. It holds no ownership state of its own; every
// query goes to the file.
type Lock struct {
	file         ExclusiveFile
	pollInterval time.Duration
	pid          int
}

// Option customizes a Lock.
type Option func(*Lock)

// WithPollInterval sets the re-try granularity used while waiting.
func WithPollInterval(d time.Duration) Option {
	return func(l *Lock) {
		if d > 0 {
			l.pollInterval = d
		}
	}
}

// WithPID sets the PID this lock claims with and checks ownership against.
// It defaults to the current process.
func WithPID(pid int) Option {
	return func(l *Lock) {
		l.pid = pid
	}
}

// WithFile replaces the backing file.
func WithFile(f ExclusiveFile) Option {
	return func(l *Lock) {
		if f != nil {
			l.file = f
		}
	}
}

// New returns a lock for the PID file at path. The path must be absolute.
func New(path string, opts ...Option) (*Lock, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("%w: %q", ErrRelativePath, path)
	}
	l := &Lock{
		file:         pidfile.New(filepath.Clean(path)),
		pollInterval: DefaultPollInterval,
		pid:          os.Getpid(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the PID file location.
func (l *Lock) Path() string {
	return l.file.Path()
}

// PollInterval returns the re-try granularity.
func (l *Lock) PollInterval() time.Duration {
	return l.pollInterval
}

// PID returns the identity this lock claims with.
func (l *Lock) PID() int {
	return l.pid
}

// Acquire claims the lock.
//
// With timeout == Forever it waits until the current holder goes away. A
// positive timeout bounds the wait by a deadline fixed at call time. Zero or
// negative fails at once with KindAlreadyLocked when the lock is held.
// Cancelling ctx interrupts the wait.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) error {
	var deadline time.Time
	bounded := timeout != Forever
	if bounded && timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		err := l.file.WritePID(l.pid)
		if err == nil {
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return &Error{Kind: KindLockFailed, Path: l.Path(), Err: err}
		}

		wait := l.pollInterval
		if bounded {
			remaining := time.Until(deadline)
			if timeout <= 0 || remaining <= 0 {
				return l.alreadyLocked()
			}
			if remaining < wait {
				wait = remaining
			}
		}
		if err := sleepContext(ctx, wait); err != nil {
			return &Error{Kind: KindLockFailed, Path: l.Path(), Err: err}
		}
	}
}

func (l *Lock) alreadyLocked() error {
	owner, _ := l.file.ReadPID()
	return &Error{Kind: KindAlreadyLocked, Path: l.Path(), PID: owner}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if ctx == nil {
		time.Sleep(d)
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release removes the PID file if this process owns it.
func (l *Lock) Release() error {
	if !l.file.Exists() {
		return &Error{Kind: KindNotLocked, Path: l.Path()}
	}
	owner, ok := l.file.ReadPID()
	if !ok || owner != l.pid {
		return &Error{Kind: KindNotMyLock, Path: l.Path(), PID: owner}
	}
	if err := l.file.Remove(); err != nil {
		return &Error{Kind: KindUnlockFailed, Path: l.Path(), PID: owner, Err: err}
	}
	return nil
}

// BreakLock removes the PID file whoever owns it.
func (l *Lock) BreakLock() error {
	if err := l.file.Remove(); err != nil {
		return &Error{Kind: KindUnlockFailed, Path: l.Path(), Err: err}
	}
	return nil
}

// ReadOwner returns the recorded PID.
func (l *Lock) ReadOwner() (int, bool) {
	return l.file.ReadPID()
}

// IsLocked reports whether the PID file exists.
func (l *Lock) IsLocked() bool {
	return l.file.Exists()
}

// IAmLocking reports whether the PID file records this lock's PID.
func (l *Lock) IAmLocking() bool {
	if !l.file.Exists() {
		return false
	}
	owner, ok := l.file.ReadPID()
	return ok && owner == l.pid
}
