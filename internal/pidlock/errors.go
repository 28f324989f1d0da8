package pidlock

import (
	"errors"
	"fmt"
)

// Kind classifies lock failures.
type Kind int

const (
	KindUnknown Kind = iota
	// KindAlreadyLocked means another holder owns the lock.
	KindAlreadyLocked
	// KindLockFailed means the claim failed for a reason other than contention.
	KindLockFailed
	// KindNotLocked means release was attempted with no lock held.
	KindNotLocked
	// KindNotMyLock means release was attempted by a process that is not the owner.
	KindNotMyLock
	// KindUnlockFailed means removing the PID file failed.
	KindUnlockFailed
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyLocked:
		return "already_locked"
	case KindLockFailed:
		return "lock_failed"
	case KindNotLocked:
		return "not_locked"
	case KindNotMyLock:
		return "not_my_lock"
	case KindUnlockFailed:
		return "unlock_failed"
	default:
		return "unknown"
	}
}

// Error is returned by Lock operations.
type Error struct {
	Kind Kind
	Path string
	// PID is the recorded owner when one was observed.
	PID int
	Err error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindAlreadyLocked:
		msg = fmt.Sprintf("pid file %q already locked", e.Path)
		if e.PID > 0 {
			msg += fmt.Sprintf(" by pid %d", e.PID)
		}
	case KindLockFailed:
		msg = fmt.Sprintf("failed to lock pid file %q", e.Path)
	case KindNotLocked:
		msg = fmt.Sprintf("pid file %q not locked", e.Path)
	case KindNotMyLock:
		msg = fmt.Sprintf("pid file %q locked by another process", e.Path)
		if e.PID > 0 {
			msg = fmt.Sprintf("pid file %q locked by pid %d", e.Path, e.PID)
		}
	case KindUnlockFailed:
		msg = fmt.Sprintf("failed to unlock pid file %q", e.Path)
	default:
		msg = fmt.Sprintf("pid file %q", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of path.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrAlreadyLocked = &Error{Kind: KindAlreadyLocked}
	ErrLockFailed    = &Error{Kind: KindLockFailed}
	ErrNotLocked     = &Error{Kind: KindNotLocked}
	ErrNotMyLock     = &Error{Kind: KindNotMyLock}
	ErrUnlockFailed  = &Error{Kind: KindUnlockFailed}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var lockErr *Error
	if errors.As(err, &lockErr) {
		return lockErr.Kind
	}
	return KindUnknown
}

// ErrEmptyPath and ErrRelativePath reject unusable lock paths at construction.
var (
	ErrEmptyPath    = errors.New("pid file path is empty")
	ErrRelativePath = errors.New("pid file path is not absolute")
)
