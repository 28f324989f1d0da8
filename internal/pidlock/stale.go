package pidlock

import (
	"fmt"

	"github.com/gofrs/flock"

	"warden/internal/process"
)

// guardSuffix names the sidecar flock file next to the PID file.
const guardSuffix = ".lock"

// Detector decides whether a lock's recorded owner is dead.
type Detector struct {
	// Signaler defaults to process.OS.
	Signaler process.Signaler
}

func (d Detector) signaler() process.Signaler {
	if d.Signaler == nil {
		return process.OS{}
	}
	return d.Signaler
}

// IsStale reports whether l records a PID with no live process behind it.
// An unlocked or unreadable lock is not stale.
func (d Detector) IsStale(l *Lock) bool {
	pid, ok := l.ReadOwner()
	if !ok {
		return false
	}
	return !process.Exists(d.signaler(), pid)
}

// BreakIfStale removes l's PID file when its owner is dead and returns the
// dead owner's PID. The decision is re-made while holding the guard flock.
func (d Detector) BreakIfStale(l *Lock) (pid int, broken bool, err error) {
	if !d.IsStale(l) {
		return 0, false, nil
	}

	guard := flock.New(GuardPath(l))
	if err := guard.Lock(); err != nil {
		return 0, false, fmt.Errorf("lock guard %s: %w", guard.Path(), err)
	}
	defer func() {
		_ = guard.Unlock()
	}()

	pid, ok := l.ReadOwner()
	if !ok || process.Exists(d.signaler(), pid) {
		return 0, false, nil
	}
	if err := l.BreakLock(); err != nil {
		return pid, false, err
	}
	return pid, true, nil
}

// GuardPath returns the sidecar flock path for l.
//
// The guard file is created on first use and never removed. Unlinking it
// while another process holds or waits on the flock would let a third process
// lock a fresh inode at the same path, so two breakers could both proceed.
// It carries no ownership data; only the PID file says who owns the lock.
func GuardPath(l *Lock) string {
	return l.Path() + guardSuffix
}
