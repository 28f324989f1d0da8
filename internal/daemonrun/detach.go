package daemonrun

import (
	"context"
	"fmt"
	"time"

	"warden/internal/config"
	"warden/internal/daemon"
	"warden/internal/pidlock"
	"warden/internal/process"
)

// detachSettle is added to the acquire timeout while waiting for a detached
// child to claim the lock.
const detachSettle = 5 * time.Second

// foreverDetachWait bounds the parent's wait when the child may wait forever.
const foreverDetachWait = 30 * time.Second

// DetachOptions configures Detach.
type DetachOptions struct {
	// Args are passed to the re-executed binary.
	Args       []string
	Executable string
	Signaler   process.Signaler
}

// Detach re-executes the binary in the background and waits until the child
// owns the lock. With locking disabled it returns once the child is started.
func Detach(ctx context.Context, cfg *config.Config, opts DetachOptions) (int, error) {
	if cfg == nil {
		return 0, fmt.Errorf("config is required")
	}
	lock, err := NewLock(cfg)
	if err != nil {
		return 0, err
	}
	wait, err := detachWait(cfg)
	if err != nil {
		return 0, err
	}

	child, err := daemon.Launch(daemon.LaunchOptions{
		Executable: opts.Executable,
		Args:       opts.Args,
		LogPath:    cfg.Daemon.LogFile,
	})
	if err != nil {
		return 0, err
	}
	if err := daemon.WaitForOwner(ctx, lock, opts.Signaler, child.PID, child.Done(), wait); err != nil {
		if exitErr := child.Err(); exitErr != nil {
			return child.PID, fmt.Errorf("%w: %v", err, exitErr)
		}
		return child.PID, err
	}
	return child.PID, nil
}

func detachWait(cfg *config.Config) (time.Duration, error) {
	timeout, err := cfg.AcquireTimeout()
	if err != nil {
		return 0, err
	}
	switch {
	case timeout == pidlock.Forever:
		return foreverDetachWait, nil
	case timeout <= 0:
		return detachSettle, nil
	default:
		return timeout + detachSettle, nil
	}
}
