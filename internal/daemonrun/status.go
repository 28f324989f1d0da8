package daemonrun

import (
	"context"
	"errors"
	"os"

	"warden/internal/config"
	"warden/internal/journal"
	"warden/internal/pidlock"
	"warden/internal/process"
)

// State summarizes a lock as observed from outside.
type State string

const (
	StateDisabled State = "disabled"
	StateUnlocked State = "unlocked"
	StateRunning  State = "running"
	StateStale    State = "stale"
	// StateUnreadable means the file exists but holds no valid PID.
	StateUnreadable State = "unreadable"
)

// Status is a read-only snapshot of the lock and its owner.
type Status struct {
	State   State  `json:"state"`
	PIDFile string `json:"pid_file,omitempty"`
	PID     int    `json:"pid,omitempty"`
	Alive   bool   `json:"alive"`
	// Self is true when the owner is the inspecting process.
	Self bool `json:"self,omitempty"`
}

// Inspect reads the lock without modifying it.
func Inspect(cfg *config.Config, signaler process.Signaler) (Status, error) {
	lock, err := NewLock(cfg)
	if err != nil {
		return Status{}, err
	}
	return InspectLock(lock, signaler), nil
}

// InspectLock classifies lock. A nil lock reports StateDisabled.
func InspectLock(lock *pidlock.Lock, signaler process.Signaler) Status {
	if lock == nil {
		return Status{State: StateDisabled}
	}
	status := Status{PIDFile: lock.Path()}
	if !lock.IsLocked() {
		status.State = StateUnlocked
		return status
	}
	pid, ok := lock.ReadOwner()
	if !ok {
		status.State = StateUnreadable
		return status
	}
	status.PID = pid
	status.Self = pid == os.Getpid()
	if (pidlock.Detector{Signaler: signaler}).IsStale(lock) {
		status.State = StateStale
		return status
	}
	status.State = StateRunning
	status.Alive = process.Exists(signaler, pid)
	return status
}

// ErrJournalDisabled is returned by History when journal.enabled is false.
var ErrJournalDisabled = errors.New("journal is disabled (journal.enabled = false)")

// History returns up to limit recent lifecycle events, newest first.
func History(ctx context.Context, cfg *config.Config, limit int) ([]journal.Event, error) {
	if cfg == nil || !cfg.Journal.Enabled {
		return nil, ErrJournalDisabled
	}
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Recent(ctx, limit)
}
