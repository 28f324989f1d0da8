// Package process checks and signals local processes by PID.
package process

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Signaler sends signals to processes. Check delivers the null signal and only
// checks whether pid is addressable; Terminate requests a graceful exit.
type Signaler interface {
	Check(pid int) error
	Terminate(pid int) error
}

// OS signals real processes.
type OS struct{}

// Check sends signal 0 to pid.
func (OS) Check(pid int) error {
	return unix.Kill(pid, 0)
}

// Terminate sends SIGTERM to pid.
func (OS) Terminate(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

// IsGone reports whether err means the target process does not exist.
func IsGone(err error) bool {
	return errors.Is(err, unix.ESRCH)
}

// Exists reports whether pid refers to a process. Only "no such process"
// counts as absence; a permission failure means something is there.
func Exists(p Signaler, pid int) bool {
	if p == nil {
		p = OS{}
	}
	return !IsGone(p.Check(pid))
}

// SignalError describes a failed signal delivery.
type SignalError struct {
	PID    int
	Signal string
	Err    error
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("send %s to pid %d: %v", e.Signal, e.PID, e.Err)
}

func (e *SignalError) Unwrap() error {
	return e.Err
}

// Terminate asks pid to exit and wraps any delivery failure.
func Terminate(p Signaler, pid int) error {
	if p == nil {
		p = OS{}
	}
	if err := p.Terminate(pid); err != nil {
		return &SignalError{PID: pid, Signal: "SIGTERM", Err: err}
	}
	return nil
}
