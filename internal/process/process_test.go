package process

import (
	"errors"
	"os"
	"os/exec"
	"testing"

	"golang.org/x/sys/unix"
)

type stubSignaler struct {
	checkErr     error
	terminateErr error
	terminated   []int
}

func (s *stubSignaler) Check(int) error { return s.checkErr }

func (s *stubSignaler) Terminate(pid int) error {
	s.terminated = append(s.terminated, pid)
	return s.terminateErr
}

func TestExistsCurrentProcess(t *testing.T) {
	if !Exists(OS{}, os.Getpid()) {
		t.Fatal("expected current process to exist")
	}
}

func TestExistsReapedChild(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("true unavailable: %v", err)
	}
	// The child has been reaped; its PID is free unless the kernel reused it.
	if Exists(OS{}, cmd.Process.Pid) {
		t.Skip("pid reused before check")
	}
}

func TestExistsClassifiesCheckErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"alive", nil, true},
		{"no such process", unix.ESRCH, false},
		{"permission denied", unix.EPERM, true},
		{"other", errors.New("boom"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Exists(&stubSignaler{checkErr: tc.err}, 42); got != tc.want {
				t.Fatalf("Exists = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTerminateWrapsFailure(t *testing.T) {
	stub := &stubSignaler{terminateErr: unix.EPERM}
	err := Terminate(stub, 235)
	if err == nil {
		t.Fatal("expected error")
	}
	var sigErr *SignalError
	if !errors.As(err, &sigErr) {
		t.Fatalf("expected *SignalError, got %T", err)
	}
	if sigErr.PID != 235 || !errors.Is(err, unix.EPERM) {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stub.terminated) != 1 || stub.terminated[0] != 235 {
		t.Fatalf("unexpected terminate calls: %v", stub.terminated)
	}
}

func TestTerminateSuccess(t *testing.T) {
	stub := &stubSignaler{}
	if err := Terminate(stub, 8); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
}
