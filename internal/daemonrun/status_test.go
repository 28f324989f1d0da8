package daemonrun_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"warden/internal/daemonrun"
	"warden/internal/testsupport"
)

func TestInspectStates(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T, path string)
		want  daemonrun.State
		alive bool
	}{
		{name: "unlocked", setup: func(*testing.T, string) {}, want: daemonrun.StateUnlocked},
		{name: "self", setup: func(t *testing.T, path string) {
			testsupport.WriteOwnerPID(t, path, os.Getpid())
		}, want: daemonrun.StateRunning, alive: true},
		{name: "stale", setup: func(t *testing.T, path string) {
			testsupport.WriteOwnerPID(t, path, testsupport.DeadPID(t))
		}, want: daemonrun.StateStale},
		{name: "unreadable", setup: func(t *testing.T, path string) {
			testsupport.WritePIDFile(t, path, "not a pid\n")
		}, want: daemonrun.StateUnreadable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			tc.setup(t, cfg.PIDFile.Path)

			status, err := daemonrun.Inspect(cfg, nil)
			if err != nil {
				t.Fatalf("Inspect returned error: %v", err)
			}
			if status.State != tc.want || status.Alive != tc.alive {
				t.Fatalf("got %+v, want state %s alive %v", status, tc.want, tc.alive)
			}
			if status.PIDFile != cfg.PIDFile.Path {
				t.Fatalf("expected pid file %q, got %q", cfg.PIDFile.Path, status.PIDFile)
			}
		})
	}
}

func TestInspectDoesNotModifyLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteOwnerPID(t, cfg.PIDFile.Path, testsupport.DeadPID(t))

	if _, err := daemonrun.Inspect(cfg, nil); err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if _, err := os.Stat(cfg.PIDFile.Path); err != nil {
		t.Fatalf("expected stale pid file to remain: %v", err)
	}
}

func TestInspectSelfFlag(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteOwnerPID(t, cfg.PIDFile.Path, os.Getpid())

	status, err := daemonrun.Inspect(cfg, nil)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if !status.Self || status.PID != os.Getpid() {
		t.Fatalf("expected self ownership, got %+v", status)
	}
}

func TestInspectDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutLock())

	status, err := daemonrun.Inspect(cfg, nil)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if status.State != daemonrun.StateDisabled {
		t.Fatalf("expected disabled, got %+v", status)
	}
}

func TestHistoryDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutJournal())

	if _, err := daemonrun.History(context.Background(), cfg, 5); !errors.Is(err, daemonrun.ErrJournalDisabled) {
		t.Fatalf("expected ErrJournalDisabled, got %v", err)
	}
}

func TestHistoryEmptyJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MustOpenJournal(t, cfg)

	events, err := daemonrun.History(context.Background(), cfg, 5)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %+v", events)
	}
}

func TestInspectIgnoresGuardFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WritePIDFile(t, cfg.PIDFile.Path+".lock", "")

	status, err := daemonrun.Inspect(cfg, nil)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if status.State != daemonrun.StateUnlocked {
		t.Fatalf("guard file alone must read as unlocked, got %+v", status)
	}
}
