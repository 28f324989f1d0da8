package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"warden/internal/journal"
)

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.Open(filepath.Join(t.TempDir(), "state", "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	outcomes := []journal.Outcome{journal.OutcomeStaleBroken, journal.OutcomeStarted, journal.OutcomeTerminated}
	for i, outcome := range outcomes {
		ev, err := store.Record(ctx, journal.Event{
			RunID:   fmt.Sprintf("run-%d", i),
			Action:  "start",
			Outcome: outcome,
			PID:     100 + i,
			PIDFile: "/run/x.pid",
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if ev.ID == 0 || ev.CreatedAt.IsZero() {
			t.Fatalf("expected ID and timestamp, got %#v", ev)
		}
	}

	events, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Outcome != journal.OutcomeTerminated || events[1].Outcome != journal.OutcomeStarted {
		t.Fatalf("expected newest first, got %v then %v", events[0].Outcome, events[1].Outcome)
	}
	if events[0].PID != 102 || events[0].RunID != "run-2" || events[0].PIDFile != "/run/x.pid" {
		t.Fatalf("unexpected event: %#v", events[0])
	}
}

func TestRecordKeepsDetailAndTime(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.Record(ctx, journal.Event{
		Action:    "stop",
		Outcome:   journal.OutcomeStopFailed,
		Detail:    "operation not permitted",
		CreatedAt: at,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	events, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Detail != "operation not permitted" || !events[0].CreatedAt.Equal(at) {
		t.Fatalf("unexpected event: %#v", events[0])
	}
}

func TestRecordRequiresActionAndOutcome(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if _, err := store.Record(ctx, journal.Event{Outcome: journal.OutcomeStarted}); err == nil {
		t.Fatal("expected error for missing action")
	}
	if _, err := store.Record(ctx, journal.Event{Action: "start"}); err == nil {
		t.Fatal("expected error for missing outcome")
	}
}

func TestOpenIsReentrant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	first, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := first.Record(context.Background(), journal.Event{Action: "start", Outcome: journal.OutcomeStarted}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := journal.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()
	events, err := second.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected persisted event, got %d", len(events))
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := journal.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("INSERT INTO journal_schema (version, applied_at) VALUES ('9999_future', '2030-01-01T00:00:00Z')"); err != nil {
		t.Fatalf("insert future version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	if _, err := journal.Open(path); !errors.Is(err, journal.ErrNewerSchema) {
		t.Fatalf("expected ErrNewerSchema, got %v", err)
	}
}
