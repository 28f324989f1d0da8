package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome names what an action achieved.
type Outcome string

const (
	OutcomeStarted     Outcome = "started"
	OutcomeStartFailed Outcome = "start_failed"
	OutcomeStaleBroken Outcome = "stale_broken"
	OutcomeTerminated  Outcome = "terminated"
	OutcomeStopFailed  Outcome = "stop_failed"
)

// Event is one journal row.
type Event struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Action    string    `json:"action"`
	Outcome   Outcome   `json:"outcome"`
	PID       int       `json:"pid"`
	PIDFile   string    `json:"pid_file"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultLimit bounds Recent when no limit is given.
const DefaultLimit = 20

const eventColumns = "id, run_id, action, outcome, pid, pid_file, detail, created_at"

// Store persists events in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the journal at path and applies migrations.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts event and returns it with ID and CreatedAt filled in.
func (s *Store) Record(ctx context.Context, event Event) (Event, error) {
	if strings.TrimSpace(event.Action) == "" {
		return Event{}, errors.New("event action is required")
	}
	if event.Outcome == "" {
		return Event{}, errors.New("event outcome is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO lifecycle_events (run_id, action, outcome, pid, pid_file, detail, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.RunID,
		event.Action,
		string(event.Outcome),
		event.PID,
		event.PIDFile,
		nullableString(event.Detail),
		event.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Event{}, fmt.Errorf("last insert id: %w", err)
	}
	event.ID = id
	return event, nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+eventColumns+` FROM lifecycle_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEvent(scanner interface{ Scan(dest ...any) error }) (Event, error) {
	var (
		event      Event
		outcome    string
		detail     sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(
		&event.ID,
		&event.RunID,
		&event.Action,
		&outcome,
		&event.PID,
		&event.PIDFile,
		&detail,
		&createdRaw,
	); err != nil {
		return Event{}, fmt.Errorf("scan event: %w", err)
	}
	event.Outcome = Outcome(outcome)
	if detail.Valid {
		event.Detail = detail.String
	}
	created, err := time.Parse(time.RFC3339Nano, createdRaw)
	if err != nil {
		return Event{}, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
	}
	event.CreatedAt = created
	return event, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
