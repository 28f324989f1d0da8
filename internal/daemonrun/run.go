package daemonrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"warden/internal/config"
	"warden/internal/daemon"
	"warden/internal/journal"
	"warden/internal/logging"
	"warden/internal/pidlock"
	"warden/internal/preflight"
	"warden/internal/process"
	"warden/internal/runner"
	"warden/internal/supervise"
)

// Options configures one lifecycle invocation.
type Options struct {
	Action string
	// Messages receives user-facing lines such as "started with pid N".
	// Defaults to stderr so stdout stays free for the supervised program.
	Messages io.Writer
	Logger   *slog.Logger
	Signaler process.Signaler
	// App replaces the configured command. Tests use it to avoid exec.
	App runner.App
	// RunID defaults to a fresh UUID.
	RunID string
}

// Run builds the lock, daemon context, journal and application body from cfg
// and performs the requested action.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldRunID, runID))

	action, err := runner.ParseAction(opts.Action)
	if err != nil {
		return err
	}
	if action != runner.ActionStop && opts.App == nil {
		if err := checkReady(cfg, logger); err != nil {
			return err
		}
	}

	lock, err := NewLock(cfg)
	if err != nil {
		return err
	}

	timeout, err := cfg.AcquireTimeout()
	if err != nil {
		return err
	}
	umask, err := cfg.Umask()
	if err != nil {
		return err
	}
	if umask < 0 {
		umask = daemon.KeepUmask
	}

	app := opts.App
	if app == nil {
		app, err = newCommand(cfg, logger)
		if err != nil {
			return err
		}
	}

	messages := opts.Messages
	if messages == nil {
		messages = os.Stderr
	}

	var recorder runner.Recorder
	if store := openJournal(cfg, logger); store != nil {
		defer store.Close()
		recorder = store
	}

	r, err := runner.New(runner.Options{
		Action: opts.Action,
		Lock:   lock,
		Daemon: &daemon.Context{
			WorkingDir:     cfg.Daemon.WorkingDir,
			Umask:          umask,
			AcquireTimeout: timeout,
			Logger:         logger,
		},
		App:      app,
		Signaler: opts.Signaler,
		Messages: messages,
		Logger:   logger,
		Journal:  recorder,
		RunID:    runID,
	})
	if err != nil {
		return err
	}
	return r.Do(ctx)
}

// checkReady runs the required preflight checks. A restart that cannot start
// leaves the current instance running.
func checkReady(cfg *config.Config, logger *slog.Logger) error {
	failed := preflight.Failed(preflight.RunAll(cfg))
	if len(failed) == 0 {
		return nil
	}
	details := make([]string, 0, len(failed))
	for _, result := range failed {
		details = append(details, result.Name+": "+result.Detail)
	}
	logging.ErrorWithContext(logger, "preflight failed", "preflight_failed",
		logging.Int("failed_checks", len(failed)),
		logging.String(logging.FieldErrorHint, "run `warden status` to see every check"),
	)
	return &runner.Error{
		Kind:   runner.KindStartFailure,
		Path:   cfg.PIDFile.Path,
		Reason: "preflight: " + strings.Join(details, "; "),
	}
}

// NewLock returns the configured lock, or nil when pidfile.path is empty.
func NewLock(cfg *config.Config) (*pidlock.Lock, error) {
	if cfg == nil || !cfg.LockingEnabled() {
		return nil, nil
	}
	interval, err := cfg.PollInterval()
	if err != nil {
		return nil, err
	}
	return pidlock.New(cfg.PIDFile.Path, pidlock.WithPollInterval(interval))
}

func newCommand(cfg *config.Config, logger *slog.Logger) (*supervise.Command, error) {
	grace, err := cfg.StopGrace()
	if err != nil {
		return nil, err
	}
	return &supervise.Command{
		Argv:      cfg.Command.Argv,
		Dir:       cfg.Command.Dir,
		Env:       cfg.Command.Env,
		StopGrace: grace,
		Logger:    logger,
	}, nil
}

// openJournal returns nil when the journal is disabled or unusable. History
// is advisory, so failures only warn.
func openJournal(cfg *config.Config, logger *slog.Logger) *journal.Store {
	if !cfg.Journal.Enabled {
		return nil
	}
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		logging.WarnWithContext(logger, "journal unavailable", "journal_open_failed",
			logging.Error(err),
			logging.String("journal_path", cfg.Journal.Path),
			logging.String(logging.FieldErrorHint, "check journal.path permissions or set journal.enabled = false"),
			logging.String(logging.FieldImpact, "lifecycle history will not be recorded"),
		)
		return nil
	}
	return store
}
