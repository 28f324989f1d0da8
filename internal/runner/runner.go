package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"warden/internal/journal"
	"warden/internal/logging"
	"warden/internal/pidlock"
	"warden/internal/process"
)

// DaemonContext performs daemonization. Open acquires the assigned lock.
type DaemonContext interface {
	SetPIDFile(lock *pidlock.Lock)
	Open(ctx context.Context) error
	Close() error
}

// App is the body run once the daemon context is open.
type App interface {
	Run(ctx context.Context) error
}

// AppFunc adapts a function to App.
type AppFunc func(ctx context.Context) error

func (f AppFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Recorder persists lifecycle events. *journal.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, event journal.Event) (journal.Event, error)
}

// Options configures a Runner.
type Options struct {
	Action string
	// Lock is nil when locking is disabled.
	Lock     *pidlock.Lock
	Daemon   DaemonContext
	App      App
	Signaler process.Signaler
	// Messages receives the "started with pid" line.
	Messages io.Writer
	Logger   *slog.Logger
	Journal  Recorder
	RunID    string
}

// Runner executes one lifecycle action against a PID-file lock.
type Runner struct {
	action   Action
	lock     *pidlock.Lock
	daemon   DaemonContext
	app      App
	signaler process.Signaler
	detector pidlock.Detector
	messages io.Writer
	logger   *slog.Logger
	journal  Recorder
	runID    string
}

// New validates opts and assigns the lock to the daemon context.
func New(opts Options) (*Runner, error) {
	action, err := ParseAction(opts.Action)
	if err != nil {
		return nil, err
	}
	if opts.Daemon == nil {
		return nil, errors.New("runner requires a daemon context")
	}
	if opts.App == nil {
		return nil, errors.New("runner requires an application body")
	}
	signaler := opts.Signaler
	if signaler == nil {
		signaler = process.OS{}
	}
	messages := opts.Messages
	if messages == nil {
		messages = io.Discard
	}

	r := &Runner{
		action:   action,
		lock:     opts.Lock,
		daemon:   opts.Daemon,
		app:      opts.App,
		signaler: signaler,
		detector: pidlock.Detector{Signaler: signaler},
		messages: messages,
		logger:   logging.NewComponentLogger(opts.Logger, "runner"),
		journal:  opts.Journal,
		runID:    opts.RunID,
	}
	if r.runID != "" {
		r.logger = r.logger.With(logging.String(logging.FieldRunID, r.runID))
	}
	r.logger = r.logger.With(logging.String(logging.FieldAction, string(action)))
	r.daemon.SetPIDFile(r.lock)
	return r, nil
}

// Action returns the configured action.
func (r *Runner) Action() Action {
	return r.action
}

// Do performs the configured action. For start and restart it returns only
// after the application body exits.
func (r *Runner) Do(ctx context.Context) error {
	switch r.action {
	case ActionStart:
		return r.start(ctx)
	case ActionStop:
		return r.stop(ctx)
	case ActionRestart:
		return r.restart(ctx)
	default:
		return &Error{Kind: KindInvalidAction, Reason: fmt.Sprintf("unknown action %q", r.action)}
	}
}

func (r *Runner) start(ctx context.Context) error {
	if r.lock != nil {
		pid, broken, err := r.detector.BreakIfStale(r.lock)
		if err != nil {
			r.record(ctx, journal.OutcomeStartFailed, 0, err.Error())
			return &Error{Kind: KindStartFailure, Path: r.lock.Path(), Reason: "clear stale lock", Err: err}
		}
		if broken {
			r.logStaleBroken(ctx, pid)
		}
	}

	if err := r.daemon.Open(ctx); err != nil {
		startErr := &Error{Kind: KindStartFailure, Path: r.lockPath(), Err: err}
		if errors.Is(err, pidlock.ErrAlreadyLocked) {
			// The lock error already names the path and owner.
			startErr.PID = pidFromLockError(err)
		} else {
			startErr.Reason = "open daemon context"
		}
		r.record(ctx, journal.OutcomeStartFailed, startErr.PID, startErr.Error())
		return startErr
	}

	pid := os.Getpid()
	fmt.Fprintf(r.messages, "started with pid %d\n", pid)
	r.logger.Info("daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.Int(logging.FieldPID, pid),
		logging.String(logging.FieldPIDFile, r.lockPath()),
	)
	r.record(ctx, journal.OutcomeStarted, pid, "")

	runErr := r.app.Run(ctx)
	if closeErr := r.daemon.Close(); closeErr != nil {
		logging.WarnWithContext(r.logger, "daemon context close failed", "daemon_close_failed",
			logging.Error(closeErr),
			logging.String(logging.FieldPIDFile, r.lockPath()),
			logging.String(logging.FieldErrorHint, "remove the PID file manually if no instance is running"),
			logging.String(logging.FieldImpact, "PID file may remain after exit"),
		)
		if runErr == nil {
			return fmt.Errorf("close daemon context: %w", closeErr)
		}
	}
	return runErr
}

func (r *Runner) stop(ctx context.Context) error {
	if r.lock == nil {
		return &Error{Kind: KindStopFailure, Reason: "no PID file configured"}
	}
	path := r.lock.Path()
	if !r.lock.IsLocked() {
		r.record(ctx, journal.OutcomeStopFailed, 0, "not locked")
		return &Error{Kind: KindStopFailure, Path: path, Reason: fmt.Sprintf("PID file %q not locked", path)}
	}

	stalePID, broken, err := r.detector.BreakIfStale(r.lock)
	if err != nil {
		r.record(ctx, journal.OutcomeStopFailed, 0, err.Error())
		return &Error{Kind: KindStopFailure, Path: path, Reason: "clear stale lock", Err: err}
	}
	if broken {
		r.logStaleBroken(ctx, stalePID)
		return nil
	}

	pid, ok := r.lock.ReadOwner()
	if !ok {
		// Unparsable content cannot name a live owner.
		if err := r.lock.BreakLock(); err != nil {
			r.record(ctx, journal.OutcomeStopFailed, 0, err.Error())
			return &Error{Kind: KindStopFailure, Path: path, Reason: "break unreadable lock", Err: err}
		}
		r.logger.Info("removed unreadable pid file",
			logging.String(logging.FieldEventType, "pid_file_unreadable_broken"),
			logging.String(logging.FieldPIDFile, path),
		)
		r.record(ctx, journal.OutcomeStaleBroken, 0, "unreadable pid file")
		return nil
	}
	if pid == 0 {
		r.record(ctx, journal.OutcomeStopFailed, 0, "pid 0")
		return &Error{Kind: KindStopFailure, Path: path, Reason: "refusing to signal pid 0"}
	}

	if err := process.Terminate(r.signaler, pid); err != nil {
		r.record(ctx, journal.OutcomeStopFailed, pid, err.Error())
		return &Error{Kind: KindStopFailure, Path: path, PID: pid, Reason: fmt.Sprintf("failed to terminate %d", pid), Err: err}
	}
	r.logger.Info("termination requested",
		logging.String(logging.FieldEventType, "daemon_terminate_sent"),
		logging.Int(logging.FieldPID, pid),
		logging.String(logging.FieldPIDFile, path),
	)
	r.record(ctx, journal.OutcomeTerminated, pid, "")
	return nil
}

func (r *Runner) restart(ctx context.Context) error {
	if err := r.stop(ctx); err != nil {
		return err
	}
	return r.start(ctx)
}

func (r *Runner) logStaleBroken(ctx context.Context, pid int) {
	r.logger.Info("removed stale pid file",
		logging.String(logging.FieldEventType, "stale_lock_broken"),
		logging.Int(logging.FieldPID, pid),
		logging.String(logging.FieldPIDFile, r.lockPath()),
	)
	r.record(ctx, journal.OutcomeStaleBroken, pid, "owner process not running")
}

func (r *Runner) record(ctx context.Context, outcome journal.Outcome, pid int, detail string) {
	if r.journal == nil {
		return
	}
	event := journal.Event{
		RunID:   r.runID,
		Action:  string(r.action),
		Outcome: outcome,
		PID:     pid,
		PIDFile: r.lockPath(),
		Detail:  detail,
	}
	if _, err := r.journal.Record(ctx, event); err != nil {
		logging.WarnWithContext(r.logger, "journal write failed", "journal_write_failed",
			logging.Error(err),
			logging.String("outcome", string(outcome)),
			logging.String(logging.FieldErrorHint, "check journal.path permissions"),
			logging.String(logging.FieldImpact, "lifecycle history incomplete"),
		)
	}
}

func (r *Runner) lockPath() string {
	if r.lock == nil {
		return ""
	}
	return r.lock.Path()
}

func pidFromLockError(err error) int {
	var lockErr *pidlock.Error
	if errors.As(err, &lockErr) {
		return lockErr.PID
	}
	return 0
}
