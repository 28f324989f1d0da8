package supervise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"warden/internal/logging"
)

// DefaultStopGrace is how long a child gets between SIGTERM and SIGKILL.
const DefaultStopGrace = 10 * time.Second

// Command runs an external program as the daemon body.
type Command struct {
	// Argv is the program and its arguments. Empty runs an idle body.
	Argv []string
	Dir  string
	// Env is appended to the inherited environment.
	Env       []string
	StopGrace time.Duration
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
}

var commandContext = exec.CommandContext

// Run starts the program and waits for it. SIGINT, SIGTERM or cancelling ctx
// forwards SIGTERM to the child and kills it after StopGrace. A requested
// shutdown returns nil whatever the child's exit status.
func (c *Command) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.NewComponentLogger(c.Logger, "supervise")
	if len(c.Argv) == 0 || strings.TrimSpace(c.Argv[0]) == "" {
		logger.Info("no command configured; idling until stopped",
			logging.String(logging.FieldEventType, "idle_body_started"),
		)
		<-ctx.Done()
		return nil
	}

	cmd := commandContext(ctx, c.Argv[0], c.Argv[1:]...) //nolint:gosec
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdout = writerOr(c.Stdout, os.Stdout)
	cmd.Stderr = writerOr(c.Stderr, os.Stderr)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = c.grace()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}
	logger.Info("command started",
		logging.String(logging.FieldEventType, "command_started"),
		logging.String("command", strings.Join(c.Argv, " ")),
		logging.Int("child_pid", cmd.Process.Pid),
	)

	err := cmd.Wait()
	if ctx.Err() != nil {
		logger.Info("command stopped",
			logging.String(logging.FieldEventType, "command_stopped"),
			logging.Int("child_pid", cmd.Process.Pid),
		)
		return nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("command %s exited with status %d: %w", c.Argv[0], exitErr.ExitCode(), err)
		}
		return fmt.Errorf("wait command: %w", err)
	}
	logger.Info("command exited",
		logging.String(logging.FieldEventType, "command_exited"),
		logging.Int("child_pid", cmd.Process.Pid),
	)
	return nil
}

func (c *Command) grace() time.Duration {
	if c.StopGrace > 0 {
		return c.StopGrace
	}
	return DefaultStopGrace
}

func writerOr(w io.Writer, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
