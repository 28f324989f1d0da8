package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"warden/internal/daemon"
	"warden/internal/daemonrun"
	"warden/internal/runner"
)

func newLifecycleCommands(ctx *commandContext) []*cobra.Command {
	var startDetach bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Take the PID file lock and run the configured command",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if startDetach && !daemon.Detached() {
				return detach(cmd, ctx)
			}
			return runAction(cmd, ctx, string(runner.ActionStart))
		},
	}
	startCmd.Flags().BoolVarP(&startDetach, "detach", "d", false, "Run in the background and return once the lock is held")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Terminate the instance recorded in the PID file",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, _ := daemonrun.Inspect(ctx.configValue(), nil)
			if err := runAction(cmd, ctx, string(runner.ActionStop)); err != nil {
				return err
			}
			reportStop(cmd, before)
			return nil
		},
	}

	var restartDetach bool
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Stop the running instance, then start",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if restartDetach && !daemon.Detached() {
				return detach(cmd, ctx)
			}
			return runAction(cmd, ctx, string(runner.ActionRestart))
		},
	}
	restartCmd.Flags().BoolVarP(&restartDetach, "detach", "d", false, "Run the new instance in the background")

	runCmd := &cobra.Command{
		Use:   "run <action>",
		Short: "Perform a lifecycle action by name (start, stop, restart)",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, ctx, args[0])
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, runCmd}
}

func runAction(cmd *cobra.Command, ctx *commandContext, action string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
		Action:   action,
		Messages: cmd.ErrOrStderr(),
		Logger:   logger,
	})
}

func detach(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	pid, err := daemonrun.Detach(cmd.Context(), cfg, daemonrun.DetachOptions{Args: os.Args[1:]})
	if err != nil {
		if pid > 0 {
			return fmt.Errorf("background instance (pid %d): %w; see %s", pid, err, cfg.Daemon.LogFile)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "started in background with pid %d\n", pid)
	if cfg.Daemon.LogFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "output: %s\n", cfg.Daemon.LogFile)
	}
	return nil
}

func reportStop(cmd *cobra.Command, before daemonrun.Status) {
	out := cmd.OutOrStdout()
	switch before.State {
	case daemonrun.StateRunning:
		fmt.Fprintf(out, "sent SIGTERM to pid %d\n", before.PID)
	case daemonrun.StateStale:
		fmt.Fprintf(out, "removed stale pid file %s (pid %d not running)\n", before.PIDFile, before.PID)
	case daemonrun.StateUnreadable:
		fmt.Fprintf(out, "removed unreadable pid file %s\n", before.PIDFile)
	}
}
