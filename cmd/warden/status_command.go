package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"warden/internal/daemonrun"
	"warden/internal/preflight"
)

type statusReport struct {
	Lock   daemonrun.Status   `json:"lock"`
	Checks []preflight.Result `json:"checks"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the PID file lock, its owner, and preflight checks",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := daemonrun.Inspect(cfg, nil)
			if err != nil {
				return err
			}
			report := statusReport{Lock: status, Checks: preflight.RunAll(cfg)}
			if report.Checks == nil {
				report.Checks = []preflight.Result{}
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), report)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			renderStatus(stdout, status, colorize)
			if len(report.Checks) > 0 {
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Checks", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, result := range report.Checks {
					fmt.Fprintln(stdout, renderStatusLine(result.Name, checkKind(result), result.Detail, colorize))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func checkKind(result preflight.Result) statusKind {
	switch {
	case result.Passed:
		return statusOK
	case result.Optional:
		return statusWarn
	default:
		return statusError
	}
}
