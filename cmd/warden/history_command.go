package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"warden/internal/daemonrun"
	"warden/internal/journal"
)

const runIDDisplayLength = 8

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent start and stop outcomes from the journal",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return &usageError{err: fmt.Errorf("--limit must not be negative, got %d", limit)}
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			events, err := daemonrun.History(cmd.Context(), cfg, limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if events == nil {
					events = []journal.Event{}
				}
				return writeJSON(cmd.OutOrStdout(), events)
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No lifecycle events recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Time", "Run", "Action", "Outcome", "PID", "Detail"},
				historyRows(events),
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", journal.DefaultLimit, "Number of events to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func historyRows(events []journal.Event) [][]string {
	rows := make([][]string, 0, len(events))
	for _, event := range events {
		pid := ""
		if event.PID > 0 {
			pid = strconv.Itoa(event.PID)
		}
		runID := event.RunID
		if len(runID) > runIDDisplayLength {
			runID = runID[:runIDDisplayLength]
		}
		rows = append(rows, []string{
			strconv.FormatInt(event.ID, 10),
			event.CreatedAt.Local().Format(time.DateTime),
			runID,
			event.Action,
			string(event.Outcome),
			pid,
			event.Detail,
		})
	}
	return rows
}
