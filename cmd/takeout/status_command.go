package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"takeout/internal/store"
)

const recentFailureLimit = 20

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-status file counts and recent failures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open state database: %w", err)
			}
			defer st.Close()

			summary, err := st.Summarize(cmd.Context())
			if err != nil {
				return fmt.Errorf("summarize: %w", err)
			}

			out := cmd.OutOrStdout()
			styled := shouldStyle(out)

			fmt.Fprintf(out, "State database: %s\n\n", st.Path())
			fmt.Fprintln(out, renderTable(
				[]string{"Status", "Files"},
				summaryRows(summary),
				[]columnAlignment{alignLeft, alignRight},
				styled,
			))

			failures, err := st.FilesByStatus(cmd.Context(), store.StatusFailed, 0, recentFailureLimit)
			if err != nil {
				return fmt.Errorf("list failures: %w", err)
			}
			if len(failures) == 0 {
				return nil
			}

			rows := make([][]string, 0, len(failures))
			for _, file := range failures {
				rows = append(rows, []string{
					strconv.FormatInt(file.ID, 10),
					file.SourcePath,
					file.Phase,
					file.ErrorMessage,
				})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Source", "Phase", "Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				styled,
			))
			return nil
		},
	}
}

func summaryRows(summary store.Summary) [][]string {
	counts := map[store.Status]int{
		store.StatusNew:            summary.New,
		store.StatusMetadataRead:   summary.MetadataRead,
		store.StatusTargetResolved: summary.TargetResolved,
		store.StatusSuccess:        summary.Success,
		store.StatusSkipped:        summary.Skipped,
		store.StatusFailed:         summary.Failed,
	}
	rows := make([][]string, 0, len(counts)+1)
	for _, status := range store.AllStatuses() {
		rows = append(rows, []string{string(status), strconv.Itoa(counts[status])})
	}
	rows = append(rows, []string{"total", strconv.Itoa(summary.Total)})
	return rows
}
