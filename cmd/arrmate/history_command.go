package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"arrmate/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var serviceFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently taken remediation actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if serviceFlag != "" {
				if err := validateService(serviceFlag); err != nil {
					return err
				}
			}

			journal, err := history.Open(cfg.Paths.StateDir)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer journal.Close()

			entries, err := journal.Recent(cmd.Context(), serviceFlag, limitFlag)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "No history entries")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.CreatedAt.Local().Format(time.DateTime),
					entry.Service,
					entry.Title,
					entry.Category,
					entry.Action,
					entry.Outcome,
					strconv.Itoa(entry.Attempt),
				})
			}
			headers := []string{"When", "Service", "Title", "Category", "Action", "Outcome", "Attempt"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
			fmt.Fprintln(stdout, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().StringVarP(&serviceFlag, "service", "s", "", "Limit output to one service (radarr or sonarr)")
	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 50, "Maximum number of entries to show")
	return cmd
}
