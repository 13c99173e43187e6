package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"arrmate/internal/history"
	"arrmate/internal/logging"
	"arrmate/internal/notifications"
	"arrmate/internal/reconcile"
	"arrmate/internal/runner"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one remediation pass per enabled service and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			journal, err := history.Open(cfg.Paths.StateDir)
			if err != nil {
				logger.Warn("history journal unavailable", logging.Error(err))
				journal = nil
			} else {
				defer journal.Close()
			}

			notifier := notifications.NewService(cfg.Notifications)
			report := runner.New(cfg, notifier, journal, logger).RunOnce(signalCtx)

			stdout := cmd.OutOrStdout()
			fmt.Fprintln(stdout, renderSummaryTable(report.Summaries))
			if report.Cleanup != nil {
				fmt.Fprintf(stdout, "Cleanup: %d torrents examined, %d deleted", report.Cleanup.Examined, report.Cleanup.Deleted)
				if report.Cleanup.DryRun {
					fmt.Fprint(stdout, " (dry run)")
				}
				fmt.Fprintln(stdout)
			}
			if report.CleanupErr != nil {
				fmt.Fprintf(stdout, "Cleanup skipped: %v\n", report.CleanupErr)
			}

			status := "completed"
			color := ansiGreen
			if !report.Succeeded() {
				status = "failed"
				color = ansiRed
			}
			line := fmt.Sprintf("Run %s %s", report.RunID, status)
			if shouldColorize(stdout) {
				line = color + line + ansiReset
			}
			fmt.Fprintln(stdout, line)

			if !report.Succeeded() {
				return errors.New("no service completed a pass")
			}
			return nil
		},
	}
}

func renderSummaryTable(summaries []reconcile.Summary) string {
	headers := []string{"Service", "Status", "Items", "Remediated", "Failed", "Escalated", "Pruned", "Duration"}
	rows := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, []string{
			string(summary.Service),
			summary.Headline(),
			strconv.Itoa(summary.Items),
			strconv.Itoa(summary.Remediated),
			strconv.Itoa(summary.Failures),
			strconv.Itoa(summary.Escalations),
			strconv.Itoa(summary.Pruned),
			summary.Duration.Round(timeRounding).String(),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
	return renderTable(headers, rows, aligns)
}
