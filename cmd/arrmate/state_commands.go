package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"arrmate/internal/logging"
	"arrmate/internal/state"
)

var knownServices = []string{"radarr", "sonarr"}

func newStateCommand(ctx *commandContext) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and manage remediation state",
	}
	stateCmd.AddCommand(newStateListCommand(ctx))
	stateCmd.AddCommand(newStateClearCommand(ctx))
	return stateCmd
}

func newStateListCommand(ctx *commandContext) *cobra.Command {
	var serviceFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked remediation records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			services := knownServices
			if serviceFlag != "" {
				if err := validateService(serviceFlag); err != nil {
					return err
				}
				services = []string{serviceFlag}
			}

			stdout := cmd.OutOrStdout()
			total := 0
			for _, service := range services {
				store := state.Open(cfg.Paths.StateDir, service, logging.NewNop())
				records := store.Records()
				total += len(records)
				if len(records) == 0 {
					continue
				}

				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						string(record.Identity),
						record.Title,
						string(record.LastAction),
						strconv.Itoa(record.Attempts),
						record.FirstSeenAt.Local().Format(time.DateTime),
						record.LastActedAt.Local().Format(time.DateTime),
					})
				}
				headers := []string{"Identity", "Title", "Last Action", "Attempts", "First Seen", "Last Acted"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
				fmt.Fprintln(stdout, renderTable(headers, rows, aligns))
			}

			if total == 0 {
				fmt.Fprintln(stdout, "No remediation records")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&serviceFlag, "service", "s", "", "Limit output to one service (radarr or sonarr)")
	return cmd
}

func newStateClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <service>",
		Short: "Drop all remediation records for a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			service := args[0]
			if err := validateService(service); err != nil {
				return err
			}

			store := state.Open(cfg.Paths.StateDir, service, logging.NewNop())
			count := store.Len()
			store.Clear()
			if err := store.Save(); err != nil {
				return fmt.Errorf("write state: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d records for %s\n", count, service)
			return nil
		},
	}
}

func validateService(service string) error {
	for _, known := range knownServices {
		if service == known {
			return nil
		}
	}
	return fmt.Errorf("unknown service %q (expected radarr or sonarr)", service)
}
