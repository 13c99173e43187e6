package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"arrmate/internal/history"
	"arrmate/internal/logging"
	"arrmate/internal/notifications"
	"arrmate/internal/runner"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run remediation passes on the configured interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Overlapping daemons would race on the state files; the
			// one-shot run command stays lock-free and is the operator's
			// responsibility to serialize.
			lock := flock.New(filepath.Join(cfg.Paths.StateDir, "arrmate.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire daemon lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another arrmate daemon is already running (lock %s)", lock.Path())
			}
			defer lock.Unlock()

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
			r := runner.New(cfg, notifier, journal, logger)

			logger.Info("daemon started", logging.Int("interval_seconds", cfg.Daemon.Interval))
			r.RunOnce(signalCtx)

			scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
			spec := fmt.Sprintf("@every %ds", cfg.Daemon.Interval)
			if _, err := scheduler.AddFunc(spec, func() {
				r.RunOnce(signalCtx)
			}); err != nil {
				return fmt.Errorf("schedule passes: %w", err)
			}
			scheduler.Start()

			<-signalCtx.Done()
			logger.Info("daemon stopping")
			<-scheduler.Stop().Done()
			return nil
		},
	}
}
