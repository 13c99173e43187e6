package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"arrmate/internal/cleanup"
	"arrmate/internal/config"
	"arrmate/internal/history"
	"arrmate/internal/logging"
	"arrmate/internal/notifications"
	"arrmate/internal/reconcile"
	"arrmate/internal/services/arr"
	"arrmate/internal/services/qbittorrent"
	"arrmate/internal/state"
)

// Report collects the outcome of one run across all enabled services.
type Report struct {
	RunID      string
	Summaries  []reconcile.Summary
	Cleanup    *cleanup.Result
	CleanupErr error
}

// Succeeded reports whether at least one pass ran to completion. A run
// where every service was unreachable is a failure; a single healthy
// pass is enough for a zero exit.
func (r Report) Succeeded() bool {
	for _, summary := range r.Summaries {
		if summary.Completed() {
			return true
		}
	}
	return false
}

// Runner wires clients, stores, and the reconciler for each enabled
// service and executes runs.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
	journal  *history.Journal

	// replaced in tests
	newArrClient     func(origin arr.Origin, svc config.Service) arr.Client
	newTorrentClient func(qb config.QBittorrent) cleanup.TorrentClient
}

// New builds a runner. The notifier and journal may be nil.
func New(cfg *config.Config, notifier notifications.Service, journal *history.Journal, logger *slog.Logger) *Runner {
	if notifier == nil {
		notifier = notifications.NewService(config.Notifications{})
	}
	r := &Runner{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "runner"),
		notifier: notifier,
		journal:  journal,
	}
	r.newArrClient = func(origin arr.Origin, svc config.Service) arr.Client {
		timeout := time.Duration(svc.RequestTimeout) * time.Second
		return arr.NewClient(origin, svc.URL, svc.APIKey, timeout, nil, logger)
	}
	r.newTorrentClient = func(qb config.QBittorrent) cleanup.TorrentClient {
		timeout := time.Duration(qb.RequestTimeout) * time.Second
		return qbittorrent.NewClient(qb.URL, qb.Username, qb.Password, timeout, nil, logger)
	}
	return r
}

// RunOnce executes one full run. Pass failures are folded into the
// report; the only hard requirement is that configuration named at
// least one enabled service, which Validate already guarantees.
func (r *Runner) RunOnce(ctx context.Context) Report {
	report := Report{RunID: uuid.NewString()}
	r.logger.Info("run started", logging.String(logging.FieldRunID, report.RunID))

	clients := r.enabledClients()
	for _, client := range clients {
		summary := r.runPass(ctx, report.RunID, client)
		report.Summaries = append(report.Summaries, summary)
		r.notify(ctx, summary)
	}

	if r.cfg.Cleanup.Enabled && r.cfg.QBittorrent.Enabled {
		result, err := r.runCleanup(ctx, clients)
		report.Cleanup = result
		report.CleanupErr = err
	}

	r.logger.Info("run finished",
		logging.String(logging.FieldRunID, report.RunID),
		logging.Bool("succeeded", report.Succeeded()))
	return report
}

func (r *Runner) enabledClients() []arr.Client {
	var clients []arr.Client
	if r.cfg.Radarr.Enabled {
		clients = append(clients, r.newArrClient(arr.OriginRadarr, r.cfg.Radarr))
	}
	if r.cfg.Sonarr.Enabled {
		clients = append(clients, r.newArrClient(arr.OriginSonarr, r.cfg.Sonarr))
	}
	return clients
}

func (r *Runner) runPass(ctx context.Context, runID string, client arr.Client) reconcile.Summary {
	passCtx := ctx
	if timeout := time.Duration(r.cfg.Remediation.PassTimeout) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	store := state.Open(r.cfg.Paths.StateDir, string(client.Origin()), r.logger)
	reconciler := reconcile.New(r.cfg.Remediation, client, store, r.journal, r.logger)
	return reconciler.Run(passCtx, runID)
}

func (r *Runner) runCleanup(ctx context.Context, clients []arr.Client) (*cleanup.Result, error) {
	task := cleanup.New(r.cfg.Cleanup, r.newTorrentClient(r.cfg.QBittorrent), clients, r.logger)
	result, err := task.Run(ctx)
	if err != nil {
		r.logger.Error("cleanup failed", logging.Error(err))
		if notifyErr := r.notifier.NotifyError(ctx, err, "torrent cleanup"); notifyErr != nil {
			r.logger.Warn("cleanup error notification failed", logging.Error(notifyErr))
		}
		return nil, err
	}
	return &result, nil
}

func (r *Runner) notify(ctx context.Context, summary reconcile.Summary) {
	if err := r.notifier.NotifyPassSummary(ctx, summary); err != nil {
		r.logger.Warn("summary notification failed", logging.Error(err))
	}
	if err := r.notifier.NotifyEscalations(ctx, summary); err != nil {
		r.logger.Warn("escalation notification failed", logging.Error(err))
	}
}
