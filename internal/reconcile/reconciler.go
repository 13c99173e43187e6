package reconcile

import (
	"context"
	"log/slog"
	"time"

	"arrmate/internal/classify"
	"arrmate/internal/config"
	"arrmate/internal/history"
	"arrmate/internal/identity"
	"arrmate/internal/logging"
	"arrmate/internal/services"
	"arrmate/internal/services/arr"
	"arrmate/internal/state"
)

// Reconciler runs remediation passes for one service.
type Reconciler struct {
	client     arr.Client
	classifier *classify.Classifier
	policy     *classify.Policy
	store      *state.Store
	journal    *history.Journal
	grace      time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// New builds a reconciler for one service. The journal may be nil.
func New(cfg config.Remediation, client arr.Client, store *state.Store, journal *history.Journal, logger *slog.Logger) *Reconciler {
	logger = logging.NewComponentLogger(logger, "reconcile")
	logger = logger.With(logging.String(logging.FieldService, string(client.Origin())))
	return &Reconciler{
		client:     client,
		classifier: classify.NewClassifier(classify.StallThresholdFromConfig(cfg), cfg.UnrecoverablePatterns),
		policy:     classify.NewPolicy(cfg),
		store:      store,
		journal:    journal,
		grace:      time.Duration(cfg.GracePeriod) * time.Second,
		logger:     logger,
		now:        time.Now,
	}
}

// Run performs one pass. It always returns a summary; errors are folded
// into it rather than returned so the caller can keep services independent.
func (r *Reconciler) Run(ctx context.Context, runID string) Summary {
	started := r.now()
	summary := Summary{
		Service: r.client.Origin(),
		RunID:   runID,
		Status:  PassCompleted,
	}

	items, err := r.client.Queue(ctx)
	if err != nil {
		summary.Status = PassDegraded
		summary.FetchErr = err
		summary.Transient = services.IsTransient(err)
		summary.Duration = r.now().Sub(started)
		r.logger.Error("queue fetch failed",
			logging.String(logging.FieldRunID, runID),
			logging.Bool("transient", summary.Transient),
			logging.Error(err))
		return summary
	}
	summary.Items = len(items)

	live := make(map[identity.Identity]struct{}, len(items))
	for _, item := range items {
		live[identity.ForItem(item)] = struct{}{}
	}

	for _, item := range items {
		if ctx.Err() != nil {
			summary.Partial = true
			r.logger.Warn("pass deadline reached, abandoning remaining items",
				logging.String(logging.FieldRunID, runID))
			break
		}
		result, acted := r.processItem(ctx, runID, item)
		if !acted {
			continue
		}
		summary.Results = append(summary.Results, result)
		switch {
		case result.Escalated:
			summary.Escalations++
		case result.Err != nil:
			summary.Failures++
		default:
			summary.Remediated++
		}
	}

	summary.Pruned = r.store.Prune(live, r.grace, r.now())

	if err := r.store.Save(); err != nil {
		summary.Status = PassStoreFailed
		summary.StoreErr = err
		r.logger.Error("state write failed",
			logging.String(logging.FieldRunID, runID),
			logging.Error(err))
	}

	summary.Duration = r.now().Sub(started)
	r.logSummary(summary)
	return summary
}

func (r *Reconciler) logSummary(summary Summary) {
	r.logger.Info("pass complete",
		logging.String(logging.FieldRunID, summary.RunID),
		logging.String(logging.FieldEventType, "pass_summary"),
		logging.String("status", string(summary.Status)),
		logging.Int("items", summary.Items),
		logging.Int("remediated", summary.Remediated),
		logging.Int("failures", summary.Failures),
		logging.Int("escalations", summary.Escalations),
		logging.Int("pruned", summary.Pruned),
		logging.Bool("partial", summary.Partial),
		logging.Duration("duration", summary.Duration))
}
