package reconcile

import (
	"context"

	"arrmate/internal/classify"
	"arrmate/internal/history"
	"arrmate/internal/identity"
	"arrmate/internal/logging"
	"arrmate/internal/services"
	"arrmate/internal/services/arr"
	"arrmate/internal/state"
)

// processItem classifies one item, decides the action, and executes it.
// The second return is false for items that needed nothing.
func (r *Reconciler) processItem(ctx context.Context, runID string, item arr.QueueItem) (ActionResult, bool) {
	category := r.classifier.Classify(item, r.now())
	if category == classify.CategoryHealthy {
		return ActionResult{}, false
	}

	id := identity.ForItem(item)
	rule := r.policy.Resolve(category)
	result := ActionResult{
		Identity: id,
		Title:    item.Title,
		Category: category,
		Action:   rule.Action,
	}

	if rule.Action == classify.ActionNone {
		r.logger.Info("no action configured for category",
			logging.String(logging.FieldRunID, runID),
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String(logging.FieldIdentity, string(id)),
			logging.String(logging.FieldCategory, string(category)))
		return ActionResult{}, false
	}

	record, _ := r.store.Get(id)
	result.Attempt = record.Attempts

	if record.Attempts >= rule.MaxAttempts {
		result.Escalated = true
		r.logger.Warn("attempt cap reached, escalating for operator attention",
			logging.String(logging.FieldRunID, runID),
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String(logging.FieldIdentity, string(id)),
			logging.String("title", item.Title),
			logging.String(logging.FieldCategory, string(category)),
			logging.Int("attempts", record.Attempts))
		r.journalEntry(ctx, runID, item, result, "escalated")
		return result, true
	}

	err := r.execute(ctx, item, rule.Action)
	switch {
	case err == nil:
		updated := r.store.MarkAction(id, item.Title, actionTaken(rule.Action), r.now())
		result.Attempt = updated.Attempts
		r.logger.Info("remediated queue item",
			logging.String(logging.FieldRunID, runID),
			logging.String(logging.FieldEventType, "item_remediated"),
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String(logging.FieldIdentity, string(id)),
			logging.String("title", item.Title),
			logging.String(logging.FieldCategory, string(category)),
			logging.String(logging.FieldAction, string(rule.Action)),
			logging.Int("attempt", updated.Attempts))
		r.journalEntry(ctx, runID, item, result, "success")
	case services.IsNotFound(err):
		// The item vanished upstream between fetch and act. Goal already
		// achieved; leave the attempt counter alone.
		result.AlreadyGone = true
		r.logger.Info("queue item already gone",
			logging.String(logging.FieldRunID, runID),
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String(logging.FieldIdentity, string(id)),
			logging.String("title", item.Title))
		r.journalEntry(ctx, runID, item, result, "already_gone")
	default:
		result.Err = err
		r.logger.Error("remediation failed, will retry next run",
			logging.String(logging.FieldRunID, runID),
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String(logging.FieldIdentity, string(id)),
			logging.String("title", item.Title),
			logging.String(logging.FieldAction, string(rule.Action)),
			logging.Error(err))
		r.journalEntry(ctx, runID, item, result, "failed")
	}
	return result, true
}

func (r *Reconciler) execute(ctx context.Context, item arr.QueueItem, action classify.Action) error {
	switch action {
	case classify.ActionRemoveAndBlocklist:
		return r.client.RemoveItem(ctx, item.ID, arr.RemoveOptions{
			RemoveFromClient: true,
			Blocklist:        true,
			SkipRedownload:   false,
		})
	case classify.ActionRemove:
		return r.client.RemoveItem(ctx, item.ID, arr.RemoveOptions{
			RemoveFromClient: true,
		})
	case classify.ActionSearchRetrigger:
		return r.client.TriggerSearch(ctx, item)
	default:
		return nil
	}
}

func (r *Reconciler) journalEntry(ctx context.Context, runID string, item arr.QueueItem, result ActionResult, outcome string) {
	if r.journal == nil {
		return
	}
	entry := history.Entry{
		RunID:    runID,
		Service:  string(item.Origin),
		Identity: string(result.Identity),
		Title:    item.Title,
		Category: string(result.Category),
		Action:   string(result.Action),
		Outcome:  outcome,
		Attempt:  result.Attempt,
	}
	if err := r.journal.Append(ctx, entry); err != nil {
		r.logger.Warn("history append failed", logging.Error(err))
	}
}

func actionTaken(action classify.Action) state.ActionTaken {
	switch action {
	case classify.ActionRemoveAndBlocklist:
		return state.ActionRemovedAndBlocklisted
	case classify.ActionRemove:
		return state.ActionRemovedOnly
	case classify.ActionSearchRetrigger:
		return state.ActionSearchRetriggered
	default:
		return state.ActionNone
	}
}
