package reconcile

import (
	"fmt"
	"time"

	"arrmate/internal/classify"
	"arrmate/internal/identity"
	"arrmate/internal/services/arr"
)

// PassStatus is the terminal state of one reconciliation pass.
type PassStatus string

const (
	// PassCompleted means the queue was fetched and the store written,
	// even if individual items failed.
	PassCompleted PassStatus = "completed"
	// PassDegraded means the queue could not be fetched; nothing was done.
	PassDegraded PassStatus = "degraded"
	// PassStoreFailed means remediation ran but the state write failed.
	PassStoreFailed PassStatus = "store_failed"
)

// ActionResult captures the outcome for one acted-on item.
type ActionResult struct {
	Identity    identity.Identity
	Title       string
	Category    classify.Category
	Action      classify.Action
	Attempt     int
	AlreadyGone bool
	Escalated   bool
	Err         error
}

// Summary reports one pass. It is the single artifact the run coordinator
// needs to set exit status and notify operators.
type Summary struct {
	Service     arr.Origin
	RunID       string
	Status      PassStatus
	Transient   bool
	FetchErr    error
	StoreErr    error
	Items       int
	Remediated  int
	Failures    int
	Escalations int
	Pruned      int
	Partial     bool
	Results     []ActionResult
	Duration    time.Duration
}

// Completed reports whether the pass at least fetched its queue.
func (s Summary) Completed() bool {
	return s.Status != PassDegraded
}

// Headline renders the one-line triage string for humans.
func (s Summary) Headline() string {
	switch {
	case s.Status == PassDegraded:
		return "degraded (service unreachable)"
	case s.Status == PassStoreFailed:
		return "state write failed"
	case s.Escalations > 0:
		return fmt.Sprintf("escalations pending (%d)", s.Escalations)
	case s.Remediated > 0:
		return fmt.Sprintf("remediated %d items", s.Remediated)
	default:
		return "nothing to do"
	}
}
