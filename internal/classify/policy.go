package classify

import (
	"time"

	"arrmate/internal/config"
)

// Action is the remedial step a policy prescribes.
type Action string

const (
	ActionNone               Action = "none"
	ActionRemoveAndBlocklist Action = "remove_and_blocklist"
	ActionRemove             Action = "remove"
	ActionSearchRetrigger    Action = "search_retrigger"
)

// Rule is the policy resolved for one category.
type Rule struct {
	Action      Action
	MaxAttempts int
}

// Policy maps health categories to remediation rules.
type Policy struct {
	rules       map[Category]Rule
	maxAttempts int
}

// NewPolicy derives the remediation policy from configuration. Feature
// toggles soften actions rather than dropping rules: with blocklisting
// disabled a permanent failure is still removed, and with search retrigger
// disabled a stalled item falls back to removal. Plain warnings are
// log-only; the classifier promotes a warning to permanent_failure or
// stalled when its message text warrants action.
func NewPolicy(cfg config.Remediation) *Policy {
	blocklistAction := ActionRemoveAndBlocklist
	if !cfg.BlocklistOnRemoval {
		blocklistAction = ActionRemove
	}
	stalledAction := ActionSearchRetrigger
	if !cfg.SearchRetrigger {
		stalledAction = ActionRemove
	}

	return &Policy{
		rules: map[Category]Rule{
			CategoryPermanentFailure: {Action: blocklistAction, MaxAttempts: cfg.MaxAttempts},
			CategoryRetriableFailure: {Action: ActionRemove, MaxAttempts: cfg.MaxAttempts},
			CategoryWarning:          {Action: ActionNone, MaxAttempts: 0},
			CategoryStalled:          {Action: stalledAction, MaxAttempts: cfg.MaxAttempts},
			CategoryHealthy:          {Action: ActionNone, MaxAttempts: 0},
		},
		maxAttempts: cfg.MaxAttempts,
	}
}

// Resolve returns the rule for a category. Unknown categories resolve to a
// log-only no-op so classification can grow without breaking resolution.
func (p *Policy) Resolve(category Category) Rule {
	if rule, ok := p.rules[category]; ok {
		return rule
	}
	return Rule{Action: ActionNone, MaxAttempts: 0}
}

// StallThresholdFromConfig converts the configured seconds to a duration.
func StallThresholdFromConfig(cfg config.Remediation) time.Duration {
	return time.Duration(cfg.StallThreshold) * time.Second
}
