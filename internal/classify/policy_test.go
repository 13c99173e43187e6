package classify

import (
	"testing"
	"time"

	"arrmate/internal/config"
)

func remediationConfig() config.Remediation {
	return config.Remediation{
		StallThreshold:     3600,
		MaxAttempts:        3,
		BlocklistOnRemoval: true,
		SearchRetrigger:    true,
	}
}

func TestPolicyDefaults(t *testing.T) {
	policy := NewPolicy(remediationConfig())

	cases := []struct {
		category Category
		want     Action
	}{
		{CategoryPermanentFailure, ActionRemoveAndBlocklist},
		{CategoryRetriableFailure, ActionRemove},
		{CategoryWarning, ActionNone},
		{CategoryStalled, ActionSearchRetrigger},
		{CategoryHealthy, ActionNone},
	}
	for _, tc := range cases {
		rule := policy.Resolve(tc.category)
		if rule.Action != tc.want {
			t.Errorf("Resolve(%s).Action = %s, want %s", tc.category, rule.Action, tc.want)
		}
	}
	if policy.Resolve(CategoryStalled).MaxAttempts != 3 {
		t.Fatal("max attempts not carried into rule")
	}
}

func TestPolicyTogglesSoftenActions(t *testing.T) {
	cfg := remediationConfig()
	cfg.BlocklistOnRemoval = false
	cfg.SearchRetrigger = false
	policy := NewPolicy(cfg)

	if got := policy.Resolve(CategoryPermanentFailure).Action; got != ActionRemove {
		t.Fatalf("blocklist disabled: action = %s, want remove", got)
	}
	if got := policy.Resolve(CategoryStalled).Action; got != ActionRemove {
		t.Fatalf("search disabled: action = %s, want remove", got)
	}
}

func TestPolicyUnknownCategoryIsNoop(t *testing.T) {
	policy := NewPolicy(remediationConfig())
	rule := policy.Resolve(Category("brand_new_category"))
	if rule.Action != ActionNone || rule.MaxAttempts != 0 {
		t.Fatalf("unknown category rule = %+v, want no-op", rule)
	}
}

func TestStallThresholdFromConfig(t *testing.T) {
	cfg := remediationConfig()
	if got := StallThresholdFromConfig(cfg); got != time.Hour {
		t.Fatalf("threshold = %s, want 1h", got)
	}
}
