package classify

import (
	"strings"
	"time"

	"arrmate/internal/services/arr"
)

// Category is the health classification of one queue item.
type Category string

const (
	CategoryPermanentFailure Category = "permanent_failure"
	CategoryRetriableFailure Category = "retriable_failure"
	CategoryWarning          Category = "warning"
	CategoryStalled          Category = "stalled"
	CategoryHealthy          Category = "healthy"
)

// stalledMessage is the warning text Radarr and Sonarr attach to a download
// that stopped transferring. Matched case-insensitively as a substring.
const stalledMessage = "the download is stalled"

// Classifier evaluates queue items against configured thresholds.
type Classifier struct {
	stallThreshold        time.Duration
	unrecoverablePatterns []string
}

// NewClassifier builds a classifier. Patterns are matched case-insensitively
// as substrings of the item's error text.
func NewClassifier(stallThreshold time.Duration, unrecoverablePatterns []string) *Classifier {
	patterns := make([]string, 0, len(unrecoverablePatterns))
	for _, pattern := range unrecoverablePatterns {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			patterns = append(patterns, strings.ToLower(trimmed))
		}
	}
	return &Classifier{
		stallThreshold:        stallThreshold,
		unrecoverablePatterns: patterns,
	}
}

// Classify returns exactly one category for the item. Rules are evaluated
// in precedence order and the first match wins, so a failed item that also
// looks stalled is always reported as a failure. Warnings only escalate
// past log-only when their message text matches an unrecoverable pattern
// or the stalled wording; most warnings clear on their own once the
// service finishes importing.
func (c *Classifier) Classify(item arr.QueueItem, now time.Time) Category {
	switch item.Status {
	case arr.StatusFailed:
		if c.matchesUnrecoverable(item) {
			return CategoryPermanentFailure
		}
		return CategoryRetriableFailure
	case arr.StatusWarning:
		if c.matchesUnrecoverable(item) {
			return CategoryPermanentFailure
		}
		if matchesMessage(item, stalledMessage) {
			return CategoryStalled
		}
		return CategoryWarning
	case arr.StatusQueued, arr.StatusDownloading:
		if c.isStalled(item, now) {
			return CategoryStalled
		}
	}
	return CategoryHealthy
}

func (c *Classifier) matchesUnrecoverable(item arr.QueueItem) bool {
	for _, pattern := range c.unrecoverablePatterns {
		if matchesMessage(item, pattern) {
			return true
		}
	}
	return false
}

// matchesMessage reports whether the lowercased pattern appears in the
// item's error message or any of its status messages.
func matchesMessage(item arr.QueueItem, pattern string) bool {
	if item.ErrorMessage != "" && strings.Contains(strings.ToLower(item.ErrorMessage), pattern) {
		return true
	}
	for _, msg := range item.StatusMessages {
		if strings.Contains(strings.ToLower(msg), pattern) {
			return true
		}
	}
	return false
}

// isStalled reports whether the item has sat past the stall threshold with
// no forward progress. Items without an added timestamp cannot be aged and
// are never considered stalled.
func (c *Classifier) isStalled(item arr.QueueItem, now time.Time) bool {
	if c.stallThreshold <= 0 || item.Added.IsZero() {
		return false
	}
	if now.Sub(item.Added) <= c.stallThreshold {
		return false
	}
	return !item.HasProgress()
}
