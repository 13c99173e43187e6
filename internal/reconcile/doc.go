// Package reconcile drives one inspection-and-remediation pass over a
// service's download queue: fetch, classify, decide, act, record, prune,
// summarize. Item failures are isolated; only a failed fetch aborts a pass.
package reconcile
