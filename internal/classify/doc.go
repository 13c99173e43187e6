// Package classify decides the health of a queue item and resolves the
// remediation policy that applies to it. Classification is a pure function
// of the item snapshot, the clock, and configured thresholds.
package classify
