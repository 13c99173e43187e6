// Package runner coordinates one arrmate run: a reconciliation pass per
// enabled service, optional torrent cleanup, and notification delivery.
// Services are isolated; one unreachable instance never blocks the rest.
package runner
