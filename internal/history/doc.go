// Package history keeps an append-only journal of every remedial action
// arrmate has taken, backed by SQLite. The journal is diagnostic: the
// remediation state store stays the authoritative attempt counter.
package history
