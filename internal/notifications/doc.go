// Package notifications delivers pass outcomes via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set.
// Per-event toggles let operators subscribe to summaries, escalations,
// and errors independently.
package notifications
