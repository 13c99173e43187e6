// Package config loads, normalizes, and validates the arrmate TOML
// configuration. Values are immutable once loaded; components receive the
// parsed Config and never re-read the file.
package config
