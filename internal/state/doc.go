// Package state persists the remediation history arrmate needs between
// runs: which items were acted on, when, and how many times. One JSON file
// per service origin, read fully at pass start and replaced atomically at
// pass end.
package state
