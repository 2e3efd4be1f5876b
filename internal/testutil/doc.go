// Package testutil contains helpers used across tests to observe sequencer
// behavior: a recording handler that captures dispatch order, injects
// failures and blocks mid-dispatch on demand. These helpers are
// intentionally minimal and not intended for production usage.
package testutil
