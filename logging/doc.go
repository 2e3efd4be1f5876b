// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug
// any structured logger. The sequencer logs through this interface only: an
// informational line per command about to execute and a warning per handler
// failure.
package logging
