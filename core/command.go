package core

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Command is the unit of work processed by the sequencer: a named media
// operation plus an arbitrary payload forwarded to the handler unchanged.
// Commands are immutable once created. Identity is irrelevant to ordering;
// the ID exists only to correlate log lines.
type Command struct {
	ID      string
	Op      Op
	Payload json.RawMessage
}

// NewCommand creates a Command for the given operation and payload.
func NewCommand(op Op, payload json.RawMessage) Command {
	return Command{ID: NewID(), Op: op, Payload: payload}
}

// NewCommandByName creates a Command from a wire name. Unknown names are
// accepted and fail later at dispatch time.
func NewCommandByName(name string, payload json.RawMessage) Command {
	return NewCommand(ParseOp(name), payload)
}

// NewID generates a new unique identifier for commands.
//
// Uses UUIDv4 for universal uniqueness without coordination.
func NewID() string { return uuid.NewString() }
