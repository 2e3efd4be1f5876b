// Package mediaseq provides a high-level façade over the sequencer and its
// collaborators (handler, frame scheduler, logging) enabling rapid setup of
// an exclusive media command pipeline. Most applications interact with this
// package by:
//  1. Creating a MediaSeq via New() around their core.Handler
//  2. Submitting commands by name (Enqueue) as they arrive
//  3. Issuing priority overrides (ExecuteExclusive) for state-correcting
//     operations that must not wait behind the backlog
//
// The façade delegates ordering, exclusivity and lifecycle to
// sequencer.Sequencer while keeping setup and usage ergonomics concise. All
// defaults are safe for local development and testing; production
// deployments typically supply a real frame scheduler and a structured
// logger.
package mediaseq

import (
	"context"
	"encoding/json"

	"github.com/tvkit/mediaseq/core"
	"github.com/tvkit/mediaseq/logging"
	"github.com/tvkit/mediaseq/sequencer"
)

// Options configures the MediaSeq instance.
type Options struct {
	// Scheduler paces the drain loop (defaults to a 60 fps frame clock
	// owned by the sequencer if not provided).
	Scheduler core.Scheduler

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// MediaSeq is the high-level façade aggregating the sequencer and its
// collaborators.
type MediaSeq struct {
	seq *sequencer.Sequencer
}

// New creates a new MediaSeq dispatching to handler, with optional
// overrides.
func New(handler core.Handler, optFns ...func(o *Options)) *MediaSeq {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	seq := sequencer.New(handler, func(o *sequencer.Options) {
		o.Scheduler = opts.Scheduler
		o.Logger = opts.Logger
	})

	return &MediaSeq{seq: seq}
}

// Enqueue submits a command by wire name for FIFO execution.
// Fire-and-forget; unknown names fail at dispatch time with a log line.
func (m *MediaSeq) Enqueue(name string, payload json.RawMessage) {
	m.seq.Enqueue(core.NewCommandByName(name, payload))
}

// ExecuteExclusive discards all pending commands and runs the named command
// immediately, returning after it settled (success or failure).
func (m *MediaSeq) ExecuteExclusive(ctx context.Context, name string, payload json.RawMessage) {
	m.seq.ExecuteExclusive(ctx, core.NewCommandByName(name, payload))
}

// Destroy stops the sequencer: the backlog is emptied, the pending tick is
// canceled and no further commands execute. Idempotent.
func (m *MediaSeq) Destroy() {
	m.seq.Destroy()
}

// Sequencer exposes the underlying sequencer for advanced use (typed
// commands, completion callbacks, introspection).
func (m *MediaSeq) Sequencer() *sequencer.Sequencer {
	return m.seq
}
