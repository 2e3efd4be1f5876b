package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/tvkit/mediaseq/core"
)

// RecordingHandler implements core.Handler by recording every dispatch in
// order. Per-op failures can be injected with FailWith, and Gate turns one
// op into a blocking call so tests can preempt mid-dispatch.
//
// It also tracks the number of simultaneously in-flight dispatches so tests
// can assert the sequencer's one-at-a-time guarantee.
type RecordingHandler struct {
	mu       sync.Mutex
	calls    []core.Op
	payloads []json.RawMessage
	failures map[core.Op]error
	gates    map[core.Op]chan struct{}

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

// Compile-time interface check.
var _ core.Handler = (*RecordingHandler)(nil)

// NewRecordingHandler constructs an empty recording handler.
func NewRecordingHandler() *RecordingHandler {
	return &RecordingHandler{
		failures: map[core.Op]error{},
		gates:    map[core.Op]chan struct{}{},
	}
}

// FailWith makes every dispatch of op return err.
func (h *RecordingHandler) FailWith(op core.Op, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[op] = err
}

// Gate makes dispatches of op block until the returned release function is
// called.
func (h *RecordingHandler) Gate(op core.Op) (release func()) {
	ch := make(chan struct{})
	h.mu.Lock()
	h.gates[op] = ch
	h.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Calls returns the ops dispatched so far, in order.
func (h *RecordingHandler) Calls() []core.Op {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]core.Op, len(h.calls))
	copy(out, h.calls)
	return out
}

// CallNames returns the wire names of the ops dispatched so far, in order.
func (h *RecordingHandler) CallNames() []string {
	calls := h.Calls()
	names := make([]string, len(calls))
	for i, op := range calls {
		names[i] = op.String()
	}
	return names
}

// Payloads returns the payloads received so far, in dispatch order.
func (h *RecordingHandler) Payloads() []json.RawMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]json.RawMessage, len(h.payloads))
	copy(out, h.payloads)
	return out
}

// MaxInFlight returns the highest number of dispatches ever pending at once.
func (h *RecordingHandler) MaxInFlight() int {
	return int(h.maxInFlight.Load())
}

func (h *RecordingHandler) record(ctx context.Context, op core.Op, payload json.RawMessage) error {
	n := h.inFlight.Add(1)
	defer h.inFlight.Add(-1)
	for {
		seen := h.maxInFlight.Load()
		if n <= seen || h.maxInFlight.CompareAndSwap(seen, n) {
			break
		}
	}

	h.mu.Lock()
	h.calls = append(h.calls, op)
	h.payloads = append(h.payloads, payload)
	gate := h.gates[op]
	err := h.failures[op]
	h.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

// OnEvent records the dispatch.
func (h *RecordingHandler) OnEvent(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpOnEvent, p)
}

// PlayMedia records the dispatch.
func (h *RecordingHandler) PlayMedia(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpPlayMedia, p)
}

// ControlMedia records the dispatch.
func (h *RecordingHandler) ControlMedia(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpControlMedia, p)
}

// Play records the dispatch.
func (h *RecordingHandler) Play(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpPlay, p)
}

// Pause records the dispatch.
func (h *RecordingHandler) Pause(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpPause, p)
}

// Seek records the dispatch.
func (h *RecordingHandler) Seek(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpSeek, p)
}

// Rewind records the dispatch.
func (h *RecordingHandler) Rewind(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpRewind, p)
}

// Previous records the dispatch.
func (h *RecordingHandler) Previous(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpPrevious, p)
}

// Next records the dispatch.
func (h *RecordingHandler) Next(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpNext, p)
}

// SetTrack records the dispatch.
func (h *RecordingHandler) SetTrack(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpSetTrack, p)
}

// SetTrackPaused records the dispatch.
func (h *RecordingHandler) SetTrackPaused(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpSetTrackPaused, p)
}

// SetAudioTrack records the dispatch.
func (h *RecordingHandler) SetAudioTrack(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpSetAudioTrack, p)
}

// SetSource records the dispatch.
func (h *RecordingHandler) SetSource(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpSetSource, p)
}

// SetTrackCurrentTime records the dispatch.
func (h *RecordingHandler) SetTrackCurrentTime(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpSetTrackCurrentTime, p)
}

// SetTrackIndex records the dispatch.
func (h *RecordingHandler) SetTrackIndex(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpSetTrackIndex, p)
}

// SetScale records the dispatch.
func (h *RecordingHandler) SetScale(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpSetScale, p)
}

// UpdateMediaState records the dispatch.
func (h *RecordingHandler) UpdateMediaState(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpUpdateMediaState, p)
}

// ApplyCSSShadow records the dispatch.
func (h *RecordingHandler) ApplyCSSShadow(ctx context.Context, p json.RawMessage) error {
	return h.record(ctx, core.OpApplyCSSShadow, p)
}
