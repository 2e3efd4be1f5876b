package core

import (
	"context"
	"encoding/json"
)

// Handler is the external collaborator that actually performs each named
// media operation. The sequencer imposes no schema on payloads beyond
// "opaque data forwarded unchanged"; each method decides what it accepts.
//
// Implementations must:
//   - Respect context cancellation for long-running operations
//   - Report failure via the returned error (the sequencer logs and swallows it)
//
// A method returning an error never stalls the drain loop; the next queued
// command still executes on the following tick.
type Handler interface {
	OnEvent(ctx context.Context, payload json.RawMessage) error
	PlayMedia(ctx context.Context, payload json.RawMessage) error
	ControlMedia(ctx context.Context, payload json.RawMessage) error
	Play(ctx context.Context, payload json.RawMessage) error
	Pause(ctx context.Context, payload json.RawMessage) error
	Seek(ctx context.Context, payload json.RawMessage) error
	Rewind(ctx context.Context, payload json.RawMessage) error
	Previous(ctx context.Context, payload json.RawMessage) error
	Next(ctx context.Context, payload json.RawMessage) error
	SetTrack(ctx context.Context, payload json.RawMessage) error
	SetTrackPaused(ctx context.Context, payload json.RawMessage) error
	SetAudioTrack(ctx context.Context, payload json.RawMessage) error
	SetSource(ctx context.Context, payload json.RawMessage) error
	SetTrackCurrentTime(ctx context.Context, payload json.RawMessage) error
	SetTrackIndex(ctx context.Context, payload json.RawMessage) error
	SetScale(ctx context.Context, payload json.RawMessage) error
	UpdateMediaState(ctx context.Context, payload json.RawMessage) error
	ApplyCSSShadow(ctx context.Context, payload json.RawMessage) error
}
