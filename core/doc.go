// Package core provides the foundational domain types and interfaces used by
// MediaSeq. It defines the core abstractions for:
//
//   - Ops (the closed set of media operations the sequencer dispatches)
//   - Commands (a named operation plus an opaque payload, the unit of work)
//   - Handlers (the collaborator that actually performs each operation)
//   - Schedulers (the frame-tick primitive pacing the drain loop)
//
// The package intentionally keeps implementation concerns (queueing, frame
// clocks, concrete handlers) out of scope, exposing small interfaces so
// custom handlers and deterministic test schedulers can be plugged in.
package core
