// Package player provides a reference core.Handler: an in-memory media
// player state machine covering every operation the sequencer dispatches.
// It is suitable for tests, demos and as a template for real playback
// backends; it manipulates state only and renders nothing.
//
// Payloads are JSON documents; each operation extracts the fields it needs
// and ignores the rest, so producers may attach extra metadata freely.
// Malformed or out-of-range payloads fail with an error, which the
// sequencer logs and swallows.
package player
