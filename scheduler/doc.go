// Package scheduler provides core.Scheduler implementations pacing the
// sequencer's drain loop:
//
//   - FrameClock: a real frame-paced scheduler driven by a time.Ticker,
//     emitting one batch of callbacks per rendering frame
//   - Manual: a deterministic scheduler for tests, where frames fire only
//     when the test says so
//
// Both run callbacks on a single goroutine, preserving the cooperative
// single-threaded model the sequencer relies on.
package scheduler
