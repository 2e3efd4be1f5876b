package core

// FrameID is an opaque token identifying a scheduled frame callback. It is
// usable only for cancellation. The zero value means "no frame scheduled".
type FrameID uint64

// FrameIDNone is the zero FrameID; canceling it is a no-op.
const FrameIDNone FrameID = 0

// Scheduler is the frame-tick primitive pacing the sequencer's drain loop:
// request one low-level callback for the next rendering frame, or cancel a
// previously requested one.
//
// Implementations must:
//   - Run at most one batch of callbacks per frame, in registration order
//   - Treat cancellation of a fired or unknown FrameID as a no-op
//   - Run callbacks on a single goroutine so callers need no extra locking
//     between callbacks
//
// The scheduler is a cooperative yield point, not a timer: if no frame is
// ever produced the loop stalls after the in-flight command but does not
// error. Inject a deterministic implementation in tests.
type Scheduler interface {
	// RequestFrame registers fn to run on the next frame and returns a
	// token for cancellation.
	RequestFrame(fn func()) FrameID

	// CancelFrame removes a pending callback. Canceling a callback that
	// already fired, or a FrameID never issued, does nothing.
	CancelFrame(id FrameID)
}
