// Package sequencer implements the exclusive media command sequencer: an
// ordered, unbounded backlog of commands drained one per frame tick, plus a
// preemption path that discards the backlog and runs one command
// immediately.
//
// # Guarantees
//
//   - At most one handler call is in flight at any instant
//   - Enqueued commands execute in submission order, one per tick, each tick
//     scheduled only after the previous command settled
//   - ExecuteExclusive discards the entire backlog, cancels the pending
//     tick, and runs its command next; it returns only after the command
//     settled, success or failure
//   - A failing or unknown command is logged and swallowed; the loop always
//     advances and no error ever escapes a public entry point
//
// # Concurrency model
//
// All queue and cycle state is owned by one Sequencer instance and mutated
// under its lock; handler dispatches are serialized by a dedicated execution
// mutex, so the exclusive path waits for an already-dispatched command to
// settle before running. A drain step overtaken by a preemption or Destroy
// detects the reset and yields: a command popped but not yet dispatched is
// discarded with the rest of the backlog, and a step whose dispatch already
// settled schedules nothing. Stale completions are suppressed, not merely
// rendered harmless.
package sequencer
