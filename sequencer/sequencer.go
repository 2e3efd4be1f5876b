package sequencer

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/tvkit/mediaseq/core"
	"github.com/tvkit/mediaseq/logging"
	"github.com/tvkit/mediaseq/scheduler"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Scheduler paces the drain loop. Defaults to a 60 fps FrameClock owned
	// (and closed on Destroy) by the sequencer.
	Scheduler core.Scheduler

	// Logger receives the per-command trace and failure warnings.
	// Defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// Sequencer serializes media commands against a single Handler. Producers
// either Enqueue (fire-and-forget, FIFO) or ExecuteExclusive (preempt the
// backlog and run one command now). All state is owned by the instance;
// independent sequencers share nothing.
type Sequencer struct {
	handler    core.Handler
	sched      core.Scheduler
	logger     logging.Logger
	ownedClock *scheduler.FrameClock

	// baseCtx is passed to handler calls made by the drain loop; Destroy
	// cancels it so a long-running handler can observe teardown.
	baseCtx context.Context
	cancel  context.CancelFunc

	mu          sync.Mutex
	queue       []core.Command
	cycleActive bool
	frame       core.FrameID
	generation  uint64
	destroyed   bool

	// execMu serializes every handler dispatch, drain and exclusive alike.
	execMu sync.Mutex
}

// New constructs a Sequencer dispatching to handler, with optional
// overrides. The handler must be non-nil.
func New(handler core.Handler, optFns ...func(o *Options)) *Sequencer {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Sequencer{
		handler: handler,
		sched:   opts.Scheduler,
		logger:  opts.Logger,
	}

	if s.sched == nil {
		s.ownedClock = scheduler.NewFrameClock()
		s.sched = s.ownedClock
	}

	s.baseCtx, s.cancel = context.WithCancel(context.Background())

	return s
}

// Enqueue appends cmd to the tail of the backlog and starts a drain cycle if
// none is active. Fire-and-forget: the command executes in FIFO order
// relative to other enqueued commands unless a preemption discards it.
// After Destroy, Enqueue is a no-op.
func (s *Sequencer) Enqueue(cmd core.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}

	s.queue = append(s.queue, cmd)

	if !s.cycleActive {
		s.cycleActive = true
		s.frame = s.sched.RequestFrame(s.step)
	}
}

// ExecuteExclusive preempts all pending work and runs cmd in isolation:
// the backlog is discarded wholesale, the scheduled tick is canceled, the
// cycle is reset, and cmd executes next. It returns only after cmd settled.
// Handler failure is logged, never returned; onDone callbacks (if any) run
// before the method returns and a panicking callback is discarded without
// skipping the return.
//
// The preemption steps happen atomically with respect to the drain loop's
// scheduling decisions; a stale tick already scheduled cannot fire
// afterwards, a drain step that popped its command but has not yet
// dispatched it discards that command instead, and a stale drain step whose
// dispatch is already in flight settles first (the execution mutex) and
// then schedules nothing.
//
// ExecuteExclusive must not be called from inside a handler operation: it
// waits for the in-flight dispatch to settle and would deadlock on its own
// handler call.
func (s *Sequencer) ExecuteExclusive(ctx context.Context, cmd core.Command, onDone ...func()) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.preemptLocked()
	s.mu.Unlock()

	s.execute(ctx, cmd, onDone...)
}

// Destroy empties the backlog, cancels any scheduled tick, resets the cycle
// and stops the sequencer for good: no further ticks are ever scheduled and
// subsequent Enqueue calls are no-ops. Idempotent.
func (s *Sequencer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}

	s.destroyed = true
	s.preemptLocked()
	s.cancel()

	if s.ownedClock != nil {
		// Close waits for the frame goroutine to exit, and Destroy may be
		// called from a handler running on that very goroutine, so the
		// close must not happen inline.
		clock := s.ownedClock
		s.ownedClock = nil
		go clock.Close()
	}
}

// QueueLen reports the number of commands waiting in the backlog.
func (s *Sequencer) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.queue)
}

// CycleActive reports whether a drain cycle is currently scheduled or
// running.
func (s *Sequencer) CycleActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cycleActive
}

// preemptLocked performs the shared reset: discard the backlog, cancel the
// pending tick, mark the cycle inactive and invalidate in-flight drain
// steps. Caller must hold s.mu.
func (s *Sequencer) preemptLocked() {
	s.queue = nil

	if s.frame != core.FrameIDNone {
		s.sched.CancelFrame(s.frame)
		s.frame = core.FrameIDNone
	}

	s.cycleActive = false
	s.generation++
}

// step is one drain tick: pop and execute the head command, then reschedule
// if the cycle survived. An empty queue is the terminal state of a cycle.
func (s *Sequencer) step() {
	s.mu.Lock()

	if s.destroyed || len(s.queue) == 0 {
		s.cycleActive = false
		s.frame = core.FrameIDNone
		s.mu.Unlock()
		return
	}

	cmd := s.queue[0]
	s.queue = s.queue[1:]
	gen := s.generation
	s.mu.Unlock()

	s.executeIfCurrent(s.baseCtx, cmd, gen)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		// Preempted or destroyed while the command was in flight; the
		// reset already decided the cycle's fate, this step must not
		// reschedule.
		return
	}

	s.frame = s.sched.RequestFrame(s.step)
}

// execute performs one dispatch: log, invoke the handler operation matching
// the command's op, and swallow any failure so the caller always advances.
// onDone callbacks run after the dispatch settled and before execute
// returns, each wrapped so a panic cannot skip the remaining ones.
func (s *Sequencer) execute(ctx context.Context, cmd core.Command, onDone ...func()) {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	s.executeLocked(ctx, cmd, onDone...)
}

// executeIfCurrent is the drain path's dispatch: between popping a command
// and acquiring the execution mutex a preemption may land, and a command
// popped but not yet dispatched belongs to the discarded backlog. The
// generation is therefore re-checked under the execution mutex and a stale
// command is dropped without a handler call.
func (s *Sequencer) executeIfCurrent(ctx context.Context, cmd core.Command, gen uint64) {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	s.mu.Lock()
	stale := s.generation != gen
	s.mu.Unlock()

	if stale {
		s.logger.Debug("discarding preempted command", "op", cmd.Op.String(), "command_id", cmd.ID)
		return
	}

	s.executeLocked(ctx, cmd)
}

// executeLocked does the actual dispatch; caller must hold s.execMu.
func (s *Sequencer) executeLocked(ctx context.Context, cmd core.Command, onDone ...func()) {
	s.logger.Info("executing media command", "op", cmd.Op.String(), "command_id", cmd.ID)

	if err := s.dispatch(ctx, cmd); err != nil {
		s.logger.Warn("media command failed",
			"op", cmd.Op.String(),
			"command_id", cmd.ID,
			"error", err,
		)
	}

	for _, fn := range onDone {
		s.notify(cmd, fn)
	}
}

// dispatch invokes the handler, converting a panic into an error so a
// misbehaving handler cannot take down the loop.
func (s *Sequencer) dispatch(ctx context.Context, cmd core.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic",
				"op", cmd.Op.String(),
				"command_id", cmd.ID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return core.Dispatch(ctx, s.handler, cmd)
}

// notify runs a completion callback, discarding a panic so resolution of the
// exclusive call is never skipped.
func (s *Sequencer) notify(cmd core.Command, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("completion callback panic",
				"op", cmd.Op.String(),
				"command_id", cmd.ID,
				"panic", r,
			)
		}
	}()

	fn()
}
