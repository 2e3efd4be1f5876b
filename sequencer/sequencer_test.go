package sequencer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvkit/mediaseq/core"
	"github.com/tvkit/mediaseq/internal/testutil"
	"github.com/tvkit/mediaseq/scheduler"
)

// captureLogger records rendered log lines per level for assertions.
type captureLogger struct {
	mu    sync.Mutex
	lines map[string][]string
}

func newCaptureLogger() *captureLogger {
	return &captureLogger{lines: map[string][]string{}}
}

func (l *captureLogger) log(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines[level] = append(l.lines[level], fmt.Sprint(append([]any{msg}, args...)...))
}

func (l *captureLogger) Debug(msg string, args ...any) { l.log("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.log("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.log("error", msg, args...) }

func (l *captureLogger) level(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines[level]))
	copy(out, l.lines[level])
	return out
}

func newTestSequencer(t *testing.T) (*Sequencer, *scheduler.Manual, *testutil.RecordingHandler, *captureLogger) {
	t.Helper()

	handler := testutil.NewRecordingHandler()
	manual := scheduler.NewManual()
	logger := newCaptureLogger()

	s := New(handler, func(o *Options) {
		o.Scheduler = manual
		o.Logger = logger
	})
	t.Cleanup(s.Destroy)

	return s, manual, handler, logger
}

func cmd(op core.Op) core.Command {
	return core.NewCommand(op, nil)
}

func TestSequencer_FIFOOrder(t *testing.T) {
	s, manual, handler, _ := newTestSequencer(t)

	s.Enqueue(cmd(core.OpPlay))
	s.Enqueue(cmd(core.OpPause))
	s.Enqueue(cmd(core.OpSeek))

	manual.FireAll()

	assert.Equal(t, []string{"play", "pause", "seek"}, handler.CallNames())
	assert.Equal(t, 1, handler.MaxInFlight())
	assert.False(t, s.CycleActive())
	assert.Zero(t, s.QueueLen())
}

func TestSequencer_OneCommandPerTick(t *testing.T) {
	s, manual, handler, _ := newTestSequencer(t)

	s.Enqueue(cmd(core.OpPlay))
	s.Enqueue(cmd(core.OpPause))
	s.Enqueue(cmd(core.OpSeek))

	manual.Fire()
	assert.Len(t, handler.Calls(), 1)
	assert.True(t, s.CycleActive())

	manual.Fire()
	assert.Len(t, handler.Calls(), 2)

	manual.Fire()
	assert.Len(t, handler.Calls(), 3)

	// Terminal tick: the empty queue ends the cycle without a dispatch.
	manual.Fire()
	assert.Len(t, handler.Calls(), 3)
	assert.False(t, s.CycleActive())
	assert.Zero(t, manual.Pending())
}

func TestSequencer_EnqueueDuringDrainKeepsFIFO(t *testing.T) {
	s, manual, handler, _ := newTestSequencer(t)

	s.Enqueue(cmd(core.OpPlay))
	manual.Fire()

	s.Enqueue(cmd(core.OpPause))
	s.Enqueue(cmd(core.OpSeek))
	manual.FireAll()

	assert.Equal(t, []string{"play", "pause", "seek"}, handler.CallNames())
}

func TestSequencer_EnqueueRestartsCycleAfterIdle(t *testing.T) {
	s, manual, handler, _ := newTestSequencer(t)

	s.Enqueue(cmd(core.OpPlay))
	manual.FireAll()
	require.False(t, s.CycleActive())

	// No spontaneous dispatches while idle.
	assert.Zero(t, manual.Fire())

	s.Enqueue(cmd(core.OpPause))
	assert.True(t, s.CycleActive())
	manual.FireAll()

	assert.Equal(t, []string{"play", "pause"}, handler.CallNames())
}

func TestSequencer_ExclusivePreemptsBacklog(t *testing.T) {
	s, manual, handler, _ := newTestSequencer(t)

	s.Enqueue(cmd(core.OpPlay))
	s.Enqueue(cmd(core.OpPause))
	require.Equal(t, 2, s.QueueLen())

	s.ExecuteExclusive(context.Background(), cmd(core.OpRewind))

	// The backlog is gone and the canceled tick must not fire.
	assert.Zero(t, s.QueueLen())
	assert.Zero(t, manual.Fire())
	assert.Equal(t, []string{"rewind"}, handler.CallNames())
	assert.False(t, s.CycleActive())
}

func TestSequencer_ExclusiveResolvesOnHandlerFailure(t *testing.T) {
	s, _, handler, logger := newTestSequencer(t)

	handler.FailWith(core.OpPlay, errors.New("codec unavailable"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.ExecuteExclusive(context.Background(), cmd(core.OpPlay))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ExecuteExclusive did not return after handler failure")
	}

	warns := logger.level("warn")
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "play")
	assert.Contains(t, warns[0], "codec unavailable")
}

func TestSequencer_FailedCommandDoesNotStallLoop(t *testing.T) {
	s, manual, handler, logger := newTestSequencer(t)

	handler.FailWith(core.OpPlay, errors.New("boom"))

	s.Enqueue(cmd(core.OpPlay))
	s.Enqueue(cmd(core.OpPause))
	manual.FireAll()

	assert.Equal(t, []string{"play", "pause"}, handler.CallNames())

	warns := logger.level("warn")
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "play")
}

func TestSequencer_UnknownCommandBehavesLikeFailure(t *testing.T) {
	s, manual, handler, logger := newTestSequencer(t)

	s.Enqueue(core.NewCommandByName("teleport", nil))
	s.Enqueue(cmd(core.OpPause))
	manual.FireAll()

	// The unknown command is skipped with a warning; the loop advances.
	assert.Equal(t, []string{"pause"}, handler.CallNames())

	warns := logger.level("warn")
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], core.ErrUnknownCommand.Error())
}

func TestSequencer_ExclusiveSerializedWithInFlightCommand(t *testing.T) {
	s, manual, handler, _ := newTestSequencer(t)

	release := handler.Gate(core.OpPlay)

	s.Enqueue(cmd(core.OpPlay))
	s.Enqueue(cmd(core.OpPause))

	fired := make(chan struct{})
	go func() {
		defer close(fired)
		manual.Fire()
	}()

	// Wait until play is in flight.
	require.Eventually(t, func() bool {
		return len(handler.Calls()) == 1
	}, 2*time.Second, time.Millisecond)

	exclusiveDone := make(chan struct{})
	go func() {
		defer close(exclusiveDone)
		s.ExecuteExclusive(context.Background(), cmd(core.OpRewind))
	}()

	// The preemption happens before the in-flight command settles: the
	// backlog empties while play is still blocked.
	require.Eventually(t, func() bool {
		return s.QueueLen() == 0
	}, 2*time.Second, time.Millisecond)

	release()

	select {
	case <-exclusiveDone:
	case <-time.After(2 * time.Second):
		t.Fatal("ExecuteExclusive did not return")
	}
	<-fired

	// play settled first, then the exclusive command; pause was discarded
	// and the stale drain step scheduled no further tick.
	assert.Equal(t, []string{"play", "rewind"}, handler.CallNames())
	assert.Equal(t, 1, handler.MaxInFlight())
	assert.Zero(t, manual.Pending())
	assert.False(t, s.CycleActive())
}

func TestSequencer_PreemptionDiscardsPoppedUndispatchedCommand(t *testing.T) {
	s, manual, handler, _ := newTestSequencer(t)

	s.Enqueue(cmd(core.OpPlay))

	// Park the drain step between popping the command and dispatching it
	// by holding the execution mutex across the Fire.
	s.execMu.Lock()

	fired := make(chan struct{})
	go func() {
		defer close(fired)
		manual.Fire()
	}()

	// Once the queue is empty the step has popped play; it is now blocked
	// ahead of the dispatch, with no handler call made yet.
	require.Eventually(t, func() bool {
		return s.QueueLen() == 0 && len(handler.Calls()) == 0
	}, 2*time.Second, time.Millisecond)

	exclusiveDone := make(chan struct{})
	go func() {
		defer close(exclusiveDone)
		s.ExecuteExclusive(context.Background(), cmd(core.OpRewind))
	}()

	// The preemption lands before either contender can dispatch: wait for
	// the cycle reset, then release the execution mutex.
	require.Eventually(t, func() bool {
		return !s.CycleActive()
	}, 2*time.Second, time.Millisecond)

	s.execMu.Unlock()

	<-exclusiveDone
	<-fired

	// The popped command belongs to the discarded backlog: only the
	// exclusive command reaches the handler, whichever goroutine won the
	// execution mutex, and the stale step schedules no further tick.
	assert.Equal(t, []string{"rewind"}, handler.CallNames())
	assert.Zero(t, manual.Pending())
	assert.False(t, s.CycleActive())
	assert.Zero(t, s.QueueLen())
}

func TestSequencer_ExclusiveCompletionCallbacks(t *testing.T) {
	s, _, _, logger := newTestSequencer(t)

	var order []string
	s.ExecuteExclusive(context.Background(), cmd(core.OpPlay),
		func() {
			order = append(order, "first")
			panic("callback exploded")
		},
		func() {
			order = append(order, "second")
		},
	)

	// Both callbacks ran before the call resolved; the panic was contained.
	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, logger.level("warn"), 1)
	assert.Contains(t, logger.level("warn")[0], "callback")
}

// panickingHandler panics on Play and records everything else.
type panickingHandler struct {
	*testutil.RecordingHandler
}

func (panickingHandler) Play(context.Context, json.RawMessage) error {
	panic("play exploded")
}

func TestSequencer_HandlerPanicIsContained(t *testing.T) {
	recording := testutil.NewRecordingHandler()
	manual := scheduler.NewManual()
	logger := newCaptureLogger()

	s := New(panickingHandler{recording}, func(o *Options) {
		o.Scheduler = manual
		o.Logger = logger
	})
	t.Cleanup(s.Destroy)

	s.Enqueue(cmd(core.OpPlay))
	s.Enqueue(cmd(core.OpPause))
	manual.FireAll()

	// The panic is contained and the loop advances to the next command.
	assert.Equal(t, []string{"pause"}, recording.CallNames())
	require.Len(t, logger.level("error"), 1)
	assert.Contains(t, logger.level("error")[0], "play exploded")
	require.Len(t, logger.level("warn"), 1)
}

func TestSequencer_DestroyCancelsPendingWork(t *testing.T) {
	s, manual, handler, _ := newTestSequencer(t)

	s.Enqueue(cmd(core.OpPlay))
	s.Enqueue(cmd(core.OpPause))
	require.True(t, s.CycleActive())

	s.Destroy()

	assert.Zero(t, s.QueueLen())
	assert.False(t, s.CycleActive())
	assert.Zero(t, manual.Fire())
	assert.Empty(t, handler.Calls())
}

func TestSequencer_DestroyIdempotent(t *testing.T) {
	s, manual, handler, _ := newTestSequencer(t)

	s.Destroy()
	s.Destroy()

	// Enqueue after destroy is a no-op: nothing queued, nothing scheduled.
	s.Enqueue(cmd(core.OpPlay))
	assert.Zero(t, s.QueueLen())
	assert.False(t, s.CycleActive())
	assert.Zero(t, manual.Fire())
	assert.Empty(t, handler.Calls())
}

func TestSequencer_IndependentInstancesShareNothing(t *testing.T) {
	h1 := testutil.NewRecordingHandler()
	h2 := testutil.NewRecordingHandler()
	m1 := scheduler.NewManual()
	m2 := scheduler.NewManual()

	s1 := New(h1, func(o *Options) { o.Scheduler = m1 })
	s2 := New(h2, func(o *Options) { o.Scheduler = m2 })
	t.Cleanup(s1.Destroy)
	t.Cleanup(s2.Destroy)

	s1.Enqueue(cmd(core.OpPlay))
	s2.Enqueue(cmd(core.OpPause))

	s1.ExecuteExclusive(context.Background(), cmd(core.OpRewind))
	m2.FireAll()

	assert.Equal(t, []string{"rewind"}, h1.CallNames())
	assert.Equal(t, []string{"pause"}, h2.CallNames())
}

func TestSequencer_DefaultFrameClock(t *testing.T) {
	handler := testutil.NewRecordingHandler()

	s := New(handler)
	t.Cleanup(s.Destroy)

	s.Enqueue(cmd(core.OpPlay))
	s.Enqueue(cmd(core.OpPause))

	require.Eventually(t, func() bool {
		return len(handler.Calls()) == 2
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"play", "pause"}, handler.CallNames())
	assert.Equal(t, 1, handler.MaxInFlight())
}
