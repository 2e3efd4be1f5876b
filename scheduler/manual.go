package scheduler

import (
	"sync"

	"github.com/tvkit/mediaseq/core"
)

// Manual is a deterministic core.Scheduler for tests: nothing runs until the
// test calls Fire, which executes the currently pending callbacks
// synchronously on the calling goroutine. Callbacks registered during Fire
// (the usual "schedule next tick" pattern) wait for the next Fire, matching
// real frame semantics.
type Manual struct {
	mu      sync.Mutex
	nextID  core.FrameID
	pending map[core.FrameID]func()
	order   []core.FrameID
}

// NewManual constructs an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{pending: map[core.FrameID]func(){}}
}

// RequestFrame registers fn for the next Fire.
func (m *Manual) RequestFrame(fn func()) core.FrameID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.pending[id] = fn
	m.order = append(m.order, id)

	return id
}

// CancelFrame removes a pending callback. Fired or unknown IDs are a no-op.
func (m *Manual) CancelFrame(id core.FrameID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pending, id)
}

// Fire runs one frame: every callback pending at the moment of the call, in
// registration order. It returns the number of callbacks executed.
func (m *Manual) Fire() int {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.order))
	for _, id := range m.order {
		if fn, ok := m.pending[id]; ok {
			fns = append(fns, fn)
			delete(m.pending, id)
		}
	}
	m.order = m.order[:0]
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}

	return len(fns)
}

// FireAll fires frames until none remain pending and returns the total
// number of callbacks executed. Useful for draining a sequencer to idle.
func (m *Manual) FireAll() int {
	total := 0
	for {
		n := m.Fire()
		if n == 0 {
			return total
		}
		total += n
	}
}

// Pending returns the number of callbacks awaiting the next Fire.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.pending)
}
