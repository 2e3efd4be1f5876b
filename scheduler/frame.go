package scheduler

import (
	"sync"
	"time"

	"github.com/tvkit/mediaseq/core"
)

// FrameClockOptions configures a FrameClock.
type FrameClockOptions struct {
	// FrameRate is the number of frames per second. Defaults to 60.
	FrameRate int
}

// FrameClock is a core.Scheduler driven by a wall-clock ticker at a fixed
// frame rate. Callbacks requested before a frame run on that frame, in
// registration order, on the clock's single goroutine. Callbacks requested
// while a frame is running land on the next frame.
type FrameClock struct {
	interval time.Duration

	mu      sync.Mutex
	nextID  core.FrameID
	pending map[core.FrameID]func()
	order   []core.FrameID

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewFrameClock constructs a FrameClock and starts its frame goroutine.
// Callers must Close it when finished.
func NewFrameClock(optFns ...func(o *FrameClockOptions)) *FrameClock {
	opts := FrameClockOptions{FrameRate: 60}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = 60
	}

	c := &FrameClock{
		interval: time.Second / time.Duration(opts.FrameRate),
		nextID:   core.FrameIDNone,
		pending:  map[core.FrameID]func(){},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go c.run()

	return c
}

// RequestFrame registers fn to run on the next frame.
func (c *FrameClock) RequestFrame(fn func()) core.FrameID {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.pending[id] = fn
	c.order = append(c.order, id)

	return id
}

// CancelFrame removes a pending callback. Fired or unknown IDs are a no-op.
func (c *FrameClock) CancelFrame(id core.FrameID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, id)
}

// Close stops the clock and waits for the frame goroutine to exit; no
// callback fires after Close returns. Close is idempotent.
func (c *FrameClock) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *FrameClock) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			for _, fn := range c.takeFrame() {
				fn()
			}
		}
	}
}

// takeFrame atomically drains the callbacks registered for the upcoming
// frame so that re-registrations from inside a callback wait for the next
// one.
func (c *FrameClock) takeFrame() []func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	fns := make([]func(), 0, len(c.order))
	for _, id := range c.order {
		if fn, ok := c.pending[id]; ok {
			fns = append(fns, fn)
			delete(c.pending, id)
		}
	}
	c.order = c.order[:0]

	return fns
}
