package clock

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultRefresh is the display refresh interval the clock ticks at when it
// drives itself.
const DefaultRefresh = time.Second / 60

// Tick is logical seconds since the clock started. It only moves forward and
// is consumed by render logic, never by the network layer.
type Tick float64

// Seconds returns t as a float64.
func (t Tick) Seconds() float64 { return float64(t) }

// Clock produces animation ticks. It is not a source of truth for gameplay
// timing; that comes from server-supplied times.
type Clock struct {
	clock clockwork.Clock

	mu    sync.Mutex
	start time.Time
	last  Tick
}

// New creates a clock started now. In production pass clockwork.NewRealClock(),
// in tests a fake clock.
func New(c clockwork.Clock) *Clock {
	return &Clock{clock: c, start: c.Now()}
}

// Now returns the current tick, never smaller than any tick returned before.
func (c *Clock) Now() Tick {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := Tick(c.clock.Since(c.start).Seconds())
	if t < c.last {
		t = c.last
	}
	c.last = t
	return t
}

// Restart resets the tick to zero. Only a full client reload does this.
func (c *Clock) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = c.clock.Now()
	c.last = 0
}

// Run calls fn once per refresh interval until ctx is cancelled, which is
// the only way ticking stops.
func (c *Clock) Run(ctx context.Context, refresh time.Duration, fn func(Tick)) {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	ticker := c.clock.NewTicker(refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			fn(c.Now())
		}
	}
}
