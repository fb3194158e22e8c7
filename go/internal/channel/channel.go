package channel

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/autokat/go/internal/protocol"
	"github.com/rs/zerolog/log"
)

// ConnectionState is the lifecycle state of the channel.
type ConnectionState int32

const (
	Closed ConnectionState = iota
	Connecting
	Open
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	default:
		return "closed"
	}
}

// Handler receives decoded frames in the order they arrived. It is called
// from the session reader goroutine and must not block for long.
type Handler interface {
	HandleFrame(protocol.Frame)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(protocol.Frame)

func (f HandlerFunc) HandleFrame(fr protocol.Frame) { f(fr) }

// Stats are cumulative counters since the channel was created.
type Stats struct {
	Dials         uint64 `json:"dials"`
	DialFailures  uint64 `json:"dial_failures"`
	Reconnects    uint64 `json:"reconnects"`
	Frames        uint64 `json:"frames"`
	DecodeErrors  uint64 `json:"decode_errors"`
	UnknownFrames uint64 `json:"unknown_frames"`
	Sent          uint64 `json:"sent"`
	DroppedSends  uint64 `json:"dropped_sends"`
}

type counters struct {
	dials        atomic.Uint64
	dialFailures atomic.Uint64
	reconnects   atomic.Uint64
	frames       atomic.Uint64
	decodeErrors atomic.Uint64
	unknown      atomic.Uint64
	sent         atomic.Uint64
	droppedSends atomic.Uint64
}

// Channel keeps one websocket session to the server alive, reconnecting
// after a constant delay whenever the session ends.
type Channel struct {
	cfg     Config
	handler Handler
	dialer  Dialer
	clock   clockwork.Clock

	state atomic.Int32

	// live is owned by Run; other goroutines only read it under mu.
	mu   sync.Mutex
	live *session

	counters counters
}

// Option configures a Channel.
type Option func(*Channel)

// WithDialer replaces the gorilla websocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithClock replaces the real clock used for the reconnect timer and pings.
func WithClock(clk clockwork.Clock) Option {
	return func(c *Channel) { c.clock = clk }
}

// New creates a channel in the Closed state. Nothing happens until Run.
func New(cfg Config, handler Handler, opts ...Option) *Channel {
	cfg = cfg.withDefaults()
	c := &Channel{
		cfg:     cfg,
		handler: handler,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = NewWebsocketDialer(cfg)
	}
	return c
}

// State returns the current connection state.
func (c *Channel) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

func (c *Channel) setState(s ConnectionState) {
	if prev := ConnectionState(c.state.Swap(int32(s))); prev != s {
		log.Debug().
			Str("from", prev.String()).
			Str("to", s.String()).
			Msg("connection state changed")
	}
}

// Stats returns a copy of the channel counters.
func (c *Channel) Stats() Stats {
	return Stats{
		Dials:         c.counters.dials.Load(),
		DialFailures:  c.counters.dialFailures.Load(),
		Reconnects:    c.counters.reconnects.Load(),
		Frames:        c.counters.frames.Load(),
		DecodeErrors:  c.counters.decodeErrors.Load(),
		UnknownFrames: c.counters.unknown.Load(),
		Sent:          c.counters.sent.Load(),
		DroppedSends:  c.counters.droppedSends.Load(),
	}
}

// Run dials, serves the session until it ends, then waits ReconnectDelay and
// dials again, until ctx is cancelled. Run is the only place a reconnect
// timer is armed, so at most one is pending at a time.
func (c *Channel) Run(ctx context.Context) error {
	log.Info().
		Str("url", c.cfg.URL).
		Dur("reconnect_delay", c.cfg.ReconnectDelay).
		Msg("channel started")

	defer c.setState(Closed)

	for {
		c.serve(ctx)
		c.setState(Closed)

		if ctx.Err() != nil {
			log.Info().Msg("channel shutting down")
			return nil
		}

		c.counters.reconnects.Add(1)
		timer := c.clock.NewTimer(c.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			stopAndDrainTimer(timer)
			log.Info().Msg("channel shutting down")
			return nil
		case <-timer.Chan():
		}
	}
}

// serve runs one dial and, if it succeeds, one session to completion.
func (c *Channel) serve(ctx context.Context) {
	c.setState(Connecting)
	c.counters.dials.Add(1)

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	conn, err := c.dialer.Dial(dialCtx, c.cfg.URL)
	cancel()
	if err != nil {
		c.counters.dialFailures.Add(1)
		log.Warn().Err(err).Str("url", c.cfg.URL).Msg("failed to connect")
		return
	}

	s := newSession(c, conn)
	c.mu.Lock()
	c.live = s
	c.mu.Unlock()

	c.setState(Open)
	log.Info().Str("session_id", s.id).Str("url", c.cfg.URL).Msg("connection established")
	s.start()

	select {
	case <-s.done:
	case <-ctx.Done():
		s.close(ctx.Err())
	}

	c.mu.Lock()
	c.live = nil
	c.mu.Unlock()
	c.setState(Closed)

	s.wait()
	log.Info().Err(s.err).Str("session_id", s.id).Msg("connection closed")
}

// Drop ends the live session, if any. The reconnect loop dials again after
// the usual delay.
func (c *Channel) Drop() {
	c.mu.Lock()
	s := c.live
	c.mu.Unlock()
	if s != nil {
		s.close(errDropped)
	}
}

// Send queues data for the live session without blocking. It reports false
// and drops the data when the channel is not Open or the queue is full.
func (c *Channel) Send(data []byte) bool {
	if c.State() != Open {
		c.counters.droppedSends.Add(1)
		return false
	}

	c.mu.Lock()
	s := c.live
	c.mu.Unlock()
	if s == nil || !s.enqueue(data) {
		c.counters.droppedSends.Add(1)
		return false
	}
	return true
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
