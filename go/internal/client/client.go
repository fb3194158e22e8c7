package client

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/autokat/go/internal/channel"
	"github.com/mcdev12/autokat/go/internal/clock"
	"github.com/mcdev12/autokat/go/internal/command"
	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/mcdev12/autokat/go/internal/input"
	"github.com/mcdev12/autokat/go/internal/protocol"
	"github.com/mcdev12/autokat/go/internal/relay"
	"github.com/mcdev12/autokat/go/internal/store"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Client owns every piece of client state: clock, store, channel, command
// dispatcher and input controller. There is no package-level state; a
// reload rebuilds what it owns in place.
type Client struct {
	cfg  Config
	wall clockwork.Clock

	clock      *clock.Clock
	store      *store.Store
	channel    *channel.Channel
	dispatcher *command.Dispatcher
	input      *input.Controller
	relay      *relay.Relay

	dialer   channel.Dialer
	onReload func()
	reloads  atomic.Uint64

	phaseMu   sync.Mutex
	lastPhase game.Phase
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces the real clock everywhere the client keeps time.
func WithClock(c clockwork.Clock) Option {
	return func(cl *Client) { cl.wall = c }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d channel.Dialer) Option {
	return func(cl *Client) { cl.dialer = d }
}

// WithReloadHook is called after a server-requested reload has discarded
// local state.
func WithReloadHook(fn func()) Option {
	return func(cl *Client) { cl.onReload = fn }
}

// WithRelay mirrors installed snapshots through r.
func WithRelay(r *relay.Relay) Option {
	return func(cl *Client) { cl.relay = r }
}

// New wires a client from cfg. It does not connect until Run.
func New(cfg Config, opts ...Option) (*Client, error) {
	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, fmt.Errorf("failed to derive endpoint: %w", err)
	}
	pageOpts, err := cfg.Options()
	if err != nil {
		return nil, fmt.Errorf("failed to read page options: %w", err)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.New().String()
	}

	c := &Client{cfg: cfg, wall: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(c)
	}

	chCfg := channel.DefaultConfig()
	chCfg.URL = endpoint
	chCfg.ReconnectDelay = cfg.ReconnectDelay
	chOpts := []channel.Option{channel.WithClock(c.wall)}
	if c.dialer != nil {
		chOpts = append(chOpts, channel.WithDialer(c.dialer))
	}

	c.clock = clock.New(c.wall)
	c.store = store.New(c.wall)
	c.channel = channel.New(chCfg, c, chOpts...)
	c.dispatcher = command.NewDispatcher(c.channel)
	c.input = input.NewController(c.dispatcher, pageOpts)
	c.lastPhase = c.store.Snapshot().Phase()

	log.Info().
		Str("client_id", cfg.ClientID).
		Str("endpoint", endpoint).
		Bool("debug", pageOpts.Debug).
		Str("color", string(pageOpts.Color)).
		Msg("client configured")
	return c, nil
}

// Run connects and keeps the client synchronized until ctx is cancelled.
// In headless mode the clock drives frame composition itself; otherwise the
// renderer calls Frame on every display refresh.
func (c *Client) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.channel.Run(ctx)
	})

	if c.relay != nil {
		g.Go(func() error {
			return c.relay.Run(ctx, c.store)
		})
	}

	if c.cfg.Headless {
		g.Go(func() error {
			c.clock.Run(ctx, c.cfg.Refresh, func(clock.Tick) {
				c.observe(c.Frame())
			})
			return nil
		})
	}

	err := g.Wait()
	c.store.Close()
	return err
}

// HandleFrame applies one server frame. It runs on the channel reader.
func (c *Client) HandleFrame(f protocol.Frame) {
	switch fr := f.(type) {
	case protocol.StateFrame:
		c.store.Apply(fr)
	case protocol.ReloadFrame:
		c.reload()
	}
}

// reload discards all local state and drops the live session, as a page
// reload would.
func (c *Client) reload() {
	n := c.reloads.Add(1)
	log.Info().Uint64("reloads", n).Msg("server requested reload, discarding local state")

	c.store.Reset()
	c.clock.Restart()
	c.input.Reset()
	c.channel.Drop()

	if c.onReload != nil {
		c.onReload()
	}
}

// observe logs phase transitions seen by the renderer.
func (c *Client) observe(f Frame) {
	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()
	if f.View.Phase == c.lastPhase {
		return
	}
	log.Info().
		Str("from", string(c.lastPhase)).
		Str("to", string(f.View.Phase)).
		Str("team", f.View.TeamName()).
		Uint64("version", f.Entry.Version).
		Msg("phase changed")
	c.lastPhase = f.View.Phase
}

// ID returns the client identifier used for the spectator relay.
func (c *Client) ID() string { return c.cfg.ClientID }

// Input returns the controller the renderer feeds pointer and key events to.
func (c *Client) Input() *input.Controller { return c.input }

// Store returns the snapshot store.
func (c *Client) Store() *store.Store { return c.store }

// Channel returns the server channel.
func (c *Client) Channel() *channel.Channel { return c.channel }

// Reloads returns how many reloads the server requested.
func (c *Client) Reloads() uint64 { return c.reloads.Load() }
