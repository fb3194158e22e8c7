package client

import (
	"github.com/mcdev12/autokat/go/internal/channel"
	"github.com/mcdev12/autokat/go/internal/clock"
	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/mcdev12/autokat/go/internal/phase"
	"github.com/mcdev12/autokat/go/internal/store"
)

// Frame is everything a renderer reads for one display refresh.
type Frame struct {
	Tick  clock.Tick
	Entry store.Entry
	View  phase.View

	Overlay bool
	Color   game.Color
	// Marker is the server-reported position of the driven marker.
	Marker     game.Point
	Connection channel.ConnectionState
}

// Frame composes the current frame. The view is resolved afresh from the
// installed snapshot on every call.
func (c *Client) Frame() Frame {
	e := c.store.Current()
	color := c.input.Color()
	return Frame{
		Tick:       c.clock.Now(),
		Entry:      e,
		View:       phase.Resolve(e.Snapshot, c.wall.Since(e.InstalledAt)),
		Overlay:    c.input.Overlay(),
		Color:      color,
		Marker:     e.Snapshot.Debug.Position(color),
		Connection: c.channel.State(),
	}
}

// Advance composes the frame for one display refresh and records phase
// transitions. Renderers that own the refresh loop call it instead of the
// headless ticker.
func (c *Client) Advance() Frame {
	f := c.Frame()
	c.observe(f)
	return f
}
