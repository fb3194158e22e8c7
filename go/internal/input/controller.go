package input

import (
	"sync"

	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/mcdev12/autokat/go/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Key bindings.
const (
	KeyToggleOverlay = 'c'
	KeyCycleColor    = 'm'
	KeyCalibrateTL   = 'q'
	KeyCalibrateTR   = 'w'
	KeyCalibrateBL   = 'a'
	KeyCalibrateBR   = 's'
)

var calibrationKeys = map[rune]game.Corner{
	KeyCalibrateTL: game.CornerTopLeft,
	KeyCalibrateTR: game.CornerTopRight,
	KeyCalibrateBL: game.CornerBottomLeft,
	KeyCalibrateBR: game.CornerBottomRight,
}

// Dispatcher accepts outbound commands without blocking.
type Dispatcher interface {
	Dispatch(protocol.Command)
}

// Controller turns pointer and key events into commands and tracks the
// small amount of local UI state they toggle.
type Controller struct {
	dispatcher Dispatcher
	initial    Options

	mu      sync.Mutex
	overlay bool
	color   game.Color
	pointer game.Point
	moved   bool
}

// NewController creates a controller starting from opts.
func NewController(d Dispatcher, opts Options) *Controller {
	if opts.Color == "" {
		opts.Color = game.ColorRed
	}
	c := &Controller{dispatcher: d, initial: opts}
	c.Reset()
	return c
}

// PointerMoved reports the pointer as the position of the current marker.
func (c *Controller) PointerMoved(x, y float64) {
	c.mu.Lock()
	pos := game.Point{x, y}
	c.pointer, c.moved = pos, true
	color := c.color
	c.mu.Unlock()

	c.dispatcher.Dispatch(protocol.Pointer{Position: pos, Color: color})
}

// KeyDown handles one key press and reports whether it was bound.
func (c *Controller) KeyDown(key rune) bool {
	if corner, ok := calibrationKeys[key]; ok {
		log.Debug().Str("corner", string(corner)).Msg("calibrating corner")
		c.dispatcher.Dispatch(protocol.Calibration{Corner: corner})
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch key {
	case KeyToggleOverlay:
		c.overlay = !c.overlay
	case KeyCycleColor:
		c.color = c.color.Next()
		log.Debug().Str("color", string(c.color)).Msg("marker color changed")
	default:
		return false
	}
	return true
}

// Overlay reports whether the calibration overlay is visible.
func (c *Controller) Overlay() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlay
}

// Color returns the marker the pointer currently drives.
func (c *Controller) Color() game.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.color
}

// Pointer returns the last pointer position, if any was reported.
func (c *Controller) Pointer() (game.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pointer, c.moved
}

// Reset restores the state implied by the page options.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlay = c.initial.Debug
	c.color = c.initial.Color
	c.pointer, c.moved = game.Point{}, false
}
