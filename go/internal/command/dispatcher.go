package command

import (
	"sync/atomic"

	"github.com/mcdev12/autokat/go/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Sender is the outbound side of the channel. Send must not block and
// reports whether the message was queued.
type Sender interface {
	Send(data []byte) bool
}

// Dispatcher serializes client commands and hands them to the channel.
// Commands issued while the channel is not open are dropped; there is no
// retry and no acknowledgement.
type Dispatcher struct {
	sender Sender

	dispatched atomic.Uint64
	dropped    atomic.Uint64
}

// NewDispatcher creates a dispatcher sending through s.
func NewDispatcher(s Sender) *Dispatcher {
	return &Dispatcher{sender: s}
}

// Dispatch sends cmd if possible. It never blocks and never fails.
func (d *Dispatcher) Dispatch(cmd protocol.Command) {
	if cmd == nil {
		return
	}
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		d.dropped.Add(1)
		log.Error().Err(err).Str("command", string(cmd.CommandType())).Msg("failed to encode command")
		return
	}

	if !d.sender.Send(data) {
		d.dropped.Add(1)
		log.Debug().Str("command", string(cmd.CommandType())).Msg("channel not open, dropping command")
		return
	}
	d.dispatched.Add(1)
}

// Pointer reports a marker position for color.
func (d *Dispatcher) Pointer(p protocol.Pointer) { d.Dispatch(p) }

// Calibrate asks the server to record the marker position for a corner.
func (d *Dispatcher) Calibrate(c protocol.Calibration) { d.Dispatch(c) }

// Dispatched returns how many commands were handed to the channel.
func (d *Dispatcher) Dispatched() uint64 { return d.dispatched.Load() }

// Dropped returns how many commands were discarded.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }
