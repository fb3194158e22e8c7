package protocol

import (
	"errors"

	"github.com/mcdev12/autokat/go/internal/game"
)

// FrameType is the "type" tag of a server-to-client message.
type FrameType string

const (
	FrameTypeState  FrameType = "state"
	FrameTypeReload FrameType = "reload"
)

// CommandType is the "type" tag of a client-to-server message.
type CommandType string

const (
	CommandTypePointer     CommandType = "pointer"
	CommandTypeCalibration CommandType = "calibration"
)

var (
	// ErrMalformed wraps any payload that is not valid JSON or has the wrong shape.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownPhase is returned for a state frame whose phase name is not recognized.
	ErrUnknownPhase = errors.New("unknown phase")
	// ErrUnknownCommand is returned by DecodeCommand for unrecognized command tags.
	ErrUnknownCommand = errors.New("unknown command")
)

// Frame is a decoded server message: StateFrame, ReloadFrame or UnknownFrame.
type Frame interface {
	Type() FrameType
}

// StateFrame carries a full snapshot.
type StateFrame struct {
	Snapshot game.Snapshot
	// ResetCalibration is set when the server sent an explicit null calibration
	// map, discarding every recorded corner.
	ResetCalibration bool
}

func (StateFrame) Type() FrameType { return FrameTypeState }

// ReloadFrame instructs the client to discard all state and reload.
type ReloadFrame struct{}

func (ReloadFrame) Type() FrameType { return FrameTypeReload }

// UnknownFrame is a message with a tag this client does not understand.
// Callers ignore it.
type UnknownFrame struct {
	Tag FrameType
}

func (f UnknownFrame) Type() FrameType { return f.Tag }

// Command is an outbound user command: Pointer or Calibration.
type Command interface {
	CommandType() CommandType
}

// Pointer reports a tracked marker's current screen position.
type Pointer struct {
	Position game.Point
	Color    game.Color
}

func (Pointer) CommandType() CommandType { return CommandTypePointer }

// Calibration asks the server to record the current marker position for Corner.
type Calibration struct {
	Corner game.Corner
}

func (Calibration) CommandType() CommandType { return CommandTypeCalibration }
