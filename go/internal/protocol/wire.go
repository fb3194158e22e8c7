package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mcdev12/autokat/go/internal/game"
)

// Wire shapes. Field names follow what the game server emits.

type envelope struct {
	Type FrameType `json:"type"`
}

type stateFrameWire struct {
	Type        FrameType       `json:"type"`
	State       json.RawMessage `json:"state"`
	Calibration json.RawMessage `json:"calibration,omitempty"`
	Debug       debugWire       `json:"debug"`
	Time        float64         `json:"time"`
}

type debugWire struct {
	RedPosition   game.Point `json:"red_position"`
	GreenPosition game.Point `json:"green_position"`
}

type phaseNameWire struct {
	Name string `json:"name"`
}

type ballWire struct {
	Position game.Point `json:"position"`
	Velocity game.Point `json:"velocity"`
	Radius   float64    `json:"radius"`
}

type pillarWire struct {
	Position        game.Point `json:"position"`
	Radius          float64    `json:"radius"`
	ForbiddenRadius float64    `json:"forbidden_radius"`
}

type playingWire struct {
	Name       string       `json:"name,omitempty"`
	RedLight   game.Point   `json:"red_light"`
	GreenLight game.Point   `json:"green_light"`
	Ball       *ballWire    `json:"ball"`
	RedCone    game.Polygon `json:"red_cone"`
	GreenCone  game.Polygon `json:"green_cone"`
	Pillar     pillarWire   `json:"pillar"`
	TeamName   string       `json:"team_name"`
	Scores     []int        `json:"scores"`
	MaxLives   int          `json:"max_lives"`
	DemoMode   bool         `json:"demo_mode"`
}

type countdownWire struct {
	Name         string      `json:"name"`
	StartAt      float64     `json:"start_at"`
	TimeLeft     *float64    `json:"time_left,omitempty"`
	PlayingState playingWire `json:"playing_state"`
}

type introWire struct {
	Name            string       `json:"name"`
	PlayingState    playingWire  `json:"playing_state"`
	TeamName        string       `json:"team_name"`
	RedStartBox     game.Polygon `json:"red_start_box"`
	GreenStartBox   game.Polygon `json:"green_start_box"`
	InRedStartBox   bool         `json:"in_red_start_box"`
	InGreenStartBox bool         `json:"in_green_start_box"`
}

type gameOverWire struct {
	Name             string           `json:"name"`
	Scores           []int            `json:"scores"`
	TeamName         string           `json:"team_name"`
	ToIntroAt        float64          `json:"to_intro_at"`
	TopHighscores    []game.Highscore `json:"top_highscores"`
	MyHighscore      game.Highscore   `json:"my_highscore"`
	MyHighscoreIndex int              `json:"my_highscore_index"`
}

type commandWire struct {
	Type     CommandType `json:"type"`
	Position *game.Point `json:"position,omitempty"`
	Color    game.Color  `json:"color,omitempty"`
	Corner   game.Corner `json:"corner,omitempty"`
}

var jsonNull = []byte("null")

// DecodeServer decodes one server message. Unknown tags produce an
// UnknownFrame and no error.
func DecodeServer(raw []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case FrameTypeState:
		return decodeState(raw)
	case FrameTypeReload:
		return ReloadFrame{}, nil
	default:
		return UnknownFrame{Tag: env.Type}, nil
	}
}

func decodeState(raw []byte) (StateFrame, error) {
	var w stateFrameWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return StateFrame{}, fmt.Errorf("%w: state frame: %v", ErrMalformed, err)
	}
	if len(w.State) == 0 || bytes.Equal(w.State, jsonNull) {
		return StateFrame{}, fmt.Errorf("%w: state frame without state", ErrMalformed)
	}

	state, err := decodePhase(w.State, w.Time)
	if err != nil {
		return StateFrame{}, err
	}

	frame := StateFrame{
		Snapshot: game.Snapshot{
			State: state,
			Debug: game.Debug{
				RedPosition:   w.Debug.RedPosition,
				GreenPosition: w.Debug.GreenPosition,
			},
			ServerTime: w.Time,
		},
	}

	switch {
	case bytes.Equal(bytes.TrimSpace(w.Calibration), jsonNull):
		frame.ResetCalibration = true
	case len(w.Calibration) > 0:
		cal, err := decodeCalibration(w.Calibration)
		if err != nil {
			return StateFrame{}, err
		}
		frame.Snapshot.Calibration = cal
	}

	return frame, nil
}

func decodePhase(raw json.RawMessage, serverTime float64) (game.PhaseState, error) {
	var name phaseNameWire
	if err := json.Unmarshal(raw, &name); err != nil {
		return nil, fmt.Errorf("%w: phase: %v", ErrMalformed, err)
	}
	phase, err := game.ParsePhase(name.Name)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownPhase, name.Name)
	}

	switch phase {
	case game.PhasePlaying:
		var w playingWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("%w: playing: %v", ErrMalformed, err)
		}
		return w.toGame()

	case game.PhaseCountdown:
		var w countdownWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("%w: countdown: %v", ErrMalformed, err)
		}
		playing, err := w.PlayingState.toGame()
		if err != nil {
			return nil, fmt.Errorf("countdown: %w", err)
		}
		timeLeft := math.Max(0, w.StartAt-serverTime)
		if w.TimeLeft != nil {
			timeLeft = *w.TimeLeft
		}
		return game.Countdown{StartAt: w.StartAt, TimeLeft: timeLeft, Playing: playing}, nil

	case game.PhaseIntro:
		var w introWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("%w: intro: %v", ErrMalformed, err)
		}
		playing, err := w.PlayingState.toGame()
		if err != nil {
			return nil, fmt.Errorf("intro: %w", err)
		}
		intro := game.Intro{
			Playing:         playing,
			TeamName:        w.TeamName,
			RedStartBox:     w.RedStartBox,
			GreenStartBox:   w.GreenStartBox,
			InRedStartBox:   w.InRedStartBox,
			InGreenStartBox: w.InGreenStartBox,
		}
		if err := intro.Validate(); err != nil {
			return nil, fmt.Errorf("intro: %w", err)
		}
		return intro, nil

	default:
		var w gameOverWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("%w: game over: %v", ErrMalformed, err)
		}
		return game.GameOver{
			Scores:           w.Scores,
			TeamName:         w.TeamName,
			ToIntroAt:        w.ToIntroAt,
			Highscores:       w.TopHighscores,
			MyHighscore:      w.MyHighscore,
			MyHighscoreIndex: w.MyHighscoreIndex,
		}, nil
	}
}

func (w playingWire) toGame() (game.Playing, error) {
	p := game.Playing{
		RedLight:   w.RedLight,
		GreenLight: w.GreenLight,
		Pillar: game.Pillar{
			Position:        w.Pillar.Position,
			Radius:          w.Pillar.Radius,
			ForbiddenRadius: w.Pillar.ForbiddenRadius,
		},
		RedCone:   w.RedCone,
		GreenCone: w.GreenCone,
		TeamName:  w.TeamName,
		DemoMode:  w.DemoMode,
		Scores:    w.Scores,
		MaxLives:  w.MaxLives,
	}
	if w.Ball != nil {
		p.Ball = &game.Ball{Position: w.Ball.Position, Velocity: w.Ball.Velocity, Radius: w.Ball.Radius}
	}
	if err := p.Validate(); err != nil {
		return game.Playing{}, err
	}
	return p, nil
}

func decodeCalibration(raw json.RawMessage) (game.Calibration, error) {
	var corners map[string]*game.Point
	if err := json.Unmarshal(raw, &corners); err != nil {
		return game.Calibration{}, fmt.Errorf("%w: calibration: %v", ErrMalformed, err)
	}
	var cal game.Calibration
	for name, p := range corners {
		corner, err := game.ParseCorner(name)
		if err != nil || p == nil {
			continue
		}
		cal = cal.With(corner, *p)
	}
	return cal, nil
}

// EncodeState renders a snapshot as a "state" frame.
func EncodeState(s game.Snapshot) ([]byte, error) {
	return EncodeStateFrame(StateFrame{Snapshot: s})
}

// EncodeStateFrame renders f, sending a null calibration map when the frame
// resets calibration.
func EncodeStateFrame(f StateFrame) ([]byte, error) {
	s := f.Snapshot
	state, err := encodePhase(s.State)
	if err != nil {
		return nil, err
	}

	cal := json.RawMessage(jsonNull)
	if !f.ResetCalibration {
		corners := make(map[string]game.Point, len(game.Corners))
		s.Calibration.Each(func(c game.Corner, p game.Point) {
			corners[string(c)] = p
		})
		if cal, err = json.Marshal(corners); err != nil {
			return nil, fmt.Errorf("marshal calibration: %w", err)
		}
	}

	return json.Marshal(stateFrameWire{
		Type:        FrameTypeState,
		State:       state,
		Calibration: cal,
		Debug: debugWire{
			RedPosition:   s.Debug.RedPosition,
			GreenPosition: s.Debug.GreenPosition,
		},
		Time: s.ServerTime,
	})
}

// EncodeReload renders a "reload" frame.
func EncodeReload() []byte {
	data, _ := json.Marshal(envelope{Type: FrameTypeReload})
	return data
}

func encodePhase(state game.PhaseState) (json.RawMessage, error) {
	var v interface{}
	switch st := state.(type) {
	case game.Playing:
		w := playingToWire(st)
		w.Name = string(game.PhasePlaying)
		v = w
	case game.Countdown:
		timeLeft := st.TimeLeft
		v = countdownWire{
			Name:         string(game.PhaseCountdown),
			StartAt:      st.StartAt,
			TimeLeft:     &timeLeft,
			PlayingState: playingToWire(st.Playing),
		}
	case game.Intro:
		v = introWire{
			Name:            string(game.PhaseIntro),
			PlayingState:    playingToWire(st.Playing),
			TeamName:        st.TeamName,
			RedStartBox:     st.RedStartBox,
			GreenStartBox:   st.GreenStartBox,
			InRedStartBox:   st.InRedStartBox,
			InGreenStartBox: st.InGreenStartBox,
		}
	case game.GameOver:
		v = gameOverWire{
			Name:             string(game.PhaseGameOver),
			Scores:           st.Scores,
			TeamName:         st.TeamName,
			ToIntroAt:        st.ToIntroAt,
			TopHighscores:    st.Highscores,
			MyHighscore:      st.MyHighscore,
			MyHighscoreIndex: st.MyHighscoreIndex,
		}
	default:
		return nil, fmt.Errorf("encode phase: unsupported state %T", state)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal phase: %w", err)
	}
	return data, nil
}

func playingToWire(p game.Playing) playingWire {
	w := playingWire{
		RedLight:   p.RedLight,
		GreenLight: p.GreenLight,
		RedCone:    p.RedCone,
		GreenCone:  p.GreenCone,
		Pillar: pillarWire{
			Position:        p.Pillar.Position,
			Radius:          p.Pillar.Radius,
			ForbiddenRadius: p.Pillar.ForbiddenRadius,
		},
		TeamName: p.TeamName,
		Scores:   p.Scores,
		MaxLives: p.MaxLives,
		DemoMode: p.DemoMode,
	}
	if p.Ball != nil {
		w.Ball = &ballWire{Position: p.Ball.Position, Velocity: p.Ball.Velocity, Radius: p.Ball.Radius}
	}
	return w
}

// EncodeCommand renders an outbound command.
func EncodeCommand(cmd Command) ([]byte, error) {
	var w commandWire
	switch c := cmd.(type) {
	case Pointer:
		pos := c.Position
		w = commandWire{Type: CommandTypePointer, Position: &pos, Color: c.Color}
	case Calibration:
		w = commandWire{Type: CommandTypeCalibration, Corner: c.Corner}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
	return json.Marshal(w)
}

// DecodeCommand parses a client-to-server command.
func DecodeCommand(raw []byte) (Command, error) {
	var w commandWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch w.Type {
	case CommandTypePointer:
		if w.Position == nil {
			return nil, fmt.Errorf("%w: pointer without position", ErrMalformed)
		}
		color := game.ColorRed
		if w.Color != "" {
			c, err := game.ParseColor(string(w.Color))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			color = c
		}
		return Pointer{Position: *w.Position, Color: color}, nil

	case CommandTypeCalibration:
		corner, err := game.ParseCorner(string(w.Corner))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Calibration{Corner: corner}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, w.Type)
	}
}
