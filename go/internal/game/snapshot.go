package game

import "fmt"

// Phase is the high-level game mode that decides which nested payload a
// snapshot carries.
type Phase string

const (
	PhaseIntro     Phase = "intro"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseGameOver  Phase = "game_over"
)

// ParsePhase maps a wire name onto a Phase.
func ParsePhase(s string) (Phase, error) {
	switch p := Phase(s); p {
	case PhaseIntro, PhaseCountdown, PhasePlaying, PhaseGameOver:
		return p, nil
	default:
		return "", fmt.Errorf("unknown phase %q", s)
	}
}

// DefaultMaxLives is used when the server does not bound the score list.
const DefaultMaxLives = 3

// PhaseState is the phase-specific payload of a snapshot. It is implemented
// only by Intro, Countdown, Playing and GameOver.
type PhaseState interface {
	Phase() Phase
	phaseState()
}

// Snapshot is one complete, self-consistent copy of server state. It is
// replaced wholesale on every update and never mutated once installed.
type Snapshot struct {
	State       PhaseState
	Debug       Debug
	Calibration Calibration
	// ServerTime is the server clock, in seconds, when the snapshot was built.
	ServerTime float64
}

// Phase returns the discriminant of the snapshot's payload.
func (s Snapshot) Phase() Phase {
	if s.State == nil {
		return PhasePlaying
	}
	return s.State.Phase()
}

// Debug carries the last raw marker positions, independent of phase.
type Debug struct {
	RedPosition   Point
	GreenPosition Point
}

// Position returns the marker position for color.
func (d Debug) Position(c Color) Point {
	if c == ColorGreen {
		return d.GreenPosition
	}
	return d.RedPosition
}

type Ball struct {
	Position Point
	Velocity Point
	Radius   float64
}

type Pillar struct {
	Position        Point
	Radius          float64
	ForbiddenRadius float64
}

// Playing is the arena state. Intro and Countdown embed it so the arena keeps
// rendering beneath their overlays.
type Playing struct {
	RedLight   Point
	GreenLight Point
	Ball       *Ball
	Pillar     Pillar
	RedCone    Polygon
	GreenCone  Polygon
	TeamName   string
	DemoMode   bool
	Scores     []int
	MaxLives   int
}

func (Playing) Phase() Phase { return PhasePlaying }
func (Playing) phaseState()  {}

// Normalize enforces len(Scores) <= MaxLives. A non-positive MaxLives becomes
// DefaultMaxLives. It reports whether the score list had to be clamped.
func (p *Playing) Normalize() bool {
	if p.MaxLives <= 0 {
		p.MaxLives = DefaultMaxLives
	}
	if p.Scores == nil {
		p.Scores = []int{}
	}
	if len(p.Scores) <= p.MaxLives {
		return false
	}
	p.Scores = append([]int(nil), p.Scores[:p.MaxLives]...)
	return true
}

// Validate checks the cone vertex invariant.
func (p Playing) Validate() error {
	if err := p.RedCone.Validate(); err != nil {
		return fmt.Errorf("red cone: %w", err)
	}
	if err := p.GreenCone.Validate(); err != nil {
		return fmt.Errorf("green cone: %w", err)
	}
	return nil
}

// Lives returns how many rounds remain before the game ends.
func (p Playing) Lives() int {
	if left := p.MaxLives - len(p.Scores); left > 0 {
		return left
	}
	return 0
}

// CurrentScore returns the score of the round in progress.
func (p Playing) CurrentScore() int {
	if len(p.Scores) == 0 {
		return 0
	}
	return p.Scores[len(p.Scores)-1]
}

type Countdown struct {
	StartAt  float64
	TimeLeft float64
	Playing  Playing
}

func (Countdown) Phase() Phase { return PhaseCountdown }
func (Countdown) phaseState()  {}

type Intro struct {
	Playing         Playing
	TeamName        string
	RedStartBox     Polygon
	GreenStartBox   Polygon
	InRedStartBox   bool
	InGreenStartBox bool
}

func (Intro) Phase() Phase { return PhaseIntro }
func (Intro) phaseState()  {}

// Validate checks the start boxes and the nested arena.
func (i Intro) Validate() error {
	if err := i.RedStartBox.Validate(); err != nil {
		return fmt.Errorf("red start box: %w", err)
	}
	if err := i.GreenStartBox.Validate(); err != nil {
		return fmt.Errorf("green start box: %w", err)
	}
	return i.Playing.Validate()
}

type GameOver struct {
	Scores           []int
	TeamName         string
	ToIntroAt        float64
	Highscores       []Highscore
	MyHighscore      Highscore
	MyHighscoreIndex int
}

func (GameOver) Phase() Phase { return PhaseGameOver }
func (GameOver) phaseState()  {}

// BestScore returns the highest round score of the finished game.
func (g GameOver) BestScore() int {
	best := 0
	for _, s := range g.Scores {
		if s > best {
			best = s
		}
	}
	return best
}

// Normalize returns s with the score bound enforced on whichever arena the
// payload carries, and whether anything was clamped.
func Normalize(s Snapshot) (Snapshot, bool) {
	var clamped bool
	switch st := s.State.(type) {
	case Playing:
		clamped = st.Normalize()
		s.State = st
	case Countdown:
		clamped = st.Playing.Normalize()
		s.State = st
	case Intro:
		clamped = st.Playing.Normalize()
		s.State = st
	case nil:
		s.State = DefaultSnapshot().State
	}
	return s, clamped
}

// DefaultSnapshot is the fully populated value a client shows before the
// first server update.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		State: Playing{
			Scores:   []int{},
			MaxLives: DefaultMaxLives,
		},
	}
}
