package devserver

import (
	"fmt"
	"os"
	"time"

	"github.com/mcdev12/autokat/go/internal/game"
	"gopkg.in/yaml.v3"
)

// Scenario scripts the stand-in game: how long each phase lasts and what
// the arena looks like. No physics is simulated.
type Scenario struct {
	Tick time.Duration `yaml:"tick"`

	// IntroTimeout starts a game on its own when no one steps into the
	// start boxes. Zero waits for players.
	IntroTimeout   time.Duration `yaml:"intro_timeout"`
	Countdown      time.Duration `yaml:"countdown"`
	Round          time.Duration `yaml:"round"`
	GameOver       time.Duration `yaml:"game_over"`
	MaxLives       int           `yaml:"max_lives"`
	PointsPerSec   float64       `yaml:"points_per_second"`
	LightSpeed     float64       `yaml:"light_speed"`
	DemoLightSpeed float64       `yaml:"demo_light_speed"`
	BallSpeed      float64       `yaml:"ball_speed"`
	BallRadius     float64       `yaml:"ball_radius"`

	Pillar struct {
		Radius          float64 `yaml:"radius"`
		ForbiddenRadius float64 `yaml:"forbidden_radius"`
	} `yaml:"pillar"`

	Adjectives []string         `yaml:"adjectives"`
	Animals    []string         `yaml:"animals"`
	Highscores []game.Highscore `yaml:"highscores"`
}

// DefaultScenario mirrors the timings of the real game server.
func DefaultScenario() Scenario {
	s := Scenario{
		Tick:           100 * time.Millisecond,
		IntroTimeout:   15 * time.Second,
		Countdown:      5 * time.Second,
		Round:          12 * time.Second,
		GameOver:       20 * time.Second,
		MaxLives:       game.DefaultMaxLives,
		PointsPerSec:   1,
		LightSpeed:     800,
		DemoLightSpeed: 150,
		BallSpeed:      150,
		BallRadius:     30,
		Adjectives:     []string{"Brave", "Sleepy", "Swift", "Loud", "Quiet", "Wild", "Calm", "Fuzzy"},
		Animals:        []string{"Otters", "Herons", "Ferrets", "Moles", "Geese", "Foxes", "Lynxes", "Yaks"},
	}
	s.Pillar.Radius = 25
	s.Pillar.ForbiddenRadius = 100
	return s
}

// LoadScenario reads a YAML scenario over the defaults.
func LoadScenario(path string) (Scenario, error) {
	s := DefaultScenario()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return s, nil
}

// Validate rejects scenarios the engine cannot run.
func (s Scenario) Validate() error {
	switch {
	case s.Tick <= 0:
		return fmt.Errorf("tick must be positive")
	case s.Countdown <= 0 || s.Round <= 0 || s.GameOver <= 0:
		return fmt.Errorf("phase durations must be positive")
	case s.MaxLives <= 0:
		return fmt.Errorf("max_lives must be positive")
	case len(s.Adjectives) == 0 || len(s.Animals) == 0:
		return fmt.Errorf("team name word lists must not be empty")
	}
	return nil
}
