package devserver

import (
	"encoding/binary"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/mcdev12/autokat/go/internal/protocol"
	"github.com/rs/zerolog/log"
)

const (
	// team names reshuffle every few intro ticks until both players step in
	teamNameTicks = 4
	skipHold      = 2 * time.Second
	highscoreRows = 10
)

// Engine scripts the game the real server would run. It never simulates
// physics: rounds last a fixed time and the ball follows a fixed path.
type Engine struct {
	clock    clockwork.Clock
	scenario Scenario
	rng      *rand.Rand

	mu          sync.Mutex
	phase       game.Phase
	phaseStart  time.Time
	ticks       int
	team        string
	scores      []int
	arena       game.Playing
	demo        game.Playing
	ballVel     game.Point
	demoVel     game.Point
	startAt     time.Time
	gameOver    game.GameOver
	skipSince   time.Time
	positions   map[game.Color]game.Point
	calibration game.Calibration
	resetCalib  bool
	highscores  *game.Highscores
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineClock replaces the real clock.
func WithEngineClock(clk clockwork.Clock) EngineOption {
	return func(e *Engine) { e.clock = clk }
}

// WithSeed makes team names and ball directions reproducible.
func WithSeed(seed int64) EngineOption {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// NewEngine starts a game in the intro phase.
func NewEngine(sc Scenario, opts ...EngineOption) *Engine {
	id := uuid.New()
	e := &Engine{
		clock:      clockwork.NewRealClock(),
		scenario:   sc,
		rng:        rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(id[:8])))),
		highscores: game.NewHighscores(sc.Highscores),
		positions: map[game.Color]game.Point{
			game.ColorRed:   screenCenter,
			game.ColorGreen: screenCenter,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.enterIntro(e.clock.Now())
	return e
}

// Phase returns the phase the last step left the game in.
func (e *Engine) Phase() game.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Pointer moves a marker.
func (e *Engine) Pointer(p protocol.Pointer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.positions[p.Color] = p.Position
}

// Calibrate records the red marker's current position for corner.
func (e *Engine) Calibrate(corner game.Corner) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calibration = e.calibration.With(corner, e.positions[game.ColorRed])
	log.Info().
		Str("corner", string(corner)).
		Str("position", e.positions[game.ColorRed].String()).
		Msg("calibration corner recorded")
}

// ResetCalibration forgets every corner. The next frame tells clients to do
// the same.
func (e *Engine) ResetCalibration() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calibration = game.Calibration{}
	e.resetCalib = true
}

// Handle applies a decoded client command.
func (e *Engine) Handle(cmd protocol.Command) {
	switch c := cmd.(type) {
	case protocol.Pointer:
		e.Pointer(c)
	case protocol.Calibration:
		e.Calibrate(c.Corner)
	}
}

// Step advances the script to the current time and returns the frame to
// broadcast.
func (e *Engine) Step() protocol.StateFrame {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.ticks++

	var state game.PhaseState
	switch e.phase {
	case game.PhaseIntro:
		state = e.stepIntro(now)
	case game.PhaseCountdown:
		state = e.stepCountdown(now)
	case game.PhasePlaying:
		state = e.stepPlaying(now)
	default:
		state = e.stepGameOver(now)
	}

	frame := protocol.StateFrame{
		Snapshot: game.Snapshot{
			State: state,
			Debug: game.Debug{
				RedPosition:   e.positions[game.ColorRed],
				GreenPosition: e.positions[game.ColorGreen],
			},
			Calibration: e.calibration,
			ServerTime:  seconds(now),
		},
		ResetCalibration: e.resetCalib,
	}
	e.resetCalib = false
	return frame
}

func (e *Engine) enterIntro(now time.Time) {
	e.setPhase(game.PhaseIntro, now)
	e.ticks = 0
	e.team = e.teamName()
	e.demo = newArena(e.scenario, "", nil)
	e.demo.DemoMode = true
	e.demoVel = e.randomVelocity()
	e.demo.Ball = ballAt(e.demoVel, e.scenario.BallRadius, 0)
}

func (e *Engine) stepIntro(now time.Time) game.PhaseState {
	elapsed := now.Sub(e.phaseStart).Seconds()
	e.demo = steer(e.demo, e.positions[game.ColorRed], e.positions[game.ColorGreen], e.scenario.DemoLightSpeed*e.scenario.Tick.Seconds())
	e.demo.Ball = ballAt(e.demoVel, e.scenario.BallRadius, elapsed)

	inRed, inGreen := e.inStartBoxes()
	if !(inRed && inGreen) && e.ticks%teamNameTicks == 0 {
		e.team = e.teamName()
	}

	timedOut := e.scenario.IntroTimeout > 0 && now.Sub(e.phaseStart) >= e.scenario.IntroTimeout
	if (inRed && inGreen) || timedOut {
		e.scores = nil
		e.arena = newArena(e.scenario, e.team, nil)
		return e.enterCountdown(now)
	}
	return e.intro(inRed, inGreen)
}

func (e *Engine) inStartBoxes() (bool, bool) {
	return redStartBox.Contains(e.positions[game.ColorRed]), greenStartBox.Contains(e.positions[game.ColorGreen])
}

func (e *Engine) intro(inRed, inGreen bool) game.Intro {
	return game.Intro{
		Playing:         e.demo,
		TeamName:        e.team,
		RedStartBox:     redStartBox,
		GreenStartBox:   greenStartBox,
		InRedStartBox:   inRed,
		InGreenStartBox: inGreen,
	}
}

// enterCountdown opens the next round.
func (e *Engine) enterCountdown(now time.Time) game.PhaseState {
	e.scores = append(e.scores, 0)
	e.arena.Scores = append([]int{}, e.scores...)
	e.arena.Ball = nil
	e.startAt = now.Add(e.scenario.Countdown)
	e.setPhase(game.PhaseCountdown, now)
	return e.countdown(now)
}

func (e *Engine) countdown(now time.Time) game.Countdown {
	return game.Countdown{
		StartAt:  seconds(e.startAt),
		TimeLeft: e.startAt.Sub(now).Seconds(),
		Playing:  e.arena,
	}
}

func (e *Engine) stepCountdown(now time.Time) game.PhaseState {
	if now.Before(e.startAt) {
		return e.countdown(now)
	}
	e.ballVel = e.randomVelocity()
	e.setPhase(game.PhasePlaying, now)
	return e.stepPlaying(now)
}

func (e *Engine) stepPlaying(now time.Time) game.PhaseState {
	elapsed := now.Sub(e.phaseStart)
	e.scores[len(e.scores)-1] = int(elapsed.Seconds() * e.scenario.PointsPerSec)
	e.arena.Scores = append([]int{}, e.scores...)
	e.arena = steer(e.arena, e.positions[game.ColorRed], e.positions[game.ColorGreen], e.scenario.LightSpeed*e.scenario.Tick.Seconds())
	e.arena.Ball = ballAt(e.ballVel, e.scenario.BallRadius, elapsed.Seconds())

	if elapsed < e.scenario.Round {
		return e.arena
	}
	if len(e.scores) >= e.scenario.MaxLives {
		return e.enterGameOver(now)
	}
	return e.enterCountdown(now)
}

func (e *Engine) enterGameOver(now time.Time) game.PhaseState {
	best := 0
	for _, s := range e.scores {
		best = max(best, s)
	}
	mine, idx := e.highscores.Add(e.team, best)
	e.gameOver = game.GameOver{
		Scores:           append([]int{}, e.scores...),
		TeamName:         e.team,
		ToIntroAt:        seconds(now.Add(e.scenario.GameOver)),
		Highscores:       e.highscores.Top(highscoreRows),
		MyHighscore:      mine,
		MyHighscoreIndex: idx,
	}
	e.skipSince = time.Time{}
	e.setPhase(game.PhaseGameOver, now)
	log.Info().
		Str("team_name", e.team).
		Int("score", best).
		Int("rank", idx+1).
		Msg("game over")
	return e.gameOver
}

func (e *Engine) stepGameOver(now time.Time) game.PhaseState {
	if now.Sub(e.phaseStart) >= e.scenario.GameOver {
		return e.introFrom(now)
	}

	// the hold starts on first entry and survives leaving the box
	inSkip := skipBox.Contains(e.positions[game.ColorRed]) || skipBox.Contains(e.positions[game.ColorGreen])
	if e.skipSince.IsZero() && inSkip {
		e.skipSince = now
	}
	if !e.skipSince.IsZero() && now.Sub(e.skipSince) > skipHold {
		return e.introFrom(now)
	}
	return e.gameOver
}

// introFrom returns to the intro. Start boxes are only checked from the
// next step on, so at least one intro frame goes out.
func (e *Engine) introFrom(now time.Time) game.PhaseState {
	e.enterIntro(now)
	return e.intro(e.inStartBoxes())
}

func (e *Engine) setPhase(p game.Phase, now time.Time) {
	if e.phase != p {
		log.Debug().Str("from", string(e.phase)).Str("to", string(p)).Msg("phase changed")
	}
	e.phase = p
	e.phaseStart = now
}

func (e *Engine) teamName() string {
	adj := e.scenario.Adjectives[e.rng.Intn(len(e.scenario.Adjectives))]
	animal := e.scenario.Animals[e.rng.Intn(len(e.scenario.Animals))]
	return adj + " " + animal
}

func (e *Engine) randomVelocity() game.Point {
	angle := e.rng.Float64() * 2 * math.Pi
	return game.Point{e.scenario.BallSpeed, 0}.Rotate(angle)
}

func seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
