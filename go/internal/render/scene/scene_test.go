package scene

import (
	"image/color"
	"testing"

	"github.com/mcdev12/autokat/go/internal/channel"
	"github.com/mcdev12/autokat/go/internal/client"
	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/mcdev12/autokat/go/internal/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(s Scene) []string {
	var out []string
	for _, sh := range s.Shapes {
		if t, ok := sh.(Text); ok {
			out = append(out, t.Text)
		}
	}
	return out
}

func count[T Shape](s Scene) int {
	n := 0
	for _, sh := range s.Shapes {
		if _, ok := sh.(T); ok {
			n++
		}
	}
	return n
}

func playing() game.Playing {
	return game.Playing{
		RedLight:   game.Point{300, 400},
		GreenLight: game.Point{700, 400},
		Pillar:     game.Pillar{Position: game.Point{512, 384}, Radius: 25, ForbiddenRadius: 90},
		RedCone:    game.Polygon{{300, 400}, {0, 0}, {0, 768}},
		GreenCone:  game.Polygon{{700, 400}, {1023, 0}, {1023, 767}},
		Ball:       &game.Ball{Position: game.Point{10, 10}, Radius: 12},
		TeamName:   "Wild Ferrets",
		Scores:     []int{3, 7},
		MaxLives:   3,
	}
}

func TestCompose_CountdownDrawsArenaAndDigit(t *testing.T) {
	snap := game.Snapshot{State: game.Countdown{StartAt: 5, Playing: playing()}, ServerTime: 2.5}
	f := client.Frame{View: phase.Resolve(snap, 0), Connection: channel.Open}

	s := Compose(f)
	assert.Equal(t, Black, s.Background)
	assert.Equal(t, 2, count[Polygon](s))
	assert.Equal(t, 5, count[Circle](s))
	assert.Contains(t, texts(s), "3")
	assert.Contains(t, texts(s), "Wild Ferrets  score 7  lives 1/3")
}

func TestCompose_GameOverTable(t *testing.T) {
	var top []game.Highscore
	for i := 0; i < 10; i++ {
		top = append(top, game.Highscore{TeamName: "team", Score: 50 - i})
	}
	over := game.GameOver{
		TeamName:         "Wild Ferrets",
		Highscores:       top,
		MyHighscore:      game.Highscore{TeamName: "Wild Ferrets", Score: 2},
		MyHighscoreIndex: 20,
	}
	f := client.Frame{View: phase.Resolve(game.Snapshot{State: over}, 0), Connection: channel.Open}

	s := Compose(f)
	assert.Equal(t, HSV(0, 0.6, 0.35), s.Background)
	assert.Equal(t, 0, count[Polygon](s))
	lines := texts(s)
	require.Len(t, lines, 13)
	assert.Equal(t, "GAME OVER", lines[0])
	assert.Equal(t, "...", lines[11])
	assert.Equal(t, " 21. Wild Ferrets                 2", lines[12])
}

func TestCompose_OverlayAndConnection(t *testing.T) {
	snap := game.DefaultSnapshot()
	snap.Calibration = snap.Calibration.With(game.CornerTopLeft, game.Point{11.4, 12.6})
	f := client.Frame{
		View:       phase.Resolve(snap, 0),
		Overlay:    true,
		Color:      game.ColorRed,
		Marker:     game.Point{100, 200},
		Connection: channel.Connecting,
	}
	f.Entry.Snapshot = snap

	lines := texts(Compose(f))
	assert.Contains(t, lines, "red pointer 100,200")
	assert.Contains(t, lines, "11,13")
	assert.Contains(t, lines, "-")
	assert.Contains(t, lines, "connecting")
}

func TestCornerPosition(t *testing.T) {
	assert.Equal(t, game.Point{0, 0}, CornerPosition(game.CornerTopLeft))
	assert.Equal(t, game.Point{1023, 767}, CornerPosition(game.CornerBottomRight))
}

func TestHSV(t *testing.T) {
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, HSV(0, 1, 1))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, HSV(120, 1, 1))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, HSV(600, 1, 1))
}
