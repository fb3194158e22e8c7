package devserver

import (
	"math"

	"github.com/mcdev12/autokat/go/internal/game"
)

const (
	coneLength    = 1000
	skipBoxWidth  = 150
	skipBoxHeight = 50
)

var (
	screen       = game.Point{game.ScreenWidth, game.ScreenHeight}
	screenCenter = screen.Scale(0.5)

	startBoxUnit = float64(game.ScreenWidth) / 7
	startBoxSide = startBoxUnit * 2

	redStartBox   = game.Rect(startBoxUnit, (game.ScreenHeight-startBoxSide)/2, startBoxSide, startBoxSide)
	greenStartBox = game.Rect(game.ScreenWidth-3*startBoxUnit, (game.ScreenHeight-startBoxSide)/2, startBoxSide, startBoxSide)

	// holding a marker here during game over skips straight to the intro
	skipBox = game.Rect(game.ScreenWidth-skipBoxWidth, game.ScreenHeight-skipBoxHeight, skipBoxWidth, skipBoxHeight)
)

// newArena lays out a fresh playing field with the lights either side of
// the pillar.
func newArena(sc Scenario, team string, scores []int) game.Playing {
	pillar := game.Pillar{
		Position:        screenCenter,
		Radius:          sc.Pillar.Radius,
		ForbiddenRadius: sc.Pillar.ForbiddenRadius,
	}
	p := game.Playing{
		RedLight:   screenCenter.Add(game.Point{-200, 0}),
		GreenLight: screenCenter.Add(game.Point{200, 0}),
		Pillar:     pillar,
		TeamName:   team,
		Scores:     append([]int{}, scores...),
		MaxLives:   sc.MaxLives,
	}
	p.RedCone = cone(p.RedLight, pillar)
	p.GreenCone = cone(p.GreenLight, pillar)
	return p
}

// cone is the shadow-free region a light covers: a triangle from the light
// through both tangents of the pillar, closed back at the light.
func cone(light game.Point, pillar game.Pillar) game.Polygon {
	diff := light.Sub(pillar.Position)
	left := diff.Rotate(math.Pi / 2).Norm().Scale(pillar.Radius)
	right := diff.Rotate(-math.Pi / 2).Norm().Scale(pillar.Radius)
	return game.Polygon{
		light,
		light.Add(diff.Add(left).Scale(-coneLength)),
		light.Add(diff.Add(right).Scale(-coneLength)),
		light,
	}
}

// moveLight moves a light at most maxStep towards target, keeping it out
// of the pillar's forbidden radius.
func moveLight(light, target game.Point, maxStep float64, pillar game.Pillar) game.Point {
	step := target.Sub(light)
	if step.Len() > maxStep {
		step = step.Norm().Scale(maxStep)
	}
	next := light.Add(step)

	away := next.Sub(pillar.Position)
	if away.Len() < 1 {
		away = game.Point{1, 0}
	}
	if away.Len() < pillar.ForbiddenRadius {
		next = pillar.Position.Add(away.Norm().Scale(pillar.ForbiddenRadius))
	}
	return next
}

// steer moves both lights and recomputes their cones.
func steer(p game.Playing, red, green game.Point, maxStep float64) game.Playing {
	p.RedLight = moveLight(p.RedLight, red, maxStep, p.Pillar)
	p.GreenLight = moveLight(p.GreenLight, green, maxStep, p.Pillar)
	p.RedCone = cone(p.RedLight, p.Pillar)
	p.GreenCone = cone(p.GreenLight, p.Pillar)
	return p
}

// ballAt places a ball that left the center with velocity v, elapsed
// seconds ago, folding its path back into the screen at the edges.
func ballAt(v game.Point, radius, elapsed float64) *game.Ball {
	pos := screenCenter.Add(v.Scale(elapsed))
	vel := v
	pos[0], vel[0] = fold(pos[0], radius, game.ScreenWidth-radius, vel[0])
	pos[1], vel[1] = fold(pos[1], radius, game.ScreenHeight-radius, vel[1])
	return &game.Ball{Position: pos, Velocity: vel, Radius: radius}
}

// fold maps x into [lo, hi] as if it bounced between the bounds, flipping
// the sign of v on every odd bounce.
func fold(x, lo, hi, v float64) (float64, float64) {
	span := hi - lo
	if span <= 0 {
		return lo, v
	}
	m := math.Mod(x-lo, 2*span)
	if m < 0 {
		m += 2 * span
	}
	if m > span {
		return lo + 2*span - m, -v
	}
	return lo + m, v
}
