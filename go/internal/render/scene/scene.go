package scene

import (
	"fmt"
	"image/color"
	"math"

	"github.com/mcdev12/autokat/go/internal/channel"
	"github.com/mcdev12/autokat/go/internal/client"
	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/mcdev12/autokat/go/internal/phase"
)

var (
	Black       = color.RGBA{0, 0, 0, 255}
	White       = color.RGBA{255, 255, 255, 255}
	Red         = color.RGBA{220, 30, 30, 255}
	Green       = color.RGBA{30, 180, 60, 255}
	Blue        = color.RGBA{40, 90, 230, 255}
	Purple      = color.RGBA{128, 0, 128, 255}
	Yellow      = color.RGBA{255, 230, 0, 255}
	Gray        = color.RGBA{140, 140, 140, 255}
	RedCone     = color.RGBA{110, 15, 15, 128}
	GreenCone   = color.RGBA{15, 90, 30, 128}
	StartBoxOn  = color.RGBA{255, 255, 255, 96}
	StartBoxOff = color.RGBA{255, 255, 255, 32}
)

const (
	LightRadius  = 10
	BallRadius   = 10
	MarkerRadius = 6
	LineHeight   = 16
)

// Shape is one drawing primitive.
type Shape interface {
	shape()
}

// Circle is filled when Stroke is zero, outlined otherwise.
type Circle struct {
	Center game.Point
	Radius float64
	Stroke float64
	Color  color.RGBA
}

// Polygon is a filled polygon.
type Polygon struct {
	Points game.Polygon
	Color  color.RGBA
}

// Text is debug-font text with its top-left corner at At.
type Text struct {
	At    game.Point
	Text  string
	Scale float64
	Color color.RGBA
	// Centered places At at the center of the text block.
	Centered bool
}

func (Circle) shape()  {}
func (Polygon) shape() {}
func (Text) shape()    {}

// Scene is a frame reduced to primitives in draw order.
type Scene struct {
	Background color.RGBA
	Shapes     []Shape
}

func (s *Scene) add(shapes ...Shape) { s.Shapes = append(s.Shapes, shapes...) }

// Compose lays out f. It reads only what the active view exposes.
func Compose(f client.Frame) Scene {
	s := Scene{Background: Black}
	v := f.View

	if v.Arena != nil {
		arena(&s, *v.Arena)
	}

	center := game.Point{game.ScreenWidth / 2, game.ScreenHeight / 2}
	switch {
	case v.Countdown != nil:
		s.add(Text{At: center, Text: fmt.Sprint(v.CountdownDigit), Scale: 8, Color: White, Centered: true})
	case v.Intro != nil:
		intro(&s, *v.Intro, center)
	case v.GameOver != nil:
		gameOver(&s, *v.GameOver, f.Tick.Seconds(), center)
	}

	if v.Arena != nil {
		hud(&s, *v.Arena, v.TeamName())
	}
	if f.Overlay {
		overlay(&s, f)
	}
	if f.Connection != channel.Open {
		s.add(Text{At: game.Point{8, game.ScreenHeight - 2*LineHeight}, Text: f.Connection.String(), Scale: 1, Color: Gray})
	}
	return s
}

func arena(s *Scene, p game.Playing) {
	s.add(
		Circle{Center: p.Pillar.Position, Radius: p.Pillar.ForbiddenRadius, Stroke: 2, Color: White},
		Circle{Center: p.Pillar.Position, Radius: p.Pillar.Radius, Color: Purple},
		Circle{Center: p.RedLight, Radius: LightRadius, Color: Red},
		Circle{Center: p.GreenLight, Radius: LightRadius, Color: Green},
	)
	if len(p.RedCone) >= game.MinPolygonVertices {
		s.add(Polygon{Points: p.RedCone, Color: RedCone})
	}
	if len(p.GreenCone) >= game.MinPolygonVertices {
		s.add(Polygon{Points: p.GreenCone, Color: GreenCone})
	}
	if p.Ball != nil {
		r := p.Ball.Radius
		if r <= 0 {
			r = BallRadius
		}
		s.add(Circle{Center: p.Ball.Position, Radius: r, Color: Blue})
	}
}

func hud(s *Scene, p game.Playing, team string) {
	line := fmt.Sprintf("%s  score %d  lives %d/%d", team, p.CurrentScore(), p.Lives(), p.MaxLives)
	if p.DemoMode {
		line += "  DEMO"
	}
	s.add(Text{At: game.Point{8, 8}, Text: line, Scale: 1, Color: White})
}

func intro(s *Scene, in game.Intro, center game.Point) {
	if len(in.RedStartBox) >= game.MinPolygonVertices {
		s.add(Polygon{Points: in.RedStartBox, Color: startBox(in.InRedStartBox)})
	}
	if len(in.GreenStartBox) >= game.MinPolygonVertices {
		s.add(Polygon{Points: in.GreenStartBox, Color: startBox(in.InGreenStartBox)})
	}
	s.add(
		Text{At: center, Text: in.TeamName, Scale: 4, Color: White, Centered: true},
		Text{At: center.Add(game.Point{0, 60}), Text: "step into your start boxes", Scale: 2, Color: White, Centered: true},
	)
}

func startBox(occupied bool) color.RGBA {
	if occupied {
		return StartBoxOn
	}
	return StartBoxOff
}

func gameOver(s *Scene, g game.GameOver, tick float64, center game.Point) {
	s.Background = HSV(phase.Hue(tick), 0.6, 0.35)

	rows := phase.HighscoreRows(g, phase.DefaultTableSize)
	top := center.Y() - float64(len(rows)+3)*LineHeight
	s.add(Text{At: game.Point{center.X(), top}, Text: "GAME OVER", Scale: 4, Color: White, Centered: true})

	y := top + 5*LineHeight
	for _, row := range rows {
		s.add(Text{At: game.Point{center.X(), y}, Text: TableLine(row), Scale: 2, Color: rowColor(row), Centered: true})
		y += 2 * LineHeight
	}
}

func rowColor(r phase.HighscoreRow) color.RGBA {
	if r.Mine {
		return Yellow
	}
	return White
}

// TableLine renders one highscore row.
func TableLine(r phase.HighscoreRow) string {
	if r.Ellipsis {
		return "..."
	}
	return fmt.Sprintf("%3d. %-24s %5d", r.Rank, r.Entry.TeamName, r.Entry.Score)
}

func overlay(s *Scene, f client.Frame) {
	marker := f.Marker
	s.add(
		Circle{Center: marker, Radius: MarkerRadius, Color: Yellow},
		Text{At: game.Point{300, 300}, Text: fmt.Sprintf("%s pointer %s", f.Color, marker.Round()), Scale: 2, Color: Yellow},
	)

	cal := f.Entry.Snapshot.Calibration
	for _, corner := range game.Corners {
		at := CornerPosition(corner)
		s.add(Circle{Center: at, Radius: MarkerRadius, Color: Yellow})

		label := "-"
		if p, ok := cal.Get(corner); ok {
			label = p.Round().String()
		}
		s.add(Text{At: cornerLabel(corner, len(label)), Text: label, Scale: 1, Color: Yellow})
	}
}

// CornerPosition is the screen pixel a calibration corner refers to.
func CornerPosition(c game.Corner) game.Point {
	const w, h = game.ScreenWidth - 1, game.ScreenHeight - 1
	switch c {
	case game.CornerTopRight:
		return game.Point{w, 0}
	case game.CornerBottomLeft:
		return game.Point{0, h}
	case game.CornerBottomRight:
		return game.Point{w, h}
	default:
		return game.Point{0, 0}
	}
}

func cornerLabel(c game.Corner, chars int) game.Point {
	const pad = 10
	width := float64(chars * 6)
	p := CornerPosition(c)
	x, y := p.X()+pad, p.Y()+pad
	if p.X() > 0 {
		x = p.X() - pad - width
	}
	if p.Y() > 0 {
		y = p.Y() - pad - LineHeight
	}
	return game.Point{x, y}
}

// HSV converts hue in degrees with saturation and value in [0,1].
func HSV(h, s, v float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	to8 := func(f float64) uint8 { return uint8(math.Round((f + m) * 255)) }
	return color.RGBA{to8(r), to8(g), to8(b), 255}
}
