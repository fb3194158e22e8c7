package render

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/mcdev12/autokat/go/internal/client"
	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/mcdev12/autokat/go/internal/render/scene"
)

// debug font cell size
const (
	glyphWidth  = 6
	glyphHeight = 16
)

var keyRunes = map[ebiten.Key]rune{
	ebiten.KeyC: 'c',
	ebiten.KeyM: 'm',
	ebiten.KeyQ: 'q',
	ebiten.KeyW: 'w',
	ebiten.KeyA: 'a',
	ebiten.KeyS: 's',
}

// Game adapts a client to ebiten. It only reads client frames and forwards
// input; it holds no game state of its own.
type Game struct {
	client *client.Client
	frame  client.Frame

	keys           []ebiten.Key
	cursorX        int
	cursorY        int
	cursorReported bool

	white   *ebiten.Image
	scratch *ebiten.Image
}

// New creates the ebiten game for c.
func New(c *client.Client) *Game {
	white := ebiten.NewImage(3, 3)
	white.Fill(color.White)
	return &Game{
		client:  c,
		frame:   c.Frame(),
		white:   white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image),
		scratch: ebiten.NewImage(game.ScreenWidth, glyphHeight),
	}
}

// Update runs once per display refresh.
func (g *Game) Update() error {
	in := g.client.Input()

	x, y := ebiten.CursorPosition()
	if !g.cursorReported || x != g.cursorX || y != g.cursorY {
		g.cursorX, g.cursorY, g.cursorReported = x, y, true
		in.PointerMoved(float64(x), float64(y))
	}

	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		if k == ebiten.KeyEscape {
			return ebiten.Termination
		}
		if r, ok := keyRunes[k]; ok {
			in.KeyDown(r)
		}
	}

	g.frame = g.client.Advance()
	return nil
}

// Draw paints the last composed frame.
func (g *Game) Draw(screen *ebiten.Image) {
	s := scene.Compose(g.frame)
	screen.Fill(s.Background)

	for _, sh := range s.Shapes {
		switch sh := sh.(type) {
		case scene.Circle:
			g.drawCircle(screen, sh)
		case scene.Polygon:
			g.drawPolygon(screen, sh)
		case scene.Text:
			g.drawText(screen, sh)
		}
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return game.ScreenWidth, game.ScreenHeight
}

func (g *Game) drawCircle(screen *ebiten.Image, c scene.Circle) {
	x, y, r := float32(c.Center.X()), float32(c.Center.Y()), float32(c.Radius)
	if c.Stroke > 0 {
		vector.StrokeCircle(screen, x, y, r, float32(c.Stroke), c.Color, true)
		return
	}
	vector.DrawFilledCircle(screen, x, y, r, c.Color, true)
}

func (g *Game) drawPolygon(screen *ebiten.Image, p scene.Polygon) {
	var path vector.Path
	for i, pt := range p.Points {
		if i == 0 {
			path.MoveTo(float32(pt.X()), float32(pt.Y()))
			continue
		}
		path.LineTo(float32(pt.X()), float32(pt.Y()))
	}
	path.Close()

	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	r, gr, b, a := p.Color.RGBA()
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR = float32(r) / 0xffff
		vs[i].ColorG = float32(gr) / 0xffff
		vs[i].ColorB = float32(b) / 0xffff
		vs[i].ColorA = float32(a) / 0xffff
	}
	screen.DrawTriangles(vs, is, g.white, &ebiten.DrawTrianglesOptions{FillRule: ebiten.EvenOdd})
}

// drawText renders debug-font text into the scratch line and scales it
// onto the screen.
func (g *Game) drawText(screen *ebiten.Image, t scene.Text) {
	scale := t.Scale
	if scale <= 0 {
		scale = 1
	}
	w, h := len(t.Text)*glyphWidth, glyphHeight
	if w == 0 {
		return
	}
	if w > game.ScreenWidth {
		w = game.ScreenWidth
	}

	g.scratch.Clear()
	ebitenutil.DebugPrintAt(g.scratch, t.Text, 0, 0)
	img := g.scratch.SubImage(image.Rect(0, 0, w, h)).(*ebiten.Image)

	x, y := t.At.X(), t.At.Y()
	if t.Centered {
		x -= float64(w) * scale / 2
		y -= float64(h) * scale / 2
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(t.Color)
	screen.DrawImage(img, op)
}
