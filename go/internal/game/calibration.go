package game

import "fmt"

// Color identifies a tracked marker.
type Color string

const (
	ColorRed   Color = "red"
	ColorGreen Color = "green"
)

// ParseColor maps a wire or query value onto a Color.
func ParseColor(s string) (Color, error) {
	switch c := Color(s); c {
	case ColorRed, ColorGreen:
		return c, nil
	default:
		return "", fmt.Errorf("unknown marker color %q", s)
	}
}

// Next cycles red -> green -> red.
func (c Color) Next() Color {
	if c == ColorRed {
		return ColorGreen
	}
	return ColorRed
}

// Corner names one of the four display corners used for calibration.
type Corner string

const (
	CornerTopLeft     Corner = "top_left"
	CornerTopRight    Corner = "top_right"
	CornerBottomLeft  Corner = "bottom_left"
	CornerBottomRight Corner = "bottom_right"
)

// Corners lists every corner in a fixed order.
var Corners = [...]Corner{CornerTopLeft, CornerTopRight, CornerBottomLeft, CornerBottomRight}

func (c Corner) index() int {
	for i, k := range Corners {
		if k == c {
			return i
		}
	}
	return -1
}

// ParseCorner maps a wire name onto a Corner.
func ParseCorner(s string) (Corner, error) {
	if c := Corner(s); c.index() >= 0 {
		return c, nil
	}
	return "", fmt.Errorf("unknown calibration corner %q", s)
}

// Calibration records screen-space reference points per corner. Entries are
// absent until the server acknowledges them. The zero value is empty.
type Calibration struct {
	points [len(Corners)]Point
	set    [len(Corners)]bool
}

// Get returns the recorded point for c.
func (c Calibration) Get(corner Corner) (Point, bool) {
	i := corner.index()
	if i < 0 || !c.set[i] {
		return Point{}, false
	}
	return c.points[i], true
}

// With returns a copy of c with corner recorded at p.
func (c Calibration) With(corner Corner, p Point) Calibration {
	if i := corner.index(); i >= 0 {
		c.points[i] = p
		c.set[i] = true
	}
	return c
}

// Merge overlays the corners recorded in update onto c. Corners absent from
// update keep their previous value.
func (c Calibration) Merge(update Calibration) Calibration {
	for i := range Corners {
		if update.set[i] {
			c.points[i] = update.points[i]
			c.set[i] = true
		}
	}
	return c
}

// Len returns the number of recorded corners.
func (c Calibration) Len() int {
	n := 0
	for _, ok := range c.set {
		if ok {
			n++
		}
	}
	return n
}

// Complete reports whether all four corners are recorded.
func (c Calibration) Complete() bool { return c.Len() == len(Corners) }

// Each calls fn for every recorded corner in Corners order.
func (c Calibration) Each(fn func(Corner, Point)) {
	for i, corner := range Corners {
		if c.set[i] {
			fn(corner, c.points[i])
		}
	}
}

// IdentityCalibration maps tracker coordinates 1:1 onto the screen.
func IdentityCalibration() Calibration {
	return Calibration{}.
		With(CornerTopLeft, Point{0, 0}).
		With(CornerTopRight, Point{ScreenWidth - 1, 0}).
		With(CornerBottomLeft, Point{0, ScreenHeight - 1}).
		With(CornerBottomRight, Point{ScreenWidth - 1, ScreenHeight - 1})
}

// Transform maps a tracker coordinate onto screen coordinates by
// interpolating between the recorded corners. Missing corners fall back to
// the identity mapping.
func (c Calibration) Transform(coords Point) Point {
	full := IdentityCalibration().Merge(c)
	tl, _ := full.Get(CornerTopLeft)
	tr, _ := full.Get(CornerTopRight)
	bl, _ := full.Get(CornerBottomLeft)
	br, _ := full.Get(CornerBottomRight)

	yOffsetTop := (tl.Y() + tr.Y()) / 2
	deltaY := (bl.Y()+br.Y())/2 - yOffsetTop
	if deltaY == 0 {
		return coords
	}
	ty := (coords.Y() - yOffsetTop) * (ScreenHeight - 1) / deltaY

	t := ty / (ScreenHeight - 1)
	left := tl.X()*(1-t) + bl.X()*t
	right := tr.X()*(1-t) + br.X()*t
	xScale := (right - left) / (ScreenWidth - 1)
	if xScale == 0 {
		return coords
	}
	return Point{(coords.X() - left) / xScale, ty}
}
